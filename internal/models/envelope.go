// Package models defines the vault data model: credential records, their
// encrypted envelopes, the verification record and session state types.
package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/passvault/internal/common"
)

// EnvelopeType tags which key class decrypts an Envelope.
type EnvelopeType string

const (
	// EnvelopeSymmetric is AES-GCM under the master key.
	EnvelopeSymmetric EnvelopeType = "aes"
	// EnvelopeAsymmetric is RSA-OAEP under the blind-save public key.
	EnvelopeAsymmetric EnvelopeType = "rsa"
)

// Envelope is the encrypted form of a single credential secret.
// IV is empty for asymmetric envelopes.
type Envelope struct {
	Type       EnvelopeType
	IV         []byte
	Ciphertext []byte
}

// NewSymmetricEnvelope wraps an AES-GCM nonce and ciphertext.
func NewSymmetricEnvelope(iv, ciphertext []byte) Envelope {
	return Envelope{Type: EnvelopeSymmetric, IV: iv, Ciphertext: ciphertext}
}

// NewAsymmetricEnvelope wraps an RSA-OAEP ciphertext.
func NewAsymmetricEnvelope(ciphertext []byte) Envelope {
	return Envelope{Type: EnvelopeAsymmetric, Ciphertext: ciphertext}
}

// IsSymmetric reports whether the master key decrypts e.
func (e Envelope) IsSymmetric() bool { return e.Type == EnvelopeSymmetric }

// Payload renders the wire payload: "base64(iv):base64(ct)" for symmetric
// envelopes and "base64(ct)" for asymmetric ones.
func (e Envelope) Payload() string {
	ct := base64.StdEncoding.EncodeToString(e.Ciphertext)
	if e.Type == EnvelopeAsymmetric {
		return ct
	}
	return base64.StdEncoding.EncodeToString(e.IV) + ":" + ct
}

// ParseSymmetricPayload parses the "base64(iv):base64(ct)" wire format.
func ParseSymmetricPayload(s string) (Envelope, error) {
	ivStr, ctStr, ok := strings.Cut(s, ":")
	if !ok {
		return Envelope{}, fmt.Errorf("%w: missing iv separator", common.ErrDecryptionFailed)
	}
	iv, err := base64.StdEncoding.DecodeString(ivStr)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: bad iv encoding", common.ErrDecryptionFailed)
	}
	ct, err := base64.StdEncoding.DecodeString(ctStr)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: bad ciphertext encoding", common.ErrDecryptionFailed)
	}
	return NewSymmetricEnvelope(iv, ct), nil
}

// ParseEnvelope builds an Envelope from a tag and its wire payload.
func ParseEnvelope(t EnvelopeType, payload string) (Envelope, error) {
	switch t {
	case EnvelopeSymmetric:
		return ParseSymmetricPayload(payload)
	case EnvelopeAsymmetric:
		ct, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("%w: bad ciphertext encoding", common.ErrDecryptionFailed)
		}
		return NewAsymmetricEnvelope(ct), nil
	default:
		return Envelope{}, fmt.Errorf("%w: unknown envelope type %q", common.ErrDecryptionFailed, t)
	}
}

type envelopeJSON struct {
	Type    EnvelopeType `json:"type"`
	Payload string       `json:"payload"`
}

// MarshalJSON encodes e as {"type": "aes"|"rsa", "payload": "..."}.
func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelopeJSON{Type: e.Type, Payload: e.Payload()})
}

// UnmarshalJSON accepts the tagged object form and, for records written
// before envelopes were tagged, a bare symmetric payload string.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		env, err := ParseSymmetricPayload(bare)
		if err != nil {
			return err
		}
		*e = env
		return nil
	}

	var tagged envelopeJSON
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	env, err := ParseEnvelope(tagged.Type, tagged.Payload)
	if err != nil {
		return err
	}
	*e = env
	return nil
}
