package cryptox

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
)

// jwk is the subset of RFC 7517 needed for an AES-GCM "oct" key.
type jwk struct {
	Kty    string   `json:"kty"`
	K      string   `json:"k"`
	Alg    string   `json:"alg,omitempty"`
	Ext    bool     `json:"ext"`
	KeyOps []string `json:"key_ops,omitempty"`
}

// ExportSymmetricKey serializes a master key as a JWK "oct" document.
func ExportSymmetricKey(key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length %d", len(key))
	}
	return json.Marshal(jwk{
		Kty:    "oct",
		K:      base64.RawURLEncoding.EncodeToString(key),
		Alg:    "A256GCM",
		Ext:    true,
		KeyOps: []string{"encrypt", "decrypt"},
	})
}

// ImportSymmetricKey parses a JWK produced by ExportSymmetricKey.
func ImportSymmetricKey(data []byte) ([]byte, error) {
	var k jwk
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("parse jwk: %w", err)
	}
	if k.Kty != "oct" {
		return nil, fmt.Errorf("unexpected jwk kty %q", k.Kty)
	}
	key, err := base64.RawURLEncoding.DecodeString(k.K)
	if err != nil {
		return nil, fmt.Errorf("decode jwk key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length %d", len(key))
	}
	return key, nil
}

// ExportPublicKey encodes pub as a PKIX "PUBLIC KEY" PEM block.
func ExportPublicKey(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// ImportPublicKey parses a PEM block produced by ExportPublicKey.
func ImportPublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, errors.New("no public key PEM block")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected public key type %T", parsed)
	}
	return pub, nil
}

// ExportPrivateKey encodes priv as a PKCS#8 "PRIVATE KEY" PEM block.
// The result is secret material; callers must encrypt it before storing it
// durably.
func ExportPrivateKey(priv *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// ImportPrivateKey parses a PEM block produced by ExportPrivateKey.
func ImportPrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PRIVATE KEY" {
		return nil, errors.New("no private key PEM block")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("unexpected private key type %T", parsed)
	}
	return priv, nil
}
