// Package cryptox holds the stateless cryptographic primitives of the vault:
// key derivation, password verification hashes, AES-GCM and RSA-OAEP
// envelopes, key (de)serialization and password generation.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// KDF names a password-based key derivation function.
type KDF string

const (
	KDFPBKDF2   KDF = "pbkdf2"
	KDFArgon2id KDF = "argon2id"
)

const (
	// KeySize is the AES-256 key length produced by DeriveKey.
	KeySize = 32
	// SaltSize is the length of freshly generated vault salts.
	SaltSize = 16
	// PBKDF2Iterations is fixed; changing it breaks existing vaults.
	PBKDF2Iterations = 100000
)

// ParseKDF validates a configured KDF name. An empty name selects PBKDF2.
func ParseKDF(s string) (KDF, error) {
	switch KDF(s) {
	case "", KDFPBKDF2:
		return KDFPBKDF2, nil
	case KDFArgon2id:
		return KDFArgon2id, nil
	default:
		return "", fmt.Errorf("unsupported kdf %q", s)
	}
}

// DeriveKey derives a KeySize symmetric key from password and salt.
// The result is deterministic for a given (kdf, password, salt).
func DeriveKey(kdf KDF, password, salt []byte) ([]byte, error) {
	switch kdf {
	case "", KDFPBKDF2:
		return pbkdf2.Key(password, salt, PBKDF2Iterations, KeySize, sha256.New), nil
	case KDFArgon2id:
		return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize), nil
	default:
		return nil, fmt.Errorf("unsupported kdf %q", kdf)
	}
}

// HashPassword computes base64(SHA-256(password || salt)).
//
// The digest is independent of DeriveKey output so the stored verification
// hash never reveals key material.
func HashPassword(password, salt []byte) string {
	h := sha256.New()
	h.Write(password)
	h.Write(salt)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// VerifyPassword reports whether password hashes to the stored digest.
func VerifyPassword(password, salt []byte, storedHash string) bool {
	candidate := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(storedHash)) == 1
}
