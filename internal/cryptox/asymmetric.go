package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/common"
)

// RSAKeyBits is the modulus size of generated blind-save key pairs.
const RSAKeyBits = 2048

// GenerateAsymmetricKeyPair creates a new RSA key pair for blind saving.
func GenerateAsymmetricKeyPair() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, RSAKeyBits)
}

// MaxAsymmetricPlaintext is the longest plaintext RSA-OAEP (SHA-256)
// accepts under pub.
func MaxAsymmetricPlaintext(pub *rsa.PublicKey) int {
	return pub.Size() - 2*sha256.Size - 2
}

// EncryptAsymmetric encrypts plaintext with RSA-OAEP (SHA-256).
func EncryptAsymmetric(plaintext []byte, pub *rsa.PublicKey) ([]byte, error) {
	if pub == nil {
		return nil, fmt.Errorf("nil public key")
	}
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
}

// DecryptAsymmetric decrypts an RSA-OAEP (SHA-256) ciphertext. Failures are
// reported as common.ErrDecryptionFailed.
func DecryptAsymmetric(ciphertext []byte, priv *rsa.PrivateKey) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", common.ErrDecryptionFailed)
	}
	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
