package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/common"
)

// NonceSize is the AES-GCM nonce length.
const NonceSize = 12

// EncryptSymmetric encrypts plaintext with AES-GCM under key.
//
// A fresh random 12-byte nonce is generated for each call and returned as iv
// next to the ciphertext (which carries the authentication tag).
//
// Example:
//
//	iv, ct, err := EncryptSymmetric([]byte("s3cret"), key)
//	if err != nil {
//	    return err
//	}
//	plain, err := DecryptSymmetric(iv, ct, key)
func EncryptSymmetric(plaintext, key []byte) (iv, ciphertext []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	iv = make([]byte, NonceSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, err
	}

	ciphertext = aesgcm.Seal(nil, iv, plaintext, nil)
	return iv, ciphertext, nil
}

// DecryptSymmetric reverses EncryptSymmetric. Any failure (wrong key, tampered
// data, malformed nonce) is reported as common.ErrDecryptionFailed and no
// plaintext is returned.
func DecryptSymmetric(iv, ciphertext, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	if len(iv) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce length %d", common.ErrDecryptionFailed, len(iv))
	}

	plaintext, err := aesgcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
