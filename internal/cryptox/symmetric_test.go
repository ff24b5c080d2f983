package cryptox

import (
	"testing"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymmetric_RoundTrip(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)

	for _, msg := range []string{"", "pw1", "пароль with unicode", string(make([]byte, 4096))} {
		iv, ct, err := EncryptSymmetric([]byte(msg), key)
		require.NoError(t, err)
		require.Len(t, iv, NonceSize)

		plain, err := DecryptSymmetric(iv, ct, key)
		require.NoError(t, err)
		assert.Equal(t, msg, string(plain))
	}
}

func TestSymmetric_FreshNoncePerCall(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)

	iv1, ct1, err := EncryptSymmetric([]byte("same"), key)
	require.NoError(t, err)
	iv2, ct2, err := EncryptSymmetric([]byte("same"), key)
	require.NoError(t, err)

	assert.NotEqual(t, iv1, iv2)
	assert.NotEqual(t, ct1, ct2)
}

func TestDecryptSymmetric_Failures(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	otherKey := common.GenerateRandByteArray(KeySize)

	iv, ct, err := EncryptSymmetric([]byte("secret"), key)
	require.NoError(t, err)

	tampered := append([]byte(nil), ct...)
	tampered[0] ^= 0xFF

	badIV := append([]byte(nil), iv...)
	badIV[3] ^= 0x01

	tests := []struct {
		name string
		iv   []byte
		ct   []byte
		key  []byte
	}{
		{"wrong key", iv, ct, otherKey},
		{"tampered ciphertext", iv, tampered, key},
		{"corrupted iv", badIV, ct, key},
		{"short iv", iv[:4], ct, key},
		{"truncated ciphertext", iv, ct[:3], key},
		{"invalid key size", iv, ct, []byte("short")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plain, err := DecryptSymmetric(tt.iv, tt.ct, tt.key)
			require.ErrorIs(t, err, common.ErrDecryptionFailed)
			assert.Nil(t, plain)
		})
	}
}
