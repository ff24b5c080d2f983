package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken("cli", secret, time.Hour)
	require.NoError(t, err)

	client, err := ClientFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "cli", client)
}

func TestClientFromToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken("cli", secret, -1*time.Second)
	require.NoError(t, err)

	_, err = ClientFromToken(tok, secret)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestClientFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("cli", []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = ClientFromToken(tok, []byte("wrong-secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestClientFromToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ClientFromToken("not.a.jwt", []byte("k"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestClientFromToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Client:           "cli",
	})
	s, err := tok.SignedString(secret)
	require.NoError(t, err)

	_, err = ClientFromToken(s, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
