package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenCarriesIdentitySubject(t *testing.T) {
	tok, err := NewAccessToken("secret", "0xALICE", 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	parsed, err := jwt.Parse(tok.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "0xALICE", claims["sub"])
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("secret", "0xALICE", 15)
	require.NoError(t, err)

	_, err = jwt.Parse(tok.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("other"), nil
	})
	assert.Error(t, err)
}

func TestRefreshTokenIsRandomAndHashable(t *testing.T) {
	a, err := NewRefreshToken(30)
	require.NoError(t, err)
	b, err := NewRefreshToken(30)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 96) // 48 bytes hex-encoded
	assert.NotEqual(t, a.Raw, b.Raw)

	// hashing is deterministic and never exposes the raw token
	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
	assert.NotEqual(t, a.Raw, HashRefreshRaw(a.Raw))
	assert.Len(t, HashRefreshRaw(a.Raw), 64) // sha256 hex
}

func TestSecretHashRoundTrip(t *testing.T) {
	hash, err := HashSecret("hunter2", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifySecret(hash, "hunter2"))
	assert.False(t, VerifySecret(hash, "hunter3"))
	assert.False(t, VerifySecret("not-a-hash", "hunter2"))
}
