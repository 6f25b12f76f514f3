package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, subject string, method jwt.SigningMethod, expiry time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiry),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	a := NewAuthService("secret")
	tokenStr := signToken(t, "secret", "user-1", jwt.SigningMethodHS256, time.Now().Add(time.Hour))

	userID, err := a.ValidateToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	a := NewAuthService("secret")
	tokenStr := signToken(t, "other", "user-1", jwt.SigningMethodHS256, time.Now().Add(time.Hour))

	_, err := a.ValidateToken(tokenStr)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	a := NewAuthService("secret")
	tokenStr := signToken(t, "secret", "user-1", jwt.SigningMethodHS256, time.Now().Add(-time.Hour))

	_, err := a.ValidateToken(tokenStr)
	assert.Error(t, err)
}

func TestValidateTokenMissingSubject(t *testing.T) {
	a := NewAuthService("secret")
	tokenStr := signToken(t, "secret", "", jwt.SigningMethodHS256, time.Now().Add(time.Hour))

	_, err := a.ValidateToken(tokenStr)
	assert.Error(t, err)
}
