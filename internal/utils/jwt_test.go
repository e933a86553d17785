package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	SetJWTSecret("super-secret-key")

	token, err := GenerateToken("user-123", "Alice", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "Alice", claims.Name)
}

func TestExpiredToken(t *testing.T) {
	SetJWTSecret("super-secret-key")

	token, err := GenerateToken("u1", "user", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestInvalidSignature(t *testing.T) {
	SetJWTSecret("secret1")
	token, err := GenerateToken("u1", "user", time.Hour)
	require.NoError(t, err)

	SetJWTSecret("secret2")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestMissingSecret(t *testing.T) {
	SetJWTSecret("")

	_, err := GenerateToken("u1", "user", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = ValidateToken("anything")
	assert.ErrorIs(t, err, ErrNoSecret)
}
