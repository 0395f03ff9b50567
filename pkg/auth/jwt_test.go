package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(7, "Sari", "kasir")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "Sari", claims.Name)
	assert.Equal(t, "kasir", claims.Role)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	token, err := GenerateToken(7, "Sari", "kasir")
	require.NoError(t, err)

	_, err = ValidateToken(token + "x")
	assert.Error(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 7, Role: "admin"}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = ValidateToken(forged)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("rahasia")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "rahasia"))
	assert.False(t, CheckPassword(hash, "salah"))
}
