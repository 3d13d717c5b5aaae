package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(secretKey, tokenTTL)

	tests := []struct {
		name     string
		username string
		role     string
	}{
		{
			name:     "admin user",
			username: "E-sellers",
			role:     "ADMIN",
		},
		{
			name:     "client user",
			username: "User",
			role:     "CLIENT",
		},
		{
			name:     "client with numbers in username",
			username: "store42",
			role:     "CLIENT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.username, tt.role)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.username, claims.Username)
			assert.Equal(t, tt.role, claims.Role)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewJWTMaker(secretKey, 15*time.Minute)

	validToken, err := maker.GenerateToken("User", "CLIENT")
	require.NoError(t, err)

	otherMaker := NewJWTMaker("another_secret_key", 15*time.Minute)
	foreignToken, err := otherMaker.GenerateToken("User", "CLIENT")
	require.NoError(t, err)

	expiredMaker := NewJWTMaker(secretKey, -time.Minute)
	expiredToken, err := expiredMaker.GenerateToken("User", "CLIENT")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage token", token: "not.a.token"},
		{name: "empty token", token: ""},
		{name: "wrong signature", token: foreignToken},
		{name: "expired token", token: expiredToken},
		{name: "truncated token", token: validToken[:len(validToken)-5]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}
