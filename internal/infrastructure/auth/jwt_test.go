package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "hms-backend-test",
	})
}

func TestJWTService_GenerateToken(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "Meera Pillai", RoleBilling)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "Meera Pillai", claims.Name)
	assert.Equal(t, RoleBilling, claims.Role)
	assert.Equal(t, "hms-backend-test", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTService_ValidateToken(t *testing.T) {
	svc := newTestJWTService()

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "a-completely-different-32-char-key",
			AccessTokenExpiration: 15 * time.Minute,
			Issuer:                "hms-backend-test",
		})
		token, err := other.GenerateToken(uuid.New(), "x", RoleAdmin)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			AccessTokenExpiration: -time.Minute,
			Issuer:                "hms-backend-test",
		})
		token, err := expired.GenerateToken(uuid.New(), "x", RoleDoctor)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestClaims_GetUserUUID(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "Meera Pillai", RoleFrontDesk)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	parsed, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestClaims_HasRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		required []string
		expected bool
	}{
		{"exact match", RoleBilling, []string{RoleBilling}, true},
		{"one of several", RoleDoctor, []string{RoleBilling, RoleDoctor}, true},
		{"no match", RoleFrontDesk, []string{RoleBilling}, false},
		{"admin passes everything", RoleAdmin, []string{RoleBilling}, true},
		{"empty requirement", RoleFrontDesk, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := &Claims{Role: tt.role}
			assert.Equal(t, tt.expected, claims.HasRole(tt.required...))
		})
	}
}
