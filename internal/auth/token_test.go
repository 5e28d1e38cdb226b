package auth

import (
	"encoding/base64"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/domain"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{
		Secret:          "unit-test-secret",
		Issuer:          "IdentityService",
		Audience:        "IdentityServiceClient",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func testUser() *domain.User {
	name := "Alice"
	return &domain.User{
		ID:       "0b8e8f4e-3a57-4c43-9d7f-0d5b6c7a8e90",
		Email:    "a@x.com",
		FullName: &name,
		RoleID:   domain.RoleIDCustomer,
		Status:   domain.UserStatusActive,
	}
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	cfg := testTokenConfig()
	cfg.Secret = ""
	_, err := NewTokenManager(cfg)
	assert.ErrorIs(t, err, ErrMissingSigningKey)
}

func TestTokenConfigFromDefaults(t *testing.T) {
	cfg := TokenConfigFrom(config.AuthConfig{JWTSecret: "s", Issuer: "iss", Audience: "aud"})
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)

	cfg = TokenConfigFrom(config.AuthConfig{JWTSecret: "s", AccessTokenTTLMinutes: 15, RefreshTokenTTLDays: 30})
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
}

func TestIssueAccessTokenClaims(t *testing.T) {
	tm, err := NewTokenManager(testTokenConfig())
	require.NoError(t, err)

	user := testUser()
	role := &domain.Role{ID: domain.RoleIDCustomer, Name: domain.RoleNameCustomer}

	token, expiresAt, err := tm.IssueAccessToken(user, role)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, domain.RoleNameCustomer, claims.Role)
	assert.Equal(t, domain.RoleIDCustomer, claims.RoleID)
	assert.Equal(t, domain.UserStatusActive, claims.Status)
	assert.Equal(t, "IdentityService", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"IdentityServiceClient"}, claims.Audience)
	assert.NotEmpty(t, claims.ID)
}

func TestIssueAccessTokenUniqueJTIAndFallbacks(t *testing.T) {
	tm, err := NewTokenManager(testTokenConfig())
	require.NoError(t, err)

	user := testUser()
	user.FullName = nil

	first, _, err := tm.IssueAccessToken(user, nil)
	require.NoError(t, err)
	second, _, err := tm.IssueAccessToken(user, nil)
	require.NoError(t, err)

	c1, err := tm.ParseToken(first)
	require.NoError(t, err)
	c2, err := tm.ParseToken(second)
	require.NoError(t, err)

	assert.NotEqual(t, c1.ID, c2.ID)
	assert.Equal(t, "a@x.com", c1.Name, "display name falls back to email")
	assert.Equal(t, domain.RoleNameUnknown, c1.Role)
}

func TestParseTokenRejects(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tm, err := NewTokenManager(testTokenConfig(), WithClock(func() time.Time { return issued }))
	require.NoError(t, err)
	token, _, err := tm.IssueAccessToken(testUser(), nil)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later, err := NewTokenManager(testTokenConfig(), WithClock(func() time.Time { return issued.Add(2 * time.Hour) }))
		require.NoError(t, err)
		_, err = later.ParseToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		cfg := testTokenConfig()
		cfg.Secret = "another-secret"
		other, err := NewTokenManager(cfg, WithClock(func() time.Time { return issued }))
		require.NoError(t, err)
		_, err = other.ParseToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("wrong audience", func(t *testing.T) {
		cfg := testTokenConfig()
		cfg.Audience = "someone-else"
		other, err := NewTokenManager(cfg, WithClock(func() time.Time { return issued }))
		require.NoError(t, err)
		_, err = other.ParseToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.ParseToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestIssueRefreshToken(t *testing.T) {
	tm, err := NewTokenManager(testTokenConfig())
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		token, err := tm.IssueRefreshToken()
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		assert.Len(t, raw, refreshTokenBytes)

		_, dup := seen[token]
		assert.False(t, dup)
		seen[token] = struct{}{}
	}
}

func TestRefreshTokenExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tm, err := NewTokenManager(testTokenConfig(), WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	assert.Equal(t, now.Add(7*24*time.Hour), tm.RefreshTokenExpiry())
}
