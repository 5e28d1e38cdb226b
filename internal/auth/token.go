package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/domain"
)

// refreshTokenBytes is 512 bits of entropy per refresh token.
const refreshTokenBytes = 64

// ErrMissingSigningKey is returned when no signing secret is configured.
var ErrMissingSigningKey = errors.New("jwt signing key not configured")

// TokenConfig is the immutable issuer configuration.
type TokenConfig struct {
	Secret          string
	Issuer          string
	Audience        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// TokenConfigFrom derives a TokenConfig from service configuration, applying
// the 60 minute and 7 day defaults to non-positive values.
func TokenConfigFrom(cfg config.AuthConfig) TokenConfig {
	accessMinutes := cfg.AccessTokenTTLMinutes
	if accessMinutes <= 0 {
		accessMinutes = 60
	}
	refreshDays := cfg.RefreshTokenTTLDays
	if refreshDays <= 0 {
		refreshDays = 7
	}
	return TokenConfig{
		Secret:          cfg.JWTSecret,
		Issuer:          cfg.Issuer,
		Audience:        cfg.Audience,
		AccessTokenTTL:  time.Duration(accessMinutes) * time.Minute,
		RefreshTokenTTL: time.Duration(refreshDays) * 24 * time.Hour,
	}
}

// TokenManager handles issuing and validating JWT access tokens and opaque
// refresh tokens.
type TokenManager struct {
	secret          []byte
	issuer          string
	audience        string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	now             func() time.Time
}

// TokenOption customises a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		tm.now = now
	}
}

// NewTokenManager builds a new manager. It fails when the secret is empty.
func NewTokenManager(cfg TokenConfig, opts ...TokenOption) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSigningKey
	}
	tm := &TokenManager{
		secret:          []byte(cfg.Secret),
		issuer:          cfg.Issuer,
		audience:        cfg.Audience,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// Claims describes JWT payload.
type Claims struct {
	Email  string            `json:"email"`
	Name   string            `json:"name"`
	Role   string            `json:"role"`
	RoleID int               `json:"role_id"`
	Status domain.UserStatus `json:"status"`
	jwt.RegisteredClaims
}

// IssueAccessToken builds and signs an access token for user. A nil role is
// reported as "Unknown" with the user's role id.
func (tm *TokenManager) IssueAccessToken(user *domain.User, role *domain.Role) (string, time.Time, error) {
	now := tm.now()
	expiresAt := jwt.NewNumericDate(now.Add(tm.accessTokenTTL))

	roleName := domain.RoleNameUnknown
	if role != nil {
		roleName = role.Name
	}

	claims := &Claims{
		Email:  user.Email,
		Name:   user.DisplayName(),
		Role:   roleName,
		RoleID: user.RoleID,
		Status: user.Status,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			Issuer:    tm.issuer,
			Audience:  jwt.ClaimStrings{tm.audience},
			ExpiresAt: expiresAt,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt.Time, nil
}

// IssueRefreshToken returns a random URL-safe opaque token.
func (tm *TokenManager) IssueRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RefreshTokenExpiry returns the expiry for a refresh token issued now.
func (tm *TokenManager) RefreshTokenExpiry() time.Time {
	return tm.now().Add(tm.refreshTokenTTL).UTC()
}

// ParseToken validates signature, issuer, audience and expiry and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithAudience(tm.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
