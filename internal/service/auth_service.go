package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/observability"
	"github.com/spec-kit/identity-service/internal/repository"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// RegistrationMessage is returned to self-registered users.
const RegistrationMessage = "Registration successful. Please verify your email."

// Login log failure reasons.
const (
	reasonUserNotFound    = "User not found"
	reasonInvalidPassword = "Invalid password"
)

// AuthService coordinates registration, login, token lifecycle and account
// administration.
type AuthService struct {
	users      repository.UserRepository
	roles      repository.RoleAdminRepository
	loginLogs  repository.LoginLogRepository
	auditLogs  repository.AuditLogRepository
	hasher     *auth.PasswordHasher
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	RoleRepo     repository.RoleAdminRepository
	LoginLogRepo repository.LoginLogRepository
	AuditLogRepo repository.AuditLogRepository
	Hasher       *auth.PasswordHasher
	Tokens       *auth.TokenManager
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		loginLogs:  deps.LoginLogRepo,
		auditLogs:  deps.AuditLogRepo,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        now,
	}
}

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	FullName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// RegisterResult identifies the new account.
type RegisterResult struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// LoginInput carries credentials and client metadata.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is a token pair plus the caller's profile.
type LoginResult struct {
	domain.TokenPair
	User domain.UserProfile `json:"user"`
}

// Register creates a customer account pending email verification.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	email := strings.TrimSpace(in.Email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apperrors.NewDuplicateEmail(email)
	}
	if in.Password != in.ConfirmPassword {
		return nil, apperrors.NewPasswordMismatch()
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:         email,
		PasswordHash:  hash,
		FullName:      optional(in.FullName),
		Phone:         optional(in.Phone),
		RoleID:        domain.RoleIDCustomer,
		Status:        domain.UserStatusActive,
		EmailVerified: false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewDuplicateEmail(email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventUserRegistered,
		UserID:  user.ID,
		Payload: events.UserRegisteredPayload{Email: user.Email, FullName: user.FullName},
	})

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return &RegisterResult{UserID: user.ID, Message: RegistrationMessage}, nil
}

// Login verifies credentials and issues a token pair. Unknown emails and wrong
// passwords fail identically. Every outcome is written to the login log.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.TrimSpace(in.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordLogin(ctx, nil, email, in, domain.LoginStatusFailed, reasonUserNotFound)
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	verification := s.hasher.Verify(in.Password, user.PasswordHash)
	if !verification.OK() {
		s.recordLogin(ctx, &user.ID, email, in, domain.LoginStatusFailed, reasonInvalidPassword)
		return nil, apperrors.NewInvalidCredentials()
	}

	if user.Status != domain.UserStatusActive {
		s.recordLogin(ctx, &user.ID, email, in, domain.LoginStatusBlocked, "Account is "+string(user.Status))
		return nil, apperrors.NewAccountNotActive(string(user.Status))
	}

	if verification == auth.VerificationSuccessRehashNeeded {
		s.upgradeHash(user, in.Password)
	}

	role := s.resolveRole(ctx, user.RoleID)
	pair, err := s.issuePair(ctx, user, role)
	if err != nil {
		return nil, err
	}

	s.recordLogin(ctx, &user.ID, email, in, domain.LoginStatusSuccess, "")
	s.metrics.RecordTokenIssued("password")

	return &LoginResult{TokenPair: *pair, User: domain.NewUserProfile(user, role)}, nil
}

// Logout forgets the user's refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	user, err := s.userByRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}

	user.ClearRefreshToken()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	s.logger.Info("user logged out", zap.String("user_id", user.ID))
	return nil
}

// RefreshToken rotates a valid refresh token into a new token pair. The old
// token stops working as soon as the new one is stored.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	user, err := s.userByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if user.RefreshTokenExpiresAt == nil || !user.RefreshTokenExpiresAt.After(s.now()) {
		return nil, apperrors.NewTokenExpired()
	}
	if user.Status != domain.UserStatusActive {
		return nil, apperrors.NewAccountNotActive(string(user.Status))
	}

	pair, err := s.issuePair(ctx, user, s.resolveRole(ctx, user.RoleID))
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTokenIssued("refresh")
	return pair, nil
}

func (s *AuthService) userByRefreshToken(ctx context.Context, refreshToken string) (*domain.User, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.NewMissingToken()
	}
	user, err := s.users.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInvalidToken()
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	return user, nil
}

// issuePair signs an access token, mints a refresh token and persists the
// refresh token with any other pending changes on user.
func (s *AuthService) issuePair(ctx context.Context, user *domain.User, role *domain.Role) (*domain.TokenPair, error) {
	access, accessExp, err := s.tokens.IssueAccessToken(user, role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken()
	if err != nil {
		return nil, err
	}
	refreshExp := s.tokens.RefreshTokenExpiry()

	user.SetRefreshToken(refresh, refreshExp)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

// upgradeHash swaps in a hash under the current scheme. It is stored with the
// next write to user; a failure keeps the old hash.
func (s *AuthService) upgradeHash(user *domain.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("password rehash failed", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	user.PasswordHash = hash
}

// recordLogin appends to the login log. Failures are logged and swallowed.
func (s *AuthService) recordLogin(ctx context.Context, userID *string, email string, in LoginInput, status domain.LoginStatus, reason string) {
	s.metrics.RecordLogin(string(status))

	entry := &domain.LoginLog{
		UserID:        userID,
		Email:         email,
		LoginAt:       s.now().UTC(),
		IPAddress:     optional(in.IPAddress),
		UserAgent:     optional(in.UserAgent),
		Status:        status,
		FailureReason: optional(reason),
	}
	if err := s.loginLogs.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record login attempt",
			zap.String("email", email),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

// resolveRole loads a role, returning nil when it cannot be resolved.
func (s *AuthService) resolveRole(ctx context.Context, roleID int) *domain.Role {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		s.logger.Debug("role not resolved", zap.Int("role_id", roleID), zap.Error(err))
		return nil
	}
	return role
}

func (s *AuthService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// hashPassword hashes a new password, reporting unusable input as a
// validation error on the password field.
func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	switch {
	case err == nil:
		return hash, nil
	case errors.Is(err, auth.ErrEmptyPassword):
		return "", apperrors.NewFieldRequired("password")
	case errors.Is(err, auth.ErrPasswordTooLong):
		return "", apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
	}
	return "", fmt.Errorf("hash password: %w", err)
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
