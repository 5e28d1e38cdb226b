package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/repository"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// Actor identifies the administrator performing a change.
type Actor struct {
	UserID    string
	IPAddress string
}

func (a Actor) event() events.Actor {
	return events.Actor{UserID: optional(a.UserID), IP: optional(a.IPAddress)}
}

// CreateUserInput is the administrative account creation payload.
type CreateUserInput struct {
	FullName string
	Email    string
	Password string
	RoleName string
	Phone    *string
}

// UpdateUserInput is a partial update. Nil fields are left unchanged.
type UpdateUserInput struct {
	Email    *string
	FullName *string
	Phone    *string
	Password *string
	Status   *domain.UserStatus
}

// AdminCreateUser creates an active account with the named role.
func (s *AuthService) AdminCreateUser(ctx context.Context, actor Actor, in CreateUserInput) (*domain.UserProfile, error) {
	required := []struct{ field, value string }{
		{"full_name", in.FullName},
		{"email", in.Email},
		{"password", in.Password},
		{"role_name", in.RoleName},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, apperrors.NewFieldRequired(r.field)
		}
	}

	email := strings.TrimSpace(in.Email)
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apperrors.NewDuplicateEmail(email)
	}

	roleName := strings.TrimSpace(in.RoleName)
	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewRoleNotFound(roleName)
		}
		return nil, fmt.Errorf("lookup role: %w", err)
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:         email,
		PasswordHash:  hash,
		FullName:      optional(in.FullName),
		RoleID:        role.ID,
		Status:        domain.UserStatusActive,
		EmailVerified: false,
	}
	if in.Phone != nil {
		user.Phone = optional(*in.Phone)
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewDuplicateEmail(email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	profile := domain.NewUserProfile(user, role)
	s.publishEvent(ctx, events.Event{
		Type:   events.EventUserCreated,
		UserID: user.ID,
		Actor:  actor.event(),
		Payload: events.UserChangedPayload{
			Action:      domain.AuditActionCreate,
			After:       profile,
			Description: fmt.Sprintf("created user %s with role %s", user.Email, role.Name),
		},
	})

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("actor", actor.UserID))
	return &profile, nil
}

// AdminUpdateUser applies a partial update to an account.
func (s *AuthService) AdminUpdateUser(ctx context.Context, actor Actor, id string, in UpdateUserInput) (*domain.UserProfile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUserNotFound(id)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	before := domain.NewUserProfile(user, s.resolveRole(ctx, user.RoleID))

	var changed []string

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return nil, apperrors.NewFieldRequired("email")
		}
		if email != user.Email {
			owner, err := s.users.GetByEmail(ctx, email)
			switch {
			case err == nil && owner.ID != user.ID:
				return nil, apperrors.NewDuplicateEmail(email)
			case err != nil && !errors.Is(err, repository.ErrNotFound):
				return nil, fmt.Errorf("check email: %w", err)
			}
			user.Email = email
			changed = append(changed, "email")
		}
	}

	if in.FullName != nil {
		if name := optional(*in.FullName); name != nil {
			user.FullName = name
			changed = append(changed, "full_name")
		}
	}

	if in.Phone != nil {
		if phone := optional(*in.Phone); phone != nil {
			user.Phone = phone
			changed = append(changed, "phone")
		}
	}

	passwordChanged := false
	if in.Password != nil {
		if strings.TrimSpace(*in.Password) == "" {
			return nil, apperrors.NewFieldRequired("password")
		}
		hash, err := s.hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		passwordChanged = true
		changed = append(changed, "password")
	}

	statusChanged := false
	if in.Status != nil {
		status := domain.UserStatus(strings.ToUpper(strings.TrimSpace(string(*in.Status))))
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"field": "status", "value": string(*in.Status)})
		}
		if status != user.Status {
			user.Status = status
			statusChanged = true
			changed = append(changed, "status")
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewUserNotFound(id)
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.NewDuplicateEmail(user.Email)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	after := domain.NewUserProfile(user, s.resolveRole(ctx, user.RoleID))
	s.publishEvent(ctx, events.Event{
		Type:   events.EventUserUpdated,
		UserID: user.ID,
		Actor:  actor.event(),
		Payload: events.UserChangedPayload{
			Action:      updateAction(user.Status, statusChanged, passwordChanged, len(changed)),
			Before:      &before,
			After:       after,
			Description: describeChanges(changed),
		},
	})

	s.logger.Info("user updated",
		zap.String("user_id", user.ID),
		zap.String("actor", actor.UserID),
		zap.Strings("fields", changed))
	return &after, nil
}

// updateAction picks the most specific audit action for an update.
func updateAction(status domain.UserStatus, statusChanged, passwordChanged bool, fields int) domain.AuditAction {
	switch {
	case statusChanged && status == domain.UserStatusActive:
		return domain.AuditActionActivate
	case statusChanged && status == domain.UserStatusInactive:
		return domain.AuditActionDeactivate
	case statusChanged && status == domain.UserStatusSuspended:
		return domain.AuditActionSuspend
	case passwordChanged && fields == 1:
		return domain.AuditActionResetPassword
	default:
		return domain.AuditActionUpdate
	}
}

func describeChanges(fields []string) string {
	if len(fields) == 0 {
		return "no changes"
	}
	return "updated " + strings.Join(fields, ", ")
}

// ListUsers returns every account with its role inlined.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.UserProfile, error) {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	byID := make(map[int]*domain.Role)
	roles, err := s.roles.GetAll(ctx)
	if err != nil {
		s.logger.Warn("roles unavailable for user listing", zap.Error(err))
	}
	for i := range roles {
		byID[roles[i].ID] = &roles[i]
	}

	profiles := make([]domain.UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, domain.NewUserProfile(&users[i], byID[users[i].RoleID]))
	}
	return profiles, nil
}

// GetUserByID returns one account's profile.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUserNotFound(id)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	profile := domain.NewUserProfile(user, s.resolveRole(ctx, user.RoleID))
	return &profile, nil
}

// ListLoginHistory returns an account's most recent login attempts.
func (s *AuthService) ListLoginHistory(ctx context.Context, userID string, limit int) ([]domain.LoginLog, error) {
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.loginLogs.ListByUser(ctx, userID, limit)
}

// RecentFailedLogins returns failed attempts within window. A non-positive
// window uses the store default of 30 minutes.
func (s *AuthService) RecentFailedLogins(ctx context.Context, userID string, window time.Duration) ([]domain.LoginLog, error) {
	var since time.Time
	if window > 0 {
		since = s.now().UTC().Add(-window)
	}
	return s.loginLogs.RecentFailed(ctx, userID, since)
}

// ListAuditTrail returns administrative changes recorded against an account.
func (s *AuthService) ListAuditTrail(ctx context.Context, userID string, limit int) ([]domain.AuditLog, error) {
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.auditLogs.ListByUser(ctx, userID, limit)
}

// ListRoles returns the role directory.
func (s *AuthService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.roles.GetAll(ctx)
}

// DeleteRole removes a role no account is assigned to.
func (s *AuthService) DeleteRole(ctx context.Context, actor Actor, id int) error {
	err := s.roles.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrRoleInUse):
		return apperrors.NewConflict("role is assigned to users", map[string]any{"role_id": id})
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("role", map[string]any{"id": id})
	case err != nil:
		return fmt.Errorf("delete role: %w", err)
	}
	s.logger.Info("role deleted", zap.Int("role_id", id), zap.String("actor", actor.UserID))
	return nil
}
