package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spec-kit/identity-service/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.User, error)
	GetAll(ctx context.Context) ([]domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a GORM-backed implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return mapWriteError(r.db.WithContext(ctx).Create(user).Error)
}

// Update writes every mutable column. It returns ErrNotFound when no row
// matches user.ID.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if !validID(user.ID) {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"email":                    user.Email,
		"password_hash":            user.PasswordHash,
		"full_name":                user.FullName,
		"phone":                    user.Phone,
		"role_id":                  user.RoleID,
		"status":                   user.Status,
		"refresh_token":            user.RefreshToken,
		"refresh_token_expires_at": user.RefreshTokenExpiresAt,
		"email_verified":           user.EmailVerified,
		"updated_at":               user.UpdatedAt,
	})
	if res.Error != nil {
		return mapWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns ErrNotFound for ids that are not UUIDs; postgres would
// reject them as malformed input instead.
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) GetByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	return r.first(ctx, "refresh_token = ?", token)
}

func (r *userRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
