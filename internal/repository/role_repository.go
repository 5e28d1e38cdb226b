package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/spec-kit/identity-service/internal/domain"
)

// RoleRepository exposes the role directory.
type RoleRepository interface {
	GetByID(ctx context.Context, id int) (*domain.Role, error)
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	GetAll(ctx context.Context) ([]domain.Role, error)
}

// RoleAdminRepository adds the mutating operations used by maintenance paths.
type RoleAdminRepository interface {
	RoleRepository
	Delete(ctx context.Context, id int) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository returns a GORM-backed role directory.
func NewRoleRepository(db *gorm.DB) RoleAdminRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) GetByID(ctx context.Context, id int) (*domain.Role, error) {
	var role domain.Role
	if err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &role, nil
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role
	if err := r.db.WithContext(ctx).First(&role, "name = ?", name).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &role, nil
}

func (r *roleRepository) GetAll(ctx context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// Delete removes a role no user references. It returns ErrRoleInUse otherwise.
func (r *roleRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assigned int64
		if err := tx.Model(&domain.User{}).Where("role_id = ?", id).Count(&assigned).Error; err != nil {
			return err
		}
		if assigned > 0 {
			return ErrRoleInUse
		}
		res := tx.Delete(&domain.Role{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
