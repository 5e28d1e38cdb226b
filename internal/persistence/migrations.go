package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spec-kit/identity-service/internal/domain"
)

// RunMigrations creates or updates the schema and seeds the system roles.
func RunMigrations(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	if db == nil {
		logger.Warn("no database available; skipping migrations")
		return nil
	}

	models := []any{&domain.Role{}, &domain.User{}, &domain.LoginLog{}, &domain.AuditLog{}}
	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	roles := domain.SystemRoles()
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error; err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	// explicit ids bypass the serial sequence
	if db.Dialector.Name() == "postgres" {
		const resync = `SELECT setval(pg_get_serial_sequence('roles', 'id'), COALESCE((SELECT MAX(id) FROM roles), 1))`
		if err := db.WithContext(ctx).Exec(resync).Error; err != nil {
			return fmt.Errorf("resync role sequence: %w", err)
		}
	}

	logger.Info("migrations applied", zap.Int("models", len(models)), zap.Int("seeded_roles", len(roles)))
	return nil
}
