package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/spec-kit/identity-service/internal/domain"
)

const defaultAuditLimit = 100

// AuditLogRepository is the append-only audit trail.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.AuditLog, error)
	ListByPerformer(ctx context.Context, performerID string, limit int) ([]domain.AuditLog, error)
	ListByAction(ctx context.Context, action domain.AuditAction, limit int) ([]domain.AuditLog, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository returns a GORM-backed audit trail.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	if entry.PerformedAt.IsZero() {
		entry.PerformedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.AuditLog, error) {
	return r.list(ctx, limit, "user_id = ?", userID)
}

func (r *auditLogRepository) ListByPerformer(ctx context.Context, performerID string, limit int) ([]domain.AuditLog, error) {
	return r.list(ctx, limit, "performed_by = ?", performerID)
}

func (r *auditLogRepository) ListByAction(ctx context.Context, action domain.AuditAction, limit int) ([]domain.AuditLog, error) {
	return r.list(ctx, limit, "action = ?", action)
}

func (r *auditLogRepository) list(ctx context.Context, limit int, query string, arg any) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	var logs []domain.AuditLog
	err := r.db.WithContext(ctx).
		Where(query, arg).
		Order("performed_at DESC").Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
