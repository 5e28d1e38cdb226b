package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/spec-kit/identity-service/internal/domain"
)

const (
	defaultLoginHistoryLimit = 50
	defaultFailedWindow      = 30 * time.Minute
)

// LoginLogRepository is the append-only login attempt sink.
type LoginLogRepository interface {
	Create(ctx context.Context, entry *domain.LoginLog) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.LoginLog, error)
	RecentFailed(ctx context.Context, userID string, since time.Time) ([]domain.LoginLog, error)
}

type loginLogRepository struct {
	db *gorm.DB
}

// NewLoginLogRepository returns a GORM-backed sink.
func NewLoginLogRepository(db *gorm.DB) LoginLogRepository {
	return &loginLogRepository{db: db}
}

func (r *loginLogRepository) Create(ctx context.Context, entry *domain.LoginLog) error {
	if entry.LoginAt.IsZero() {
		entry.LoginAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByUser returns the newest attempts first, 50 by default.
func (r *loginLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.LoginLog, error) {
	if limit <= 0 {
		limit = defaultLoginHistoryLimit
	}
	var logs []domain.LoginLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("login_at DESC").Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// RecentFailed returns failed attempts at or after since. A zero since means
// the last 30 minutes.
func (r *loginLogRepository) RecentFailed(ctx context.Context, userID string, since time.Time) ([]domain.LoginLog, error) {
	if since.IsZero() {
		since = time.Now().UTC().Add(-defaultFailedWindow)
	}
	var logs []domain.LoginLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND login_at >= ?", userID, domain.LoginStatusFailed, since).
		Order("login_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
