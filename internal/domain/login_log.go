package domain

import "time"

// LoginStatus is the outcome of an authentication attempt.
type LoginStatus string

const (
	LoginStatusSuccess LoginStatus = "SUCCESS"
	LoginStatusFailed  LoginStatus = "FAILED"
	LoginStatusBlocked LoginStatus = "BLOCKED"
)

// LoginLog is an append-only record of one login attempt. UserID is nil when
// the attempted email did not match any account.
type LoginLog struct {
	ID            int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        *string     `gorm:"type:uuid;index:ix_login_logs_user_id" json:"user_id"`
	Email         string      `gorm:"size:255" json:"email"`
	LoginAt       time.Time   `gorm:"not null;index:ix_login_logs_login_at" json:"login_at"`
	IPAddress     *string     `gorm:"size:50" json:"ip_address"`
	UserAgent     *string     `gorm:"size:500" json:"user_agent"`
	Status        LoginStatus `gorm:"size:50;not null;index:ix_login_logs_status" json:"status"`
	FailureReason *string     `gorm:"size:255" json:"failure_reason"`
}

// TableName pins the login log table name.
func (LoginLog) TableName() string {
	return "user_login_logs"
}
