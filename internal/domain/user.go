package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusInactive  UserStatus = "INACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	}
	return false
}

// OTPPurpose is reserved for verification, reset and 2FA flows.
type OTPPurpose string

const (
	OTPPurposeEmailVerification OTPPurpose = "EMAIL_VERIFICATION"
	OTPPurposePasswordReset     OTPPurpose = "PASSWORD_RESET"
	OTPPurposeTwoFactor         OTPPurpose = "TWO_FACTOR_AUTH"
)

// User is an account in the identity directory. RoleID references roles.id.
type User struct {
	ID                    string     `gorm:"type:uuid;primaryKey"`
	Email                 string     `gorm:"size:255;not null;uniqueIndex:ix_users_email"`
	PasswordHash          string     `gorm:"not null"`
	FullName              *string    `gorm:"size:255"`
	Phone                 *string    `gorm:"size:20;index:ix_users_phone"`
	RoleID                int        `gorm:"not null;index:ix_users_role_id"`
	Status                UserStatus `gorm:"size:50;not null;index:ix_users_status"`
	RefreshToken          *string    `gorm:"size:500;uniqueIndex:ix_users_refresh_token"`
	RefreshTokenExpiresAt *time.Time

	OTPCode      *string     `gorm:"column:otp_code;size:10"`
	OTPPurpose   *OTPPurpose `gorm:"column:otp_purpose;size:50"`
	OTPExpiresAt *time.Time  `gorm:"column:otp_expires_at"`
	OTPAttempts  int         `gorm:"column:otp_attempts;not null;default:0"`

	EmailVerified bool `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName pins the users table name.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an id when the caller did not.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// DisplayName is the full name, or the email when no name is set.
func (u *User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Email
}

// ClearRefreshToken drops the stored refresh token and its expiry.
func (u *User) ClearRefreshToken() {
	u.RefreshToken = nil
	u.RefreshTokenExpiresAt = nil
}

// SetRefreshToken stores a refresh token together with its expiry.
func (u *User) SetRefreshToken(token string, expiresAt time.Time) {
	u.RefreshToken = &token
	u.RefreshTokenExpiresAt = &expiresAt
}
