package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// RegisterRequest payload for self-registration.
type RegisterRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate checks the payload. Phone numbers are checked against region.
func (r RegisterRequest) Validate(region string) error {
	return AsDomainError(validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(2, 255)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&r.Phone, validation.Required, PhoneRule(region)),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100), PasswordBytesRule),
		validation.Field(&r.ConfirmPassword, validation.Required),
	))
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the payload.
func (r LoginRequest) Validate() error {
	return AsDomainError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	))
}

// RefreshTokenRequest carries a refresh token for refresh and logout. An
// empty token is reported by the service as MISSING_TOKEN.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}
