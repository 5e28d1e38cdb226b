package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/spec-kit/identity-service/internal/domain"
)

// CreateUserRequest payload for administrative account creation. Required
// fields are enforced by the service.
type CreateUserRequest struct {
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	RoleName string  `json:"role_name"`
	Phone    *string `json:"phone"`
}

// Validate checks field formats.
func (r CreateUserRequest) Validate(region string) error {
	return AsDomainError(validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Length(0, 255)),
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Password, validation.Length(6, 100), PasswordBytesRule),
		validation.Field(&r.Phone, PhoneRule(region)),
	))
}

// UpdateUserRequest is a partial update; omitted fields stay unchanged.
type UpdateUserRequest struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
	Status   *string `json:"status"`
}

// Validate checks field formats.
func (r UpdateUserRequest) Validate(region string) error {
	return AsDomainError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.FullName, validation.Length(0, 255)),
		validation.Field(&r.Phone, PhoneRule(region)),
		validation.Field(&r.Password, validation.Length(6, 100), PasswordBytesRule),
	))
}

// StatusValue converts the optional status.
func (r UpdateUserRequest) StatusValue() *domain.UserStatus {
	if r.Status == nil {
		return nil
	}
	status := domain.UserStatus(*r.Status)
	return &status
}
