package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API callers.
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodePasswordMismatch   = "PASSWORD_MISMATCH"
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeRoleNotFound       = "ROLE_NOT_FOUND"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountNotActive   = "ACCOUNT_NOT_ACTIVE"
	CodeMissingToken       = "MISSING_TOKEN"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewFieldRequired reports a missing or blank required field.
func NewFieldRequired(field string) error {
	return NewValidationError(fmt.Sprintf("%s is required", field), map[string]any{"field": field})
}

func NewPasswordMismatch() error {
	return NewDomainError(CodePasswordMismatch, "passwords do not match", http.StatusBadRequest,
		map[string]any{"field": "confirm_password"})
}

func NewDuplicateEmail(email string) error {
	return NewDomainError(CodeDuplicateEmail, "email already exists", http.StatusConflict,
		map[string]any{"email": email})
}

func NewRoleNotFound(name string) error {
	return NewDomainError(CodeRoleNotFound, "role not found", http.StatusNotFound,
		map[string]any{"role": name})
}

func NewUserNotFound(id string) error {
	return NewDomainError(CodeUserNotFound, "user not found", http.StatusNotFound,
		map[string]any{"id": id})
}

// NewInvalidCredentials is shared by unknown-email and wrong-password failures.
func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "invalid email or password", http.StatusUnauthorized, nil)
}

func NewAccountNotActive(status string) error {
	return NewDomainError(CodeAccountNotActive, fmt.Sprintf("account is %s", status), http.StatusForbidden,
		map[string]any{"status": status})
}

func NewMissingToken() error {
	return NewDomainError(CodeMissingToken, "refresh token is required", http.StatusBadRequest, nil)
}

func NewInvalidToken() error {
	return NewDomainError(CodeInvalidToken, "invalid refresh token", http.StatusUnauthorized, nil)
}

func NewTokenExpired() error {
	return NewDomainError(CodeTokenExpired, "refresh token has expired", http.StatusUnauthorized, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError is ToDomainError returning a plain error; nil stays nil.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
