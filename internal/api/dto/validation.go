package dto

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"

	"github.com/spec-kit/identity-service/internal/auth"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

var localPhonePattern = regexp.MustCompile(`^0[0-9]{9,11}$`)

// PhoneRule accepts local numbers that are possible numbers in region.
func PhoneRule(region string) validation.Rule {
	return validation.By(func(value interface{}) error {
		raw, isNil := validation.Indirect(value)
		if isNil || validation.IsEmpty(raw) {
			return nil
		}
		s, ok := raw.(string)
		if !ok {
			return errors.New("must be a string")
		}
		if !localPhonePattern.MatchString(s) {
			return errors.New("must start with 0 and contain 10 to 12 digits")
		}
		num, err := phonenumbers.Parse(s, region)
		if err != nil || !phonenumbers.IsPossibleNumber(num) {
			return errors.New("is not a valid phone number")
		}
		return nil
	})
}

// PasswordBytesRule caps a password at the hasher's byte limit. Length rules
// count runes, so a short multibyte password can still be too long.
var PasswordBytesRule = validation.By(func(value interface{}) error {
	raw, isNil := validation.Indirect(value)
	if isNil || validation.IsEmpty(raw) {
		return nil
	}
	if s, ok := raw.(string); ok && len(s) > auth.MaxPasswordBytes {
		return fmt.Errorf("must not exceed %d bytes", auth.MaxPasswordBytes)
	}
	return nil
})

// AsDomainError converts ozzo validation output into a VALIDATION_FAILED
// error with per-field messages.
func AsDomainError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]any, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			details[field] = fieldErr.Error()
		}
		return apperrors.NewValidationError("validation failed", details)
	}
	return apperrors.NewInternalError(err)
}
