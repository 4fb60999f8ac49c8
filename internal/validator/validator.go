package validator

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func NewValidator() *validator.Validate {
	validate = validator.New()
	return validate
}

func GetValidator() *validator.Validate {
	if validate == nil {
		return NewValidator()
	}
	return validate
}

// ValidateRequest validates a struct using its validate tags. All field
// violations are collected into the reportable details of a single
// validation error rather than failing on the first one.
func ValidateRequest(req interface{}) error {
	if err := GetValidator().Struct(req); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, fieldErr := range validateErrs {
				details[fieldErr.Field()] = fieldErr.Error()
			}
		}
		return ierr.WithError(err).
			WithHint("Request validation failed").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}
