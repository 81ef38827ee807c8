package validation

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// RejectedError is a user-correctable validation failure
type RejectedError struct {
	Reason string   // Message returned to the caller
	Fields []string // Wire names of the offending fields, for logs
	cause  error
}

func (e *RejectedError) Error() string {
	return e.Reason
}

func (e *RejectedError) Unwrap() error {
	return e.cause
}

// MissingFields lists the wire names of fields that failed validation
func MissingFields(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	fields := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		fields = append(fields, e.Field())
	}
	return fields
}
