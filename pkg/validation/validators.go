package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ReasonMissingFields is the rejection shown when any required field is empty
const ReasonMissingFields = "missing required fields"

// Validator checks required-field presence on submissions.
// Presence is the only rule: no email, phone or length format checks are applied.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator that reports fields by their wire names (json, then form tag)
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(wireName)
	return &Validator{validate: v}
}

// Validate returns nil when sub is acceptable, or a *RejectedError naming the missing fields
func (v *Validator) Validate(sub any) error {
	err := v.validate.Struct(sub)
	if err == nil {
		return nil
	}
	return &RejectedError{
		Reason: ReasonMissingFields,
		Fields: MissingFields(err),
		cause:  err,
	}
}

// wireName returns the json or form tag name for a struct field
func wireName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			continue
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}
