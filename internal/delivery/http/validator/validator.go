// Package validator plugs go-playground/validator into echo's Context.Validate.
package validator

import (
	"reflect"
	"strings"

	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Validator implements echo.Validator. Failures are reported as a
// *ValidationError keyed by the json or param tag of the field.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "param", "query"} {
			name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}

		return field.Name
	})

	return &Validator{validate: v}
}

// Validate checks the struct tags of i.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.WithStack(err)
	}

	fields := make([]domainerrors.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, domainerrors.FieldError{
			Field:   fe.Field(),
			Message: fe.Field() + " failed on " + fe.Tag(),
		})
	}

	return domainerrors.NewValidationError(fields...)
}
