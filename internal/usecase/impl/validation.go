package impl

import (
	"reflect"
	"strings"

	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/errors"

	"github.com/go-playground/validator/v10"
)

// inputValidator checks usecase input DTOs and reports failures as field-level
// ValidationErrors named after the JSON fields the forms send.
type inputValidator struct {
	validate *validator.Validate
}

func newInputValidator() *inputValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})

	return &inputValidator{validate: v}
}

// Struct validates input. A nil error or a *ValidationError is returned.
func (v *inputValidator) Struct(input any) error {
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domainerrors.NewValidationError(domainerrors.FieldError{Field: "input", Message: "Invalid input"})
	}

	fields := make([]domainerrors.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, domainerrors.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}

	return domainerrors.NewValidationError(fields...)
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email"
	case "min":
		return label + " must be at least " + fe.Param() + " characters"
	default:
		return label + " is invalid"
	}
}

// fieldLabel turns "display_name" into "Display name".
func fieldLabel(field string) string {
	label := strings.ReplaceAll(field, "_", " ")
	if label == "" {
		return label
	}

	return strings.ToUpper(label[:1]) + label[1:]
}
