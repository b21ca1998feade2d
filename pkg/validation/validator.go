package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RecordWidth is the unit that byte-size fields tagged "records" must be
// a multiple of.
const RecordWidth = 8

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	// "records": a non-negative integer byte count that holds whole records
	if err := validate.RegisterValidation("records", func(fl validator.FieldLevel) bool {
		v := fl.Field().Int()
		return v >= 0 && v%RecordWidth == 0
	}); err != nil {
		panic(err)
	}
}

// Struct validates v against its `validate` struct tags and reports the first
// failure in a readable form.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	return formatValidationError(validate.Struct(v))
}

// formatValidationError converts validator errors to user-friendly messages
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		case "records":
			return fmt.Errorf("%s: %v is not a multiple of the %d-byte record width", field, e.Value(), RecordWidth)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
