// Package validation validates inbound commands with struct tags
package validation

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// Validator validates commands and reports failures as VALIDATION_FAILED
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the planner's custom rules registered
func New() *Validator {
	validate := validator.New()

	validate.RegisterValidation("meal_type", validateMealType)
	validate.RegisterValidation("confirm_status", validateConfirmStatus)
	validate.RegisterValidation("unit", validateUnit)

	return &Validator{validate: validate}
}

// Struct validates a command
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewValidationError(err.Error())
	}

	fields := make([]errors.FieldError, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, errors.FieldError{
			Field:   e.Field(),
			Tag:     e.Tag(),
			Message: message(e),
		})
	}
	return errors.NewFieldValidationError(fields)
}

func message(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, e.Param())
	case "meal_type":
		return fmt.Sprintf("%s must be a known meal type", field)
	case "confirm_status":
		return fmt.Sprintf("%s must be UNSET, CONFIRMED_YES or CONFIRMED_NO", field)
	case "unit":
		return fmt.Sprintf("%s must be a known measurement unit", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func validateMealType(fl validator.FieldLevel) bool {
	return schedule.MealType(fl.Field().String()).Valid()
}

func validateConfirmStatus(fl validator.FieldLevel) bool {
	return schedule.ConfirmStatus(fl.Field().String()).Valid()
}

func validateUnit(fl validator.FieldLevel) bool {
	return recipe.MeasurementUnit(strings.TrimSpace(fl.Field().String())).Valid()
}
