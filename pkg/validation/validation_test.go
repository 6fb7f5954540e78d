package validation

import (
	"testing"

	"github.com/alchemorsel/mealprep/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addItemCommand struct {
	Name     string  `validate:"required"`
	Quantity float64 `validate:"min=0"`
	Unit     string  `validate:"required,unit"`
	MealType string  `validate:"omitempty,meal_type"`
	Status   string  `validate:"omitempty,confirm_status"`
}

func TestValidator_Struct(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		cmd     addItemCommand
		wantTag string
	}{
		{"valid", addItemCommand{Name: "Rice", Quantity: 200, Unit: "g", MealType: "dinner", Status: "CONFIRMED_YES"}, ""},
		{"missing name", addItemCommand{Quantity: 1, Unit: "g"}, "required"},
		{"negative quantity", addItemCommand{Name: "Rice", Quantity: -1, Unit: "g"}, "min"},
		{"unknown unit", addItemCommand{Name: "Rice", Unit: "handful"}, "unit"},
		{"unit with spaces", addItemCommand{Name: "Rice", Unit: " kg "}, ""},
		{"unknown meal type", addItemCommand{Name: "Rice", Unit: "g", MealType: "brunch"}, "meal_type"},
		{"unknown status", addItemCommand{Name: "Rice", Unit: "g", Status: "MAYBE"}, "confirm_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.cmd)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.CodeValidationFailed))

			appErr, ok := err.(*errors.AppError)
			require.True(t, ok)
			fields, ok := appErr.Metadata["validation_errors"].(errors.FieldErrors)
			require.True(t, ok)
			require.Len(t, fields, 1)
			assert.Equal(t, tt.wantTag, fields[0].Tag)
			assert.NotEmpty(t, fields[0].Message)
		})
	}
}

func TestValidator_Struct_NotAStruct(t *testing.T) {
	err := New().Struct(42)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeValidationFailed))
}
