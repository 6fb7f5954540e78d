package recipe

import "errors"

// Domain errors for catalog recipes

var (
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrIngredientNotFound = errors.New("ingredient not found")

	// Catalog validation
	ErrMissingID         = errors.New("recipe id is required")
	ErrMissingSlug       = errors.New("recipe slug is required")
	ErrNoMealTypes       = errors.New("recipe must serve at least one meal type")
	ErrMissingIngredient = errors.New("ingredient reference is required")
	ErrNegativeAmount    = errors.New("ingredient amount cannot be negative")
	ErrUnknownUnit       = errors.New("unknown measurement unit")

	// Conversion
	ErrIncompatibleUnits = errors.New("units measure different dimensions")
)
