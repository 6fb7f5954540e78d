package recipe

import (
	"time"

	"github.com/google/uuid"
)

// Ingredient is one line of a recipe, scaled per serving
type Ingredient struct {
	IngredientID     uuid.UUID
	Name             string
	AmountPerServing float64
	Unit             MeasurementUnit
}

// Validate validates the ingredient line
func (i Ingredient) Validate() error {
	if i.IngredientID == uuid.Nil {
		return ErrMissingIngredient
	}
	if i.AmountPerServing < 0 {
		return ErrNegativeAmount
	}
	if !i.Unit.Valid() {
		return ErrUnknownUnit
	}
	return nil
}

// Demand returns the quantity required for the given servings
func (i Ingredient) Demand(servings int) float64 {
	return i.AmountPerServing * float64(servings)
}

// IngredientInfo is the ingredient catalog entry: tags used for exclusion and
// the unit and precision quantities are reconciled in.
type IngredientInfo struct {
	ID            uuid.UUID
	Name          string
	Tags          []string
	CanonicalUnit MeasurementUnit
	Decimals      int
}

// MeasurementUnit represents units of measurement
type MeasurementUnit string

const (
	// Volume units
	MeasurementUnitTeaspoon   MeasurementUnit = "tsp"
	MeasurementUnitTablespoon MeasurementUnit = "tbsp"
	MeasurementUnitCup        MeasurementUnit = "cup"
	MeasurementUnitMilliliter MeasurementUnit = "ml"
	MeasurementUnitLiter      MeasurementUnit = "l"

	// Weight units
	MeasurementUnitGram     MeasurementUnit = "g"
	MeasurementUnitKilogram MeasurementUnit = "kg"
	MeasurementUnitOunce    MeasurementUnit = "oz"
	MeasurementUnitPound    MeasurementUnit = "lb"

	// Count units
	MeasurementUnitPiece MeasurementUnit = "piece"
	MeasurementUnitDozen MeasurementUnit = "dozen"
)

// Valid reports whether the unit is known
func (u MeasurementUnit) Valid() bool {
	_, ok := unitTable[u]
	return ok
}

// VoteValue is a user's standing preference for a recipe
type VoteValue string

const (
	VoteUnknown VoteValue = "UNKNOWN"
	VoteLike    VoteValue = "LIKE"
	VoteHate    VoteValue = "HATE"
)

// Vote is a user's preference for one recipe
type Vote struct {
	UserID   uuid.UUID
	RecipeID uuid.UUID
	Value    VoteValue
	VotedAt  time.Time
}
