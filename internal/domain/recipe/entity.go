// Package recipe is the planner's read-only view of the recipe catalog:
// what a recipe is cooked for, which diets it suits and what it consumes per
// serving.
package recipe

import (
	"strings"

	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/google/uuid"
)

// Recipe is a catalog recipe as the planner sees it
type Recipe struct {
	ID          uuid.UUID
	Slug        string
	Title       string
	MealTypes   []schedule.MealType
	DietTypes   []schedule.DietType
	Ingredients []Ingredient
	Priority    int
	Active      bool
}

// Validate checks the fields the planner relies on
func (r *Recipe) Validate() error {
	if r.ID == uuid.Nil {
		return ErrMissingID
	}
	if strings.TrimSpace(r.Slug) == "" {
		return ErrMissingSlug
	}
	if len(r.MealTypes) == 0 {
		return ErrNoMealTypes
	}
	for _, ing := range r.Ingredients {
		if err := ing.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ServesMealType reports whether the recipe can be cooked for the slot
func (r *Recipe) ServesMealType(m schedule.MealType) bool {
	for _, t := range r.MealTypes {
		if t == m {
			return true
		}
	}
	return false
}

// AllowsDiet reports whether the recipe suits the diet. The unassigned diet
// accepts every recipe.
func (r *Recipe) AllowsDiet(d schedule.DietType) bool {
	if d == schedule.DietUnassigned {
		return true
	}
	for _, t := range r.DietTypes {
		if t == d {
			return true
		}
	}
	return false
}

// UsesAny reports whether any ingredient of the recipe is in the set
func (r *Recipe) UsesAny(ingredients map[uuid.UUID]struct{}) bool {
	return r.CountShared(ingredients) > 0
}

// CountShared counts the recipe's ingredients present in the set
func (r *Recipe) CountShared(ingredients map[uuid.UUID]struct{}) int {
	if len(ingredients) == 0 {
		return 0
	}
	n := 0
	for _, ing := range r.Ingredients {
		if _, ok := ingredients[ing.IngredientID]; ok {
			n++
		}
	}
	return n
}
