// Package testutil provides seeded test data factories and mocks
package testutil

import (
	"strings"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/prepplan"
	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// Factory creates catalog test data from a seeded faker
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory creates a new factory with seeded faker
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed)}
}

// Ingredient creates a gram-measured ingredient carrying the given tags
func (f *Factory) Ingredient(tags ...string) recipe.IngredientInfo {
	lowered := make([]string, len(tags))
	for i, t := range tags {
		lowered[i] = strings.ToLower(t)
	}
	return recipe.IngredientInfo{
		ID:            uuid.New(),
		Name:          f.faker.Vegetable(),
		Tags:          lowered,
		CanonicalUnit: recipe.MeasurementUnitGram,
		Decimals:      1,
	}
}

// Recipe starts a recipe for a meal type
func (f *Factory) Recipe(mealType schedule.MealType) *RecipeBuilder {
	title := f.faker.Dinner()
	return &RecipeBuilder{
		faker: f.faker,
		recipe: &recipe.Recipe{
			ID:        uuid.New(),
			Slug:      slugify(title) + "-" + f.faker.LetterN(4),
			Title:     title,
			MealTypes: []schedule.MealType{mealType},
			Active:    true,
		},
	}
}

// RecipeBuilder provides a fluent interface for building test recipes
type RecipeBuilder struct {
	faker  *gofakeit.Faker
	recipe *recipe.Recipe
}

// WithDiets sets the diets the recipe suits
func (b *RecipeBuilder) WithDiets(diets ...schedule.DietType) *RecipeBuilder {
	b.recipe.DietTypes = diets
	return b
}

// WithPriority sets the static priority
func (b *RecipeBuilder) WithPriority(p int) *RecipeBuilder {
	b.recipe.Priority = p
	return b
}

// WithSlug sets the slug
func (b *RecipeBuilder) WithSlug(slug string) *RecipeBuilder {
	b.recipe.Slug = slug
	return b
}

// WithIngredient adds an ingredient line. A zero amount draws a random one.
func (b *RecipeBuilder) WithIngredient(info recipe.IngredientInfo, perServing float64) *RecipeBuilder {
	if perServing == 0 {
		perServing = float64(b.faker.IntRange(20, 200))
	}
	b.recipe.Ingredients = append(b.recipe.Ingredients, recipe.Ingredient{
		IngredientID:     info.ID,
		Name:             info.Name,
		AmountPerServing: perServing,
		Unit:             info.CanonicalUnit,
	})
	return b
}

// Inactive marks the recipe as withdrawn from the catalog
func (b *RecipeBuilder) Inactive() *RecipeBuilder {
	b.recipe.Active = false
	return b
}

// Build returns the recipe
func (b *RecipeBuilder) Build() *recipe.Recipe {
	return b.recipe
}

// PlanBuilder provides a fluent interface for building prep plans
type PlanBuilder struct {
	plan    *prepplan.Plan
	current int
}

// NewPlanBuilder starts a plan for a user
func NewPlanBuilder(userID uuid.UUID, diet schedule.DietType) *PlanBuilder {
	return &PlanBuilder{
		plan:    &prepplan.Plan{UserID: userID, TargetDays: 7, DietType: diet},
		current: -1,
	}
}

// Generator adds a generator; following Consumer calls attach to it
func (b *PlanBuilder) Generator(weekday int, mealType schedule.MealType) *PlanBuilder {
	b.plan.Generators = append(b.plan.Generators, prepplan.Generator{
		ID:       uuid.New(),
		Weekday:  weekday,
		MealType: mealType,
	})
	b.current = len(b.plan.Generators) - 1
	return b
}

// Consumer adds a consumer to the last generator
func (b *PlanBuilder) Consumer(weekday int, mealType schedule.MealType, servings int) *PlanBuilder {
	g := &b.plan.Generators[b.current]
	g.Consumers = append(g.Consumers, prepplan.Consumer{
		ID:          uuid.New(),
		GeneratorID: g.ID,
		Weekday:     weekday,
		MealType:    mealType,
		Servings:    servings,
	})
	return b
}

// Build returns the plan
func (b *PlanBuilder) Build() *prepplan.Plan {
	return b.plan
}

// FixedClock always returns the same instant
type FixedClock struct {
	T time.Time
}

// Now returns the fixed instant
func (c *FixedClock) Now() time.Time { return c.T }

// Monday returns a fixed Monday used as the reference week in tests
func Monday() time.Time {
	return time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
}

func slugify(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "-"))
}
