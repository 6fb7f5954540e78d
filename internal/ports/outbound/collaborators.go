package outbound

import (
	"context"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/prepplan"
	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/domain/shared"
	"github.com/google/uuid"
)

// RecipeFilter narrows a catalog search
type RecipeFilter struct {
	MealType   schedule.MealType
	DietType   schedule.DietType
	ActiveOnly bool
}

// RecipeCatalog is the read API of the recipe catalog
type RecipeCatalog interface {
	SearchRecipes(ctx context.Context, filter RecipeFilter) ([]*recipe.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error)
}

// IngredientCatalog is the read API of the ingredient catalog
type IngredientCatalog interface {
	// IngredientsByTags returns ids of ingredients carrying any of the tags
	IngredientsByTags(ctx context.Context, tags []string) ([]uuid.UUID, error)
	GetIngredients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]recipe.IngredientInfo, error)
}

// PlanProvider returns a user's prep plan for a weekly cooking cadence
type PlanProvider interface {
	GetPlan(ctx context.Context, userID uuid.UUID, targetDays int) (*prepplan.Plan, error)
}

// SubscriptionChecker rejects dates outside the user's planning horizon
type SubscriptionChecker interface {
	VerifyDateAllowed(ctx context.Context, userID uuid.UUID, date time.Time) error
}

// VoteStore returns a user's recipe votes
type VoteStore interface {
	VotesFor(ctx context.Context, userID uuid.UUID) ([]recipe.Vote, error)
}

// ProgressSink receives confirmation progress, +1 for CONFIRMED_YES and -1
// otherwise
type ProgressSink interface {
	RecordConfirmation(ctx context.Context, userID, mealID uuid.UUID, delta int) error
}

// Notifier tells users about their plans
type Notifier interface {
	PlanReady(ctx context.Context, userID uuid.UUID, weekStart time.Time) error
}

// EventPublisher publishes domain events after commit
type EventPublisher interface {
	Publish(ctx context.Context, events ...shared.DomainEvent) error
}

// UserDirectory lists users the batch jobs run for
type UserDirectory interface {
	ActiveUsers(ctx context.Context) ([]uuid.UUID, error)
}

// Clock returns the current time
type Clock interface {
	Now() time.Time
}

// RandomSource is the seedable randomness used by recipe selection
type RandomSource interface {
	Intn(n int) int
	Float64() float64
}

// Metrics records planner activity
type Metrics interface {
	GenerationCompleted(preparations, unfilled int, elapsed time.Duration)
	LifecycleOperation(operation, outcome string)
	ReconcileOperation(operation string, items int)
	CacheLookup(cache string, hit bool)
	JobRun(job string, users, failures int)
}

// WeekCache caches rendered weeks. Get reports whether dst was filled.
type WeekCache interface {
	Get(ctx context.Context, userID uuid.UUID, weekStart time.Time, dst interface{}) (bool, error)
	Put(ctx context.Context, userID uuid.UUID, weekStart time.Time, v interface{}) error
	Invalidate(ctx context.Context, userID uuid.UUID, weekStart time.Time) error
}

// RecentRecipeCache caches the recipes a user cooked recently
type RecentRecipeCache interface {
	Recent(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, bool, error)
	Remember(ctx context.Context, userID uuid.UUID, recipeIDs []uuid.UUID) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}
