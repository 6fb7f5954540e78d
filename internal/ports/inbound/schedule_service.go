// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/google/uuid"
)

// ScheduleService defines the use cases for generating and mutating a week
// This is the primary port an API layer or batch job drives
type ScheduleService interface {
	// Queries
	GetSchedule(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*WeekDTO, error)

	// Generation
	GenerateSchedule(ctx context.Context, cmd GenerateScheduleCommand) (*GenerationResultDTO, error)

	// Lifecycle
	ConfirmMeal(ctx context.Context, cmd ConfirmMealCommand) error
	MoveMeal(ctx context.Context, cmd MoveMealCommand) error
	MovePreparation(ctx context.Context, cmd MovePreparationCommand) error
	UpdateServings(ctx context.Context, cmd UpdateServingsCommand) error
	AddChallengeDay(ctx context.Context, cmd ChallengeDayCommand) error
	RemoveChallengeDay(ctx context.Context, cmd ChallengeDayCommand) error
	RegeneratePreparation(ctx context.Context, cmd RegeneratePreparationCommand) (bool, error)
}

// Command objects for operations

// GenerateScheduleCommand regenerates every day in [Start, End]
type GenerateScheduleCommand struct {
	UserID             uuid.UUID   `validate:"required"`
	Start              time.Time   `validate:"required"`
	End                time.Time   `validate:"required,gtefield=Start"`
	ExcludedTags       []string    `validate:"dive,required"`
	ConsumeIngredients []uuid.UUID `validate:"dive,required"`
}

// ConfirmMealCommand sets a meal's confirm status
type ConfirmMealCommand struct {
	UserID uuid.UUID              `validate:"required"`
	MealID uuid.UUID              `validate:"required"`
	Status schedule.ConfirmStatus `validate:"required,confirm_status"`
}

// MoveMealCommand moves one meal to another day of its week
type MoveMealCommand struct {
	UserID      uuid.UUID `validate:"required"`
	MealID      uuid.UUID `validate:"required"`
	TargetDayID uuid.UUID `validate:"required"`
}

// MovePreparationCommand moves a preparation with its cooking-day meals
type MovePreparationCommand struct {
	UserID        uuid.UUID `validate:"required"`
	PreparationID uuid.UUID `validate:"required"`
	TargetDayID   uuid.UUID `validate:"required"`
}

// UpdateServingsCommand changes the servings of one meal
type UpdateServingsCommand struct {
	UserID   uuid.UUID `validate:"required"`
	MealID   uuid.UUID `validate:"required"`
	Servings int       `validate:"min=1"`
}

// ChallengeDayCommand adds or removes an ad hoc day
type ChallengeDayCommand struct {
	UserID uuid.UUID `validate:"required"`
	Date   time.Time `validate:"required"`
}

// RegeneratePreparationCommand picks a new recipe for one preparation
type RegeneratePreparationCommand struct {
	UserID        uuid.UUID `validate:"required"`
	PreparationID uuid.UUID `validate:"required"`
}

// Response DTOs

// WeekDTO is one user's schedule for a week
type WeekDTO struct {
	UserID    uuid.UUID `json:"user_id"`
	WeekStart string    `json:"week_start"`
	WeekEnd   string    `json:"week_end"`
	Days      []DayDTO  `json:"days"`
}

// DayDTO is one schedule day with what is cooked and eaten on it
type DayDTO struct {
	ID           uuid.UUID        `json:"id"`
	Date         string           `json:"date"`
	DietType     int              `json:"diet_type"`
	Preparations []PreparationDTO `json:"preparations"`
	Meals        []MealDTO        `json:"meals"`
}

// PreparationDTO for preparation data
type PreparationDTO struct {
	ID       uuid.UUID `json:"id"`
	DayID    uuid.UUID `json:"day_id"`
	MealType string    `json:"meal_type"`
	RecipeID uuid.UUID `json:"recipe_id"`
	Servings int       `json:"servings"`
}

// MealDTO for meal data
type MealDTO struct {
	ID            uuid.UUID  `json:"id"`
	DayID         uuid.UUID  `json:"day_id"`
	PreparationID *uuid.UUID `json:"preparation_id,omitempty"`
	MealType      string     `json:"meal_type"`
	RecipeID      uuid.UUID  `json:"recipe_id"`
	Servings      int        `json:"servings"`
	IsLeftover    bool       `json:"is_leftover"`
	IsChallenge   bool       `json:"is_challenge"`
	Status        string     `json:"status"`
}

// SlotDTO names a slot that could not be filled
type SlotDTO struct {
	Date     string `json:"date"`
	MealType string `json:"meal_type"`
}

// GenerationResultDTO summarises a generation run
type GenerationResultDTO struct {
	Week     WeekDTO   `json:"week"`
	Unfilled []SlotDTO `json:"unfilled,omitempty"`
}
