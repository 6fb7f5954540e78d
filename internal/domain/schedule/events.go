package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Domain events raised by week mutations. They are published after the
// unit of work commits.

// ScheduleGeneratedEvent is raised when a date range is regenerated
type ScheduleGeneratedEvent struct {
	UserID       uuid.UUID
	Start        time.Time
	End          time.Time
	Preparations int
	Unfilled     int
	GeneratedAt  time.Time
}

func (e ScheduleGeneratedEvent) EventName() string { return "schedule.generated" }

func (e ScheduleGeneratedEvent) OccurredAt() time.Time { return e.GeneratedAt }

// MealConfirmedEvent is raised when a meal's confirm status is set
type MealConfirmedEvent struct {
	UserID      uuid.UUID
	MealID      uuid.UUID
	RecipeID    uuid.UUID
	Status      ConfirmStatus
	ConfirmedAt time.Time
}

func (e MealConfirmedEvent) EventName() string { return "meal.confirmed" }

func (e MealConfirmedEvent) OccurredAt() time.Time { return e.ConfirmedAt }

// MealMovedEvent is raised when a meal changes day
type MealMovedEvent struct {
	UserID  uuid.UUID
	MealID  uuid.UUID
	FromDay time.Time
	ToDay   time.Time
	MovedAt time.Time
}

func (e MealMovedEvent) EventName() string { return "meal.moved" }

func (e MealMovedEvent) OccurredAt() time.Time { return e.MovedAt }

// PreparationMovedEvent is raised when a preparation changes cooking day
type PreparationMovedEvent struct {
	UserID        uuid.UUID
	PreparationID uuid.UUID
	FromDay       time.Time
	ToDay         time.Time
	MovedAt       time.Time
}

func (e PreparationMovedEvent) EventName() string { return "preparation.moved" }

func (e PreparationMovedEvent) OccurredAt() time.Time { return e.MovedAt }

// ServingsUpdatedEvent is raised when a meal is resized
type ServingsUpdatedEvent struct {
	UserID    uuid.UUID
	MealID    uuid.UUID
	Old       int
	New       int
	UpdatedAt time.Time
}

func (e ServingsUpdatedEvent) EventName() string { return "meal.servings.updated" }

func (e ServingsUpdatedEvent) OccurredAt() time.Time { return e.UpdatedAt }

// PreparationRegeneratedEvent is raised when a preparation gets a new recipe
type PreparationRegeneratedEvent struct {
	UserID        uuid.UUID
	PreparationID uuid.UUID
	OldRecipeID   uuid.UUID
	NewRecipeID   uuid.UUID
	RegeneratedAt time.Time
}

func (e PreparationRegeneratedEvent) EventName() string { return "preparation.regenerated" }

func (e PreparationRegeneratedEvent) OccurredAt() time.Time { return e.RegeneratedAt }

// ChallengeDayAddedEvent is raised when an ad hoc day is inserted
type ChallengeDayAddedEvent struct {
	UserID  uuid.UUID
	Date    time.Time
	Meals   int
	AddedAt time.Time
}

func (e ChallengeDayAddedEvent) EventName() string { return "challenge_day.added" }

func (e ChallengeDayAddedEvent) OccurredAt() time.Time { return e.AddedAt }

// ChallengeDayRemovedEvent is raised when an ad hoc day is cleared
type ChallengeDayRemovedEvent struct {
	UserID    uuid.UUID
	Date      time.Time
	RemovedAt time.Time
}

func (e ChallengeDayRemovedEvent) EventName() string { return "challenge_day.removed" }

func (e ChallengeDayRemovedEvent) OccurredAt() time.Time { return e.RemovedAt }
