// Package schedule contains the week schedule of cooking and eating events.
// Days, preparations and meals reference each other by id only; a Week holds
// them in indexed collections and resolves the references.
package schedule

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleDay is one calendar date for one user
type ScheduleDay struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Date      time.Time
	DietType  DietType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewScheduleDay creates a day for the given date
func NewScheduleDay(userID uuid.UUID, date time.Time, diet DietType, now time.Time) *ScheduleDay {
	return &ScheduleDay{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      Date(date),
		DietType:  diet,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Release resets the day's diet once nothing is planned on it
func (d *ScheduleDay) Release(now time.Time) {
	d.DietType = DietUnassigned
	d.UpdatedAt = now
}

// Preparation is a single cooking event. Servings is the total demanded by
// all meals it supplies.
type Preparation struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	DayID     uuid.UUID
	MealType  MealType
	RecipeID  uuid.UUID
	Servings  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPreparation creates a preparation cooked on dayID
func NewPreparation(userID, dayID uuid.UUID, mealType MealType, recipeID uuid.UUID, now time.Time) *Preparation {
	return &Preparation{
		ID:        uuid.New(),
		UserID:    userID,
		DayID:     dayID,
		MealType:  mealType,
		RecipeID:  recipeID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Meal is one eating event
type Meal struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	DayID         uuid.UUID
	PreparationID uuid.UUID // uuid.Nil when the meal has no preparation
	MealType      MealType
	RecipeID      uuid.UUID
	Servings      int
	IsLeftover    bool
	IsChallenge   bool
	Status        ConfirmStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewMeal creates an unconfirmed meal supplied by prep
func NewMeal(prep *Preparation, dayID uuid.UUID, mealType MealType, servings int, now time.Time) *Meal {
	return &Meal{
		ID:            uuid.New(),
		UserID:        prep.UserID,
		DayID:         dayID,
		PreparationID: prep.ID,
		MealType:      mealType,
		RecipeID:      prep.RecipeID,
		Servings:      servings,
		IsLeftover:    dayID != prep.DayID || mealType != prep.MealType,
		Status:        ConfirmUnset,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsConfirmed reports whether the meal reached CONFIRMED_YES
func (m *Meal) IsConfirmed() bool {
	return m.Status == ConfirmedYes
}

// Confirm sets the confirmation status. Any known status is accepted,
// including flipping back from CONFIRMED_YES.
func (m *Meal) Confirm(status ConfirmStatus, now time.Time) error {
	if !status.Valid() {
		return ErrInvalidConfirmStatus
	}
	m.Status = status
	m.UpdatedAt = now
	return nil
}

// HasPreparation reports whether the meal is supplied by a preparation
func (m *Meal) HasPreparation() bool {
	return m.PreparationID != uuid.Nil
}
