package schedule

import "errors"

// Domain errors for schedule mutations

var (
	// State guards
	ErrMealConfirmed        = errors.New("cannot modify a confirmed meal")
	ErrPreparationConfirmed = errors.New("preparation has a confirmed meal")
	ErrDayOccupied          = errors.New("cannot collapse into an occupied day")
	ErrOutsideWeek          = errors.New("target day is outside the current week")
	ErrDayNotChallenge      = errors.New("day holds meals that are not challenge meals")
	ErrDayNotEmpty          = errors.New("day already holds meals")

	// Lookups within a loaded week
	ErrDayNotFound         = errors.New("schedule day not found")
	ErrMealNotFound        = errors.New("meal not found")
	ErrPreparationNotFound = errors.New("preparation not found")

	// Validation
	ErrInvalidServings      = errors.New("servings must be greater than 0")
	ErrInvalidConfirmStatus = errors.New("unknown confirm status")
)
