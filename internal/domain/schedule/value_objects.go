package schedule

import (
	"fmt"
	"time"
)

// MealType names the slot of the day a meal is eaten in
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

var mealTypeOrder = map[MealType]int{
	MealTypeBreakfast: 0,
	MealTypeLunch:     1,
	MealTypeDinner:    2,
	MealTypeSnack:     3,
}

// Valid reports whether the meal type is one of the known slots
func (m MealType) Valid() bool {
	_, ok := mealTypeOrder[m]
	return ok
}

// Order returns the position of the slot within a day
func (m MealType) Order() int {
	if o, ok := mealTypeOrder[m]; ok {
		return o
	}
	return len(mealTypeOrder)
}

// ParseMealType parses a configured meal type name
func ParseMealType(s string) (MealType, error) {
	m := MealType(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown meal type %q", s)
	}
	return m, nil
}

// DietType identifies a diet from the diet-type catalog. Zero means the day
// has no diet assigned and therefore no meals.
type DietType int

// DietUnassigned marks a day without meals
const DietUnassigned DietType = 0

// ConfirmStatus is the per-meal confirmation state
type ConfirmStatus string

const (
	ConfirmUnset ConfirmStatus = "UNSET"
	ConfirmedYes ConfirmStatus = "CONFIRMED_YES"
	ConfirmedNo  ConfirmStatus = "CONFIRMED_NO"
)

// Valid reports whether the status is known
func (s ConfirmStatus) Valid() bool {
	switch s {
	case ConfirmUnset, ConfirmedYes, ConfirmedNo:
		return true
	}
	return false
}

// Date normalises t to midnight UTC of its calendar day
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the week containing t
func WeekStart(t time.Time) time.Time {
	d := Date(t)
	return d.AddDate(0, 0, -WeekdayIndex(d))
}

// WeekEnd returns the Sunday of the week containing t
func WeekEnd(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 6)
}

// WeekdayIndex returns 0 for Monday through 6 for Sunday
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// SameWeek reports whether a and b fall in the same Monday-based week
func SameWeek(a, b time.Time) bool {
	return WeekStart(a).Equal(WeekStart(b))
}
