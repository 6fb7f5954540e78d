package schedule

import (
	"sort"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/shared"
	"github.com/google/uuid"
)

// Week is the aggregate for one user's schedule over a contiguous date range,
// normally Monday through Sunday. It owns every day, preparation and meal in
// the range and is the only place cross references are resolved.
type Week struct {
	UserID uuid.UUID
	Start  time.Time
	End    time.Time

	days  map[uuid.UUID]*ScheduleDay
	preps map[uuid.UUID]*Preparation
	meals map[uuid.UUID]*Meal

	removedMeals []uuid.UUID
	removedPreps []uuid.UUID

	shared.AggregateRoot
}

// NewWeek creates an empty week covering [start, end]
func NewWeek(userID uuid.UUID, start, end time.Time) *Week {
	return &Week{
		UserID: userID,
		Start:  Date(start),
		End:    Date(end),
		days:   make(map[uuid.UUID]*ScheduleDay),
		preps:  make(map[uuid.UUID]*Preparation),
		meals:  make(map[uuid.UUID]*Meal),
	}
}

// Contains reports whether date falls within the week's range
func (w *Week) Contains(date time.Time) bool {
	d := Date(date)
	return !d.Before(w.Start) && !d.After(w.End)
}

// IsEmpty reports whether the week holds no meals
func (w *Week) IsEmpty() bool {
	return len(w.meals) == 0
}

// AddDay registers a day
func (w *Week) AddDay(d *ScheduleDay) {
	w.days[d.ID] = d
}

// AddPreparation registers a preparation
func (w *Week) AddPreparation(p *Preparation) {
	w.preps[p.ID] = p
}

// AddMeal registers a meal
func (w *Week) AddMeal(m *Meal) {
	w.meals[m.ID] = m
}

// Day looks up a day by id
func (w *Week) Day(id uuid.UUID) (*ScheduleDay, bool) {
	d, ok := w.days[id]
	return d, ok
}

// DayOn looks up the day for a calendar date
func (w *Week) DayOn(date time.Time) (*ScheduleDay, bool) {
	target := Date(date)
	for _, d := range w.days {
		if d.Date.Equal(target) {
			return d, true
		}
	}
	return nil, false
}

// Preparation looks up a preparation by id
func (w *Week) Preparation(id uuid.UUID) (*Preparation, bool) {
	p, ok := w.preps[id]
	return p, ok
}

// Meal looks up a meal by id
func (w *Week) Meal(id uuid.UUID) (*Meal, bool) {
	m, ok := w.meals[id]
	return m, ok
}

// Days returns the days ordered by date
func (w *Week) Days() []*ScheduleDay {
	out := make([]*ScheduleDay, 0, len(w.days))
	for _, d := range w.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Preparations returns the preparations ordered by day and slot
func (w *Week) Preparations() []*Preparation {
	out := make([]*Preparation, 0, len(w.preps))
	for _, p := range w.preps {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return w.lessSlot(out[i].DayID, out[i].MealType, out[i].ID, out[j].DayID, out[j].MealType, out[j].ID)
	})
	return out
}

// Meals returns the meals ordered by day and slot
func (w *Week) Meals() []*Meal {
	out := make([]*Meal, 0, len(w.meals))
	for _, m := range w.meals {
		out = append(out, m)
	}
	w.sortMeals(out)
	return out
}

// MealsOn returns the meals eaten on a day
func (w *Week) MealsOn(dayID uuid.UUID) []*Meal {
	var out []*Meal
	for _, m := range w.meals {
		if m.DayID == dayID {
			out = append(out, m)
		}
	}
	w.sortMeals(out)
	return out
}

// PreparationsOn returns the preparations cooked on a day
func (w *Week) PreparationsOn(dayID uuid.UUID) []*Preparation {
	var out []*Preparation
	for _, p := range w.Preparations() {
		if p.DayID == dayID {
			out = append(out, p)
		}
	}
	return out
}

// MealsOf returns the meals supplied by a preparation
func (w *Week) MealsOf(prepID uuid.UUID) []*Meal {
	var out []*Meal
	for _, m := range w.meals {
		if m.PreparationID == prepID {
			out = append(out, m)
		}
	}
	w.sortMeals(out)
	return out
}

// IsDayEmpty reports whether nothing is cooked or eaten on the day
func (w *Week) IsDayEmpty(dayID uuid.UUID) bool {
	for _, m := range w.meals {
		if m.DayID == dayID {
			return false
		}
	}
	for _, p := range w.preps {
		if p.DayID == dayID {
			return false
		}
	}
	return true
}

// Removed returns the ids of meals and preparations deleted since load
func (w *Week) Removed() (meals, preparations []uuid.UUID) {
	return w.removedMeals, w.removedPreps
}

// RemoveMeal deletes a meal. The owning preparation is resynced, and
// deleted too when it no longer supplies anything.
func (w *Week) RemoveMeal(id uuid.UUID, now time.Time) {
	m, ok := w.meals[id]
	if !ok {
		return
	}
	delete(w.meals, id)
	w.removedMeals = append(w.removedMeals, id)

	if m.HasPreparation() {
		if len(w.MealsOf(m.PreparationID)) == 0 {
			w.RemovePreparation(m.PreparationID, now)
		} else {
			w.SyncPreparation(m.PreparationID, now)
		}
	}
	w.releaseIfEmpty(m.DayID, now)
}

// RemovePreparation deletes a preparation and every meal it supplies
func (w *Week) RemovePreparation(id uuid.UUID, now time.Time) {
	p, ok := w.preps[id]
	if !ok {
		return
	}
	delete(w.preps, id)
	w.removedPreps = append(w.removedPreps, id)

	touched := map[uuid.UUID]struct{}{p.DayID: {}}
	for _, m := range w.MealsOf(id) {
		delete(w.meals, m.ID)
		w.removedMeals = append(w.removedMeals, m.ID)
		touched[m.DayID] = struct{}{}
	}
	for dayID := range touched {
		w.releaseIfEmpty(dayID, now)
	}
}

// SyncPreparation recomputes a preparation from its meals: total servings,
// cooking day (the earliest meal day) and every meal's leftover flag.
func (w *Week) SyncPreparation(id uuid.UUID, now time.Time) {
	p, ok := w.preps[id]
	if !ok {
		return
	}
	meals := w.MealsOf(id)
	if len(meals) == 0 {
		return
	}

	total := 0
	earliest := meals[0].DayID
	for _, m := range meals {
		total += m.Servings
		if w.dayBefore(m.DayID, earliest) {
			earliest = m.DayID
		}
	}

	oldDay := p.DayID
	p.Servings = total
	p.DayID = earliest
	p.UpdatedAt = now

	for _, m := range meals {
		m.IsLeftover = m.DayID != p.DayID || m.MealType != p.MealType
	}
	if oldDay != p.DayID {
		w.releaseIfEmpty(oldDay, now)
	}
}

// MoveMeal moves a meal to another day of this week
func (w *Week) MoveMeal(mealID, targetDayID uuid.UUID, now time.Time) error {
	m, ok := w.meals[mealID]
	if !ok {
		return ErrMealNotFound
	}
	if m.IsConfirmed() {
		return ErrMealConfirmed
	}
	source, target, err := w.moveTargets(m.DayID, targetDayID)
	if err != nil {
		return err
	}
	if source.ID == target.ID {
		return nil
	}

	m.DayID = target.ID
	m.UpdatedAt = now
	w.occupy(target, source.DietType, now)

	if m.HasPreparation() {
		w.SyncPreparation(m.PreparationID, now)
	}
	w.releaseIfEmpty(source.ID, now)

	w.AddEvent(MealMovedEvent{
		UserID:  w.UserID,
		MealID:  m.ID,
		FromDay: source.Date,
		ToDay:   target.Date,
		MovedAt: now,
	})
	return nil
}

// MovePreparation moves a preparation together with every meal eaten on its
// cooking day. Meals on later days stay put.
func (w *Week) MovePreparation(prepID, targetDayID uuid.UUID, now time.Time) error {
	p, ok := w.preps[prepID]
	if !ok {
		return ErrPreparationNotFound
	}
	source, target, err := w.moveTargets(p.DayID, targetDayID)
	if err != nil {
		return err
	}
	if source.ID == target.ID {
		return nil
	}

	var moving []*Meal
	for _, m := range w.MealsOf(prepID) {
		if m.DayID != source.ID {
			continue
		}
		if m.IsConfirmed() {
			return ErrMealConfirmed
		}
		moving = append(moving, m)
	}

	for _, m := range moving {
		m.DayID = target.ID
		m.UpdatedAt = now
	}
	w.occupy(target, source.DietType, now)

	if len(moving) == 0 {
		p.DayID = target.ID
		p.UpdatedAt = now
	}
	w.SyncPreparation(prepID, now)
	w.releaseIfEmpty(source.ID, now)

	w.AddEvent(PreparationMovedEvent{
		UserID:        w.UserID,
		PreparationID: p.ID,
		FromDay:       source.Date,
		ToDay:         target.Date,
		MovedAt:       now,
	})
	return nil
}

// SetServings changes a meal's servings and resyncs its preparation
func (w *Week) SetServings(mealID uuid.UUID, servings int, now time.Time) error {
	m, ok := w.meals[mealID]
	if !ok {
		return ErrMealNotFound
	}
	if servings < 1 {
		return ErrInvalidServings
	}
	if m.IsConfirmed() {
		return ErrMealConfirmed
	}
	old := m.Servings
	m.Servings = servings
	m.UpdatedAt = now
	if m.HasPreparation() {
		w.SyncPreparation(m.PreparationID, now)
	}

	w.AddEvent(ServingsUpdatedEvent{
		UserID:    w.UserID,
		MealID:    m.ID,
		Old:       old,
		New:       servings,
		UpdatedAt: now,
	})
	return nil
}

// SwapRecipe replaces the recipe of a preparation and all its meals
func (w *Week) SwapRecipe(prepID, recipeID uuid.UUID, now time.Time) error {
	p, ok := w.preps[prepID]
	if !ok {
		return ErrPreparationNotFound
	}
	meals := w.MealsOf(prepID)
	for _, m := range meals {
		if m.IsConfirmed() {
			return ErrPreparationConfirmed
		}
	}
	old := p.RecipeID
	p.RecipeID = recipeID
	p.UpdatedAt = now
	for _, m := range meals {
		m.RecipeID = recipeID
		m.UpdatedAt = now
	}

	w.AddEvent(PreparationRegeneratedEvent{
		UserID:        w.UserID,
		PreparationID: p.ID,
		OldRecipeID:   old,
		NewRecipeID:   recipeID,
		RegeneratedAt: now,
	})
	return nil
}

// HasConfirmedMeal reports whether any meal of the preparation is CONFIRMED_YES
func (w *Week) HasConfirmedMeal(prepID uuid.UUID) bool {
	for _, m := range w.MealsOf(prepID) {
		if m.IsConfirmed() {
			return true
		}
	}
	return false
}

func (w *Week) moveTargets(sourceID, targetID uuid.UUID) (*ScheduleDay, *ScheduleDay, error) {
	source, ok := w.days[sourceID]
	if !ok {
		return nil, nil, ErrDayNotFound
	}
	target, ok := w.days[targetID]
	if !ok {
		return nil, nil, ErrOutsideWeek
	}
	if !SameWeek(source.Date, target.Date) {
		return nil, nil, ErrOutsideWeek
	}
	if target.DietType != DietUnassigned && target.DietType != source.DietType {
		return nil, nil, ErrDayOccupied
	}
	return source, target, nil
}

func (w *Week) occupy(day *ScheduleDay, diet DietType, now time.Time) {
	if day.DietType == DietUnassigned {
		day.DietType = diet
		day.UpdatedAt = now
	}
}

func (w *Week) releaseIfEmpty(dayID uuid.UUID, now time.Time) {
	d, ok := w.days[dayID]
	if !ok || d.DietType == DietUnassigned {
		return
	}
	if w.IsDayEmpty(dayID) {
		d.Release(now)
	}
}

func (w *Week) dayBefore(a, b uuid.UUID) bool {
	da, okA := w.days[a]
	db, okB := w.days[b]
	if !okA || !okB {
		return false
	}
	return da.Date.Before(db.Date)
}

func (w *Week) lessSlot(dayA uuid.UUID, typeA MealType, idA uuid.UUID, dayB uuid.UUID, typeB MealType, idB uuid.UUID) bool {
	if dayA != dayB {
		if w.dayBefore(dayA, dayB) {
			return true
		}
		if w.dayBefore(dayB, dayA) {
			return false
		}
	}
	if typeA.Order() != typeB.Order() {
		return typeA.Order() < typeB.Order()
	}
	return idA.String() < idB.String()
}

func (w *Week) sortMeals(meals []*Meal) {
	sort.Slice(meals, func(i, j int) bool {
		return w.lessSlot(meals[i].DayID, meals[i].MealType, meals[i].ID, meals[j].DayID, meals[j].MealType, meals[j].ID)
	})
}

// ChallengeOnly reports whether the day holds meals and all of them are
// challenge meals
func (w *Week) ChallengeOnly(dayID uuid.UUID) bool {
	meals := w.MealsOn(dayID)
	if len(meals) == 0 {
		return false
	}
	for _, m := range meals {
		if !m.IsChallenge {
			return false
		}
	}
	return true
}
