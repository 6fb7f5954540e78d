package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/domain/shopping"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/google/uuid"
)

type statsKey struct {
	userID uuid.UUID
	week   time.Time
}

type snapshot struct {
	days  map[uuid.UUID]schedule.ScheduleDay
	preps map[uuid.UUID]schedule.Preparation
	meals map[uuid.UUID]schedule.Meal
	items map[uuid.UUID]shopping.Item
	logs  []schedule.GenerationLog
	stats map[statsKey]schedule.WeeklyStats
}

// Store holds schedules and shopping lists in memory. Values are stored by
// copy so callers never share pointers with the store.
type Store struct {
	mu sync.Mutex
	snapshot
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{snapshot: snapshot{
		days:  make(map[uuid.UUID]schedule.ScheduleDay),
		preps: make(map[uuid.UUID]schedule.Preparation),
		meals: make(map[uuid.UUID]schedule.Meal),
		items: make(map[uuid.UUID]shopping.Item),
		stats: make(map[statsKey]schedule.WeeklyStats),
	}}
}

func (s *Store) clone() snapshot {
	c := snapshot{
		days:  make(map[uuid.UUID]schedule.ScheduleDay, len(s.days)),
		preps: make(map[uuid.UUID]schedule.Preparation, len(s.preps)),
		meals: make(map[uuid.UUID]schedule.Meal, len(s.meals)),
		items: make(map[uuid.UUID]shopping.Item, len(s.items)),
		logs:  append([]schedule.GenerationLog(nil), s.logs...),
		stats: make(map[statsKey]schedule.WeeklyStats, len(s.stats)),
	}
	for k, v := range s.days {
		c.days[k] = v
	}
	for k, v := range s.preps {
		c.preps[k] = v
	}
	for k, v := range s.meals {
		c.meals[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.stats {
		c.stats[k] = v
	}
	return c
}

// UnitOfWork serialises operations on a Store and rolls back failed ones
type UnitOfWork struct {
	store *Store
}

// NewUnitOfWork creates a unit of work over store
func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

// Do runs fn with the store locked, restoring the previous state when fn fails
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx outbound.Tx) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	before := u.store.clone()
	if err := fn(ctx, &tx{store: u.store}); err != nil {
		u.store.snapshot = before
		return err
	}
	return nil
}

type tx struct {
	store *Store
}

func (t *tx) Schedule() outbound.ScheduleRepository         { return scheduleRepo{t.store} }
func (t *tx) ShoppingList() outbound.ShoppingListRepository { return shoppingRepo{t.store} }
func (t *tx) GenerationLogs() outbound.GenerationLogRepository {
	return logRepo{t.store}
}
func (t *tx) WeeklyStats() outbound.WeeklyStatsRepository { return statsRepo{t.store} }

type scheduleRepo struct{ s *Store }

func (r scheduleRepo) LoadWeek(ctx context.Context, userID uuid.UUID, start, end time.Time) (*schedule.Week, error) {
	w := schedule.NewWeek(userID, start, end)
	for _, d := range r.s.days {
		if d.UserID == userID && w.Contains(d.Date) {
			day := d
			w.AddDay(&day)
		}
	}
	for _, p := range r.s.preps {
		if _, ok := w.Day(p.DayID); ok {
			prep := p
			w.AddPreparation(&prep)
		}
	}
	for _, m := range r.s.meals {
		if _, ok := w.Day(m.DayID); ok {
			meal := m
			w.AddMeal(&meal)
		}
	}
	return w, nil
}

func (r scheduleRepo) SaveWeek(ctx context.Context, w *schedule.Week) error {
	for _, d := range w.Days() {
		r.s.days[d.ID] = *d
	}
	for _, p := range w.Preparations() {
		r.s.preps[p.ID] = *p
	}
	for _, m := range w.Meals() {
		r.s.meals[m.ID] = *m
	}
	meals, preps := w.Removed()
	for _, id := range meals {
		delete(r.s.meals, id)
	}
	for _, id := range preps {
		delete(r.s.preps, id)
	}
	return nil
}

func (r scheduleRepo) DeleteRange(ctx context.Context, userID uuid.UUID, start, end time.Time) error {
	w := schedule.NewWeek(userID, start, end)
	doomed := make(map[uuid.UUID]struct{})
	for id, d := range r.s.days {
		if d.UserID == userID && w.Contains(d.Date) {
			doomed[id] = struct{}{}
			delete(r.s.days, id)
		}
	}
	for id, p := range r.s.preps {
		if _, ok := doomed[p.DayID]; ok {
			delete(r.s.preps, id)
		}
	}
	for id, m := range r.s.meals {
		if _, ok := doomed[m.DayID]; ok {
			delete(r.s.meals, id)
		}
	}
	return nil
}

func (r scheduleRepo) LocateDay(ctx context.Context, dayID uuid.UUID) (*outbound.Location, error) {
	d, ok := r.s.days[dayID]
	if !ok {
		return nil, outbound.ErrNotFound
	}
	return &outbound.Location{UserID: d.UserID, Date: d.Date}, nil
}

func (r scheduleRepo) LocateMeal(ctx context.Context, mealID uuid.UUID) (*outbound.Location, error) {
	m, ok := r.s.meals[mealID]
	if !ok {
		return nil, outbound.ErrNotFound
	}
	return r.LocateDay(ctx, m.DayID)
}

func (r scheduleRepo) LocatePreparation(ctx context.Context, prepID uuid.UUID) (*outbound.Location, error) {
	p, ok := r.s.preps[prepID]
	if !ok {
		return nil, outbound.ErrNotFound
	}
	return r.LocateDay(ctx, p.DayID)
}

func (r scheduleRepo) RecipesUsedSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, p := range r.s.preps {
		d, ok := r.s.days[p.DayID]
		if !ok || p.UserID != userID || d.Date.Before(since) {
			continue
		}
		out = append(out, p.RecipeID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

type shoppingRepo struct{ s *Store }

func (r shoppingRepo) ListByWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]*shopping.Item, error) {
	var out []*shopping.Item
	for _, it := range r.s.items {
		if it.UserID == userID && it.WeekStart.Equal(weekStart) {
			item := it
			out = append(out, &item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r shoppingRepo) FindByID(ctx context.Context, id uuid.UUID) (*shopping.Item, error) {
	it, ok := r.s.items[id]
	if !ok {
		return nil, outbound.ErrNotFound
	}
	return &it, nil
}

func (r shoppingRepo) Save(ctx context.Context, items ...*shopping.Item) error {
	for _, it := range items {
		r.s.items[it.ID] = *it
	}
	return nil
}

func (r shoppingRepo) Delete(ctx context.Context, ids ...uuid.UUID) error {
	for _, id := range ids {
		delete(r.s.items, id)
	}
	return nil
}

type logRepo struct{ s *Store }

func (r logRepo) Record(ctx context.Context, entry *schedule.GenerationLog) error {
	r.s.logs = append(r.s.logs, *entry)
	return nil
}

func (r logRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*schedule.GenerationLog, error) {
	var out []*schedule.GenerationLog
	for i := len(r.s.logs) - 1; i >= 0; i-- {
		if r.s.logs[i].UserID != userID {
			continue
		}
		entry := r.s.logs[i]
		out = append(out, &entry)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type statsRepo struct{ s *Store }

func (r statsRepo) Save(ctx context.Context, st *schedule.WeeklyStats) error {
	r.s.stats[statsKey{st.UserID, st.WeekStart}] = *st
	return nil
}

func (r statsRepo) Find(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*schedule.WeeklyStats, error) {
	st, ok := r.s.stats[statsKey{userID, weekStart}]
	if !ok {
		return nil, outbound.ErrNotFound
	}
	return &st, nil
}
