// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/domain/shopping"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by repositories when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys
	ErrCacheMiss = errors.New("cache miss")
)

// UnitOfWork scopes one logical operation to one transaction. Do commits
// when fn returns nil and rolls everything back otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx gives access to the repositories bound to a running transaction
type Tx interface {
	Schedule() ScheduleRepository
	ShoppingList() ShoppingListRepository
	GenerationLogs() GenerationLogRepository
	WeeklyStats() WeeklyStatsRepository
}

// Location identifies the owner and date of a schedule entity so the
// enclosing week can be loaded
type Location struct {
	UserID uuid.UUID
	Date   time.Time
}

// ScheduleRepository persists schedule weeks
type ScheduleRepository interface {
	// LoadWeek loads the days in [start, end] with every preparation and
	// meal on them
	LoadWeek(ctx context.Context, userID uuid.UUID, start, end time.Time) (*schedule.Week, error)
	// SaveWeek upserts every entity of the week and deletes removed ones
	SaveWeek(ctx context.Context, week *schedule.Week) error
	// DeleteRange deletes days, preparations and meals in [start, end]
	DeleteRange(ctx context.Context, userID uuid.UUID, start, end time.Time) error

	LocateDay(ctx context.Context, dayID uuid.UUID) (*Location, error)
	LocateMeal(ctx context.Context, mealID uuid.UUID) (*Location, error)
	LocatePreparation(ctx context.Context, prepID uuid.UUID) (*Location, error)

	// RecipesUsedSince lists recipes of preparations cooked on or after since
	RecipesUsedSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]uuid.UUID, error)
}

// ShoppingListRepository persists shopping list items
type ShoppingListRepository interface {
	ListByWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]*shopping.Item, error)
	FindByID(ctx context.Context, id uuid.UUID) (*shopping.Item, error)
	Save(ctx context.Context, items ...*shopping.Item) error
	Delete(ctx context.Context, ids ...uuid.UUID) error
}

// GenerationLogRepository stores generation audit entries
type GenerationLogRepository interface {
	Record(ctx context.Context, entry *schedule.GenerationLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*schedule.GenerationLog, error)
}

// WeeklyStatsRepository stores weekly confirmation rollups
type WeeklyStatsRepository interface {
	Save(ctx context.Context, stats *schedule.WeeklyStats) error
	Find(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*schedule.WeeklyStats, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Set operations
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SRem(ctx context.Context, key string, members ...string) error
}
