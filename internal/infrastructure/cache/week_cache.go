package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WeekCache stores rendered weeks as JSON
type WeekCache struct {
	repo   outbound.CacheRepository
	keys   *KeyBuilder
	ttl    time.Duration
	logger *zap.Logger
}

// NewWeekCache creates a week cache
func NewWeekCache(repo outbound.CacheRepository, keys *KeyBuilder, ttl time.Duration, logger *zap.Logger) *WeekCache {
	return &WeekCache{
		repo:   repo,
		keys:   keys,
		ttl:    ttl,
		logger: logger.Named("week-cache"),
	}
}

var _ outbound.WeekCache = (*WeekCache)(nil)

// Get loads a cached week into dst
func (c *WeekCache) Get(ctx context.Context, userID uuid.UUID, weekStart time.Time, dst interface{}) (bool, error) {
	data, err := c.repo.Get(ctx, c.keys.WeekKey(userID, weekStart))
	if errors.Is(err, outbound.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("Dropping undecodable cached week",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		_ = c.repo.Delete(ctx, c.keys.WeekKey(userID, weekStart))
		return false, nil
	}
	return true, nil
}

// Put caches a rendered week
func (c *WeekCache) Put(ctx context.Context, userID uuid.UUID, weekStart time.Time, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.repo.Set(ctx, c.keys.WeekKey(userID, weekStart), data, c.ttl)
}

// Invalidate drops a cached week
func (c *WeekCache) Invalidate(ctx context.Context, userID uuid.UUID, weekStart time.Time) error {
	return c.repo.Delete(ctx, c.keys.WeekKey(userID, weekStart))
}
