package cache

import (
	"context"
	"sort"

	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecentRecipes caches the set of recipes a user cooked recently
type RecentRecipes struct {
	repo   outbound.CacheRepository
	keys   *KeyBuilder
	logger *zap.Logger
}

// NewRecentRecipes creates the recent-recipe cache
func NewRecentRecipes(repo outbound.CacheRepository, keys *KeyBuilder, logger *zap.Logger) *RecentRecipes {
	return &RecentRecipes{
		repo:   repo,
		keys:   keys,
		logger: logger.Named("recent-recipes"),
	}
}

var _ outbound.RecentRecipeCache = (*RecentRecipes)(nil)

// Recent returns the cached recipe ids and whether the set was cached
func (c *RecentRecipes) Recent(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, bool, error) {
	key := c.keys.RecentKey(userID)
	ok, err := c.repo.Exists(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	members, err := c.repo.SMembers(ctx, key)
	if err != nil {
		return nil, false, err
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			c.logger.Debug("Skipping malformed recipe id", zap.String("member", m))
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, true, nil
}

// Remember adds recipe ids to the user's set
func (c *RecentRecipes) Remember(ctx context.Context, userID uuid.UUID, recipeIDs []uuid.UUID) error {
	members := make([]string, len(recipeIDs))
	for i, id := range recipeIDs {
		members[i] = id.String()
	}
	return c.repo.SAdd(ctx, c.keys.RecentKey(userID), members...)
}

// Invalidate drops the user's set
func (c *RecentRecipes) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.repo.Delete(ctx, c.keys.RecentKey(userID))
}
