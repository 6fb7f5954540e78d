package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/alchemorsel/mealprep/internal/infrastructure/persistence/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockVoteStore struct {
	mock.Mock
}

func (m *mockVoteStore) VotesFor(ctx context.Context, userID uuid.UUID) ([]recipe.Vote, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]recipe.Vote), args.Error(1)
}

func TestWeekCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewWeekCache(memory.NewCacheRepository(), NewKeyBuilder(""), time.Hour, zap.NewNop())
	userID := uuid.New()
	week := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	var dst map[string]int
	hit, err := c.Get(ctx, userID, week, &dst)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Put(ctx, userID, week, map[string]int{"meals": 3}))
	hit, err = c.Get(ctx, userID, week, &dst)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, dst["meals"])

	require.NoError(t, c.Invalidate(ctx, userID, week))
	hit, err = c.Get(ctx, userID, week, &dst)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestVoteStore_ReadsThrough(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	votes := []recipe.Vote{{UserID: userID, RecipeID: uuid.New(), Value: recipe.VoteLike}}
	next := new(mockVoteStore)
	next.On("VotesFor", ctx, userID).Return(votes, nil).Once()
	store := NewVoteStore(next, memory.NewCacheRepository(), NewKeyBuilder("test"), time.Hour, zap.NewNop())

	first, err := store.VotesFor(ctx, userID)
	require.NoError(t, err)
	second, err := store.VotesFor(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, votes[0].RecipeID, first[0].RecipeID)
	assert.Equal(t, first[0].RecipeID, second[0].RecipeID)
	next.AssertNumberOfCalls(t, "VotesFor", 1)

	next.On("VotesFor", ctx, userID).Return([]recipe.Vote{}, nil).Once()
	require.NoError(t, store.Invalidate(ctx, userID))
	third, err := store.VotesFor(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestRecentRecipes(t *testing.T) {
	ctx := context.Background()
	c := NewRecentRecipes(memory.NewCacheRepository(), NewKeyBuilder(""), zap.NewNop())
	userID := uuid.New()

	_, cached, err := c.Recent(ctx, userID)
	require.NoError(t, err)
	assert.False(t, cached)

	a, b := uuid.New(), uuid.New()
	require.NoError(t, c.Remember(ctx, userID, []uuid.UUID{a, b, a}))
	ids, cached, err := c.Recent(ctx, userID)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, ids)

	require.NoError(t, c.Remember(ctx, userID, nil))
	ids, cached, err = c.Recent(ctx, userID)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Len(t, ids, 2)

	require.NoError(t, c.Invalidate(ctx, userID))
	_, cached, err = c.Recent(ctx, userID)
	require.NoError(t, err)
	assert.False(t, cached)
}

func TestKeyBuilder(t *testing.T) {
	kb := NewKeyBuilder("")
	userID := uuid.MustParse("2b1c3d4e-0000-4000-8000-000000000001")

	assert.Equal(t, "mealprep:week:2b1c3d4e-0000-4000-8000-000000000001:2024-03-04",
		kb.WeekKey(userID, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "mealprep:recent:2b1c3d4e-0000-4000-8000-000000000001", kb.RecentKey(userID))
}
