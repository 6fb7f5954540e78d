package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alchemorsel/mealprep/internal/infrastructure/config"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestRepository connects to REDIS_TEST_HOST (default localhost) and
// skips when no server answers
func newTestRepository(t *testing.T) *CacheRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}
	host := os.Getenv("REDIS_TEST_HOST")
	if host == "" {
		host = "localhost"
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	client, err := NewClient(ctx, config.RedisConfig{
		Host:        host,
		Port:        6379,
		DialTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewCacheRepository(client, "test:"+uuid.NewString(), zap.NewNop())
}

func TestCacheRepository_Values(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "week")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "week", []byte(`{"days":7}`), time.Minute))
	got, err := repo.Get(ctx, "week")
	require.NoError(t, err)
	assert.Equal(t, `{"days":7}`, string(got))

	exists, err := repo.Exists(ctx, "week")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Delete(ctx, "week"))
	exists, err = repo.Exists(ctx, "week")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCacheRepository_Sets(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	t.Cleanup(func() { _ = repo.Delete(context.Background(), "index") })

	require.NoError(t, repo.SAdd(ctx, "index", "a", "b"))
	require.NoError(t, repo.SRem(ctx, "index", "a"))

	members, err := repo.SMembers(ctx, "index")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, members)
}

func TestCacheRepository_Key(t *testing.T) {
	assert.Equal(t, "week", (&CacheRepository{}).key("week"))
	assert.Equal(t, "mealprep:week", (&CacheRepository{keyPrefix: "mealprep"}).key("week"))
}
