// Package memory provides in-memory implementations of the outbound ports,
// used in tests and in the single-process demo mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alchemorsel/mealprep/internal/ports/outbound"
)

const defaultTTL = 24 * time.Hour

type cacheItem struct {
	value     []byte
	members   map[string]struct{}
	expiresAt time.Time
}

// CacheRepository implements in-memory cache repository
type CacheRepository struct {
	data  map[string]cacheItem
	now   func() time.Time
	mutex sync.Mutex
}

// NewCacheRepository creates a new in-memory cache repository
func NewCacheRepository() *CacheRepository {
	return &CacheRepository{
		data: make(map[string]cacheItem),
		now:  time.Now,
	}
}

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	item, ok := r.live(key)
	if !ok || item.members != nil {
		return nil, outbound.ErrCacheMiss
	}
	return append([]byte(nil), item.value...), nil
}

// Set stores a value in cache with TTL
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.data[key] = cacheItem{
		value:     append([]byte(nil), value...),
		expiresAt: r.expiry(ttl),
	}
	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.data, key)
	return nil
}

// Exists checks if a key exists
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, ok := r.live(key)
	return ok, nil
}

// SAdd adds members to a set
func (r *CacheRepository) SAdd(ctx context.Context, key string, members ...string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	item, ok := r.live(key)
	if !ok || item.members == nil {
		item = cacheItem{members: make(map[string]struct{}), expiresAt: r.expiry(0)}
	}
	for _, m := range members {
		item.members[m] = struct{}{}
	}
	r.data[key] = item
	return nil
}

// SMembers returns all members of a set
func (r *CacheRepository) SMembers(ctx context.Context, key string) ([]string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	item, ok := r.live(key)
	if !ok {
		return []string{}, nil
	}
	out := make([]string, 0, len(item.members))
	for m := range item.members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// SRem removes members from a set
func (r *CacheRepository) SRem(ctx context.Context, key string, members ...string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	item, ok := r.live(key)
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(item.members, m)
	}
	return nil
}

// live returns the item under key, evicting it when expired
func (r *CacheRepository) live(key string) (cacheItem, bool) {
	item, ok := r.data[key]
	if !ok {
		return cacheItem{}, false
	}
	if r.now().After(item.expiresAt) {
		delete(r.data, key)
		return cacheItem{}, false
	}
	return item, true
}

func (r *CacheRepository) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return r.now().Add(ttl)
}
