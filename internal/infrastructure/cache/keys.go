// Package cache provides the planner's typed caches on top of a
// CacheRepository: rendered weeks, recipe votes and recently cooked recipes.
package cache

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// KeyBuilder builds namespaced cache keys
type KeyBuilder struct {
	prefix    string
	separator string
}

// NewKeyBuilder creates a new key builder
func NewKeyBuilder(prefix string) *KeyBuilder {
	if prefix == "" {
		prefix = "mealprep"
	}
	return &KeyBuilder{
		prefix:    prefix,
		separator: ":",
	}
}

// BuildKey joins components under the prefix
func (kb *KeyBuilder) BuildKey(components ...string) string {
	parts := make([]string, 0, len(components)+1)
	parts = append(parts, kb.prefix)
	parts = append(parts, components...)
	return strings.Join(parts, kb.separator)
}

// WeekKey is the key of a user's rendered week
func (kb *KeyBuilder) WeekKey(userID uuid.UUID, weekStart time.Time) string {
	return kb.BuildKey("week", userID.String(), weekStart.Format("2006-01-02"))
}

// VotesKey is the key of a user's votes
func (kb *KeyBuilder) VotesKey(userID uuid.UUID) string {
	return kb.BuildKey("votes", userID.String())
}

// RecentKey is the key of a user's recently cooked recipe set
func (kb *KeyBuilder) RecentKey(userID uuid.UUID) string {
	return kb.BuildKey("recent", userID.String())
}
