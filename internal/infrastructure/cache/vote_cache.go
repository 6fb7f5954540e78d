package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VoteStore reads votes through the cache
type VoteStore struct {
	next   outbound.VoteStore
	repo   outbound.CacheRepository
	keys   *KeyBuilder
	ttl    time.Duration
	logger *zap.Logger
}

// NewVoteStore wraps next with a read-through cache
func NewVoteStore(next outbound.VoteStore, repo outbound.CacheRepository, keys *KeyBuilder, ttl time.Duration, logger *zap.Logger) *VoteStore {
	return &VoteStore{
		next:   next,
		repo:   repo,
		keys:   keys,
		ttl:    ttl,
		logger: logger.Named("vote-cache"),
	}
}

var _ outbound.VoteStore = (*VoteStore)(nil)

// VotesFor returns cached votes, loading them on a miss. Cache failures
// fall through to the underlying store.
func (s *VoteStore) VotesFor(ctx context.Context, userID uuid.UUID) ([]recipe.Vote, error) {
	key := s.keys.VotesKey(userID)

	data, err := s.repo.Get(ctx, key)
	if err == nil {
		var votes []recipe.Vote
		if err := json.Unmarshal(data, &votes); err == nil {
			return votes, nil
		}
	} else if !errors.Is(err, outbound.ErrCacheMiss) {
		s.logger.Warn("Vote cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
	}

	votes, err := s.next.VotesFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(votes); err == nil {
		if err := s.repo.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn("Vote cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	return votes, nil
}

// Invalidate drops a user's cached votes
func (s *VoteStore) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Delete(ctx, s.keys.VotesKey(userID))
}
