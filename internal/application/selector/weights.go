package selector

import (
	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/google/uuid"
)

// WeightsFor builds the selection weights for a user: hated recipes get
// hatePenalty, liked ones -likeBonus, and each recent use adds one.
func WeightsFor(votes []recipe.Vote, recent []uuid.UUID, hatePenalty, likeBonus float64) map[uuid.UUID]float64 {
	weights := make(map[uuid.UUID]float64, len(votes)+len(recent))
	for _, v := range votes {
		switch v.Value {
		case recipe.VoteHate:
			weights[v.RecipeID] += hatePenalty
		case recipe.VoteLike:
			weights[v.RecipeID] -= likeBonus
		}
	}
	for _, id := range recent {
		weights[id]++
	}
	return weights
}
