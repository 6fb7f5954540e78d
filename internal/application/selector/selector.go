// Package selector picks recipes for schedule slots. Candidates are filtered
// by meal type, diet and exclusions, narrowed to those sharing the most
// ingredients to use up and then to the highest priority. The survivors are
// drawn at random with a bias against recently used and disliked recipes.
package selector

import (
	"context"
	"sort"
	"strings"

	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Constraints narrow the recipes a slot may receive
type Constraints struct {
	DietType           schedule.DietType
	MealType           schedule.MealType
	ExcludedTags       []string
	ConsumeIngredients []uuid.UUID
	ExcludeRecipeIDs   []uuid.UUID
	ExcludeSlugs       []string

	// Weights above zero make a recipe less likely to be drawn; weights
	// below zero make it more likely.
	Weights map[uuid.UUID]float64
}

// Selector draws recipes from the catalog
type Selector struct {
	catalog     outbound.RecipeCatalog
	ingredients outbound.IngredientCatalog
	rng         outbound.RandomSource
	logger      *zap.Logger
}

// New creates a selector
func New(
	catalog outbound.RecipeCatalog,
	ingredients outbound.IngredientCatalog,
	rng outbound.RandomSource,
	logger *zap.Logger,
) *Selector {
	return &Selector{
		catalog:     catalog,
		ingredients: ingredients,
		rng:         rng,
		logger:      logger.Named("recipe-selector"),
	}
}

// SelectRecipe returns one qualifying recipe, or nil when none qualifies
func (s *Selector) SelectRecipe(ctx context.Context, c Constraints) (*recipe.Recipe, error) {
	found, err := s.catalog.SearchRecipes(ctx, outbound.RecipeFilter{
		MealType:   c.MealType,
		DietType:   c.DietType,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}

	banned, err := s.bannedIngredients(ctx, c.ExcludedTags)
	if err != nil {
		return nil, err
	}

	candidates := eligible(found, c, banned)
	if len(candidates) == 0 {
		s.logger.Debug("No eligible recipe",
			zap.String("meal_type", string(c.MealType)),
			zap.Int("diet_type", int(c.DietType)),
			zap.Int("catalog_hits", len(found)),
		)
		return nil, nil
	}

	candidates = preferPriority(preferConsumers(candidates, c.ConsumeIngredients))
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ID.String() < candidates[j].ID.String()
	})

	return s.draw(candidates, c.Weights), nil
}

func (s *Selector) bannedIngredients(ctx context.Context, tags []string) (map[uuid.UUID]struct{}, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	lowered := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowered = append(lowered, t)
		}
	}
	if len(lowered) == 0 {
		return nil, nil
	}

	ids, err := s.ingredients.IngredientsByTags(ctx, lowered)
	if err != nil {
		return nil, err
	}
	banned := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		banned[id] = struct{}{}
	}
	return banned, nil
}

// draw splits candidates into fresh (weight <= 0) and weighted ones and
// draws an index over both. Landing on the weighted side picks a weighted
// recipe by inverse weight and keeps it with probability 1/(1+w); a
// rejected pick falls back to the fresh side.
func (s *Selector) draw(candidates []*recipe.Recipe, weights map[uuid.UUID]float64) *recipe.Recipe {
	var fresh, weighted []*recipe.Recipe
	for _, r := range candidates {
		if weights[r.ID] > 0 {
			weighted = append(weighted, r)
		} else {
			fresh = append(fresh, r)
		}
	}

	idx := s.rng.Intn(len(fresh) + len(weighted))
	if idx < len(fresh) {
		return s.drawFresh(fresh, weights)
	}

	pick := s.drawWeighted(weighted, weights)
	if len(fresh) == 0 || s.rng.Float64() < 1/(1+weights[pick.ID]) {
		return pick
	}
	return s.drawFresh(fresh, weights)
}

// drawFresh gives every fresh recipe 1-w tickets, so liked recipes win more often
func (s *Selector) drawFresh(fresh []*recipe.Recipe, weights map[uuid.UUID]float64) *recipe.Recipe {
	total := 0.0
	for _, r := range fresh {
		total += 1 - weights[r.ID]
	}
	return pickByTickets(fresh, total, s.rng.Float64(), func(r *recipe.Recipe) float64 {
		return 1 - weights[r.ID]
	})
}

func (s *Selector) drawWeighted(weighted []*recipe.Recipe, weights map[uuid.UUID]float64) *recipe.Recipe {
	total := 0.0
	for _, r := range weighted {
		total += 1 / weights[r.ID]
	}
	return pickByTickets(weighted, total, s.rng.Float64(), func(r *recipe.Recipe) float64 {
		return 1 / weights[r.ID]
	})
}

func pickByTickets(from []*recipe.Recipe, total, u float64, tickets func(*recipe.Recipe) float64) *recipe.Recipe {
	target := u * total
	acc := 0.0
	for _, r := range from {
		acc += tickets(r)
		if target < acc {
			return r
		}
	}
	return from[len(from)-1]
}

func eligible(found []*recipe.Recipe, c Constraints, banned map[uuid.UUID]struct{}) []*recipe.Recipe {
	excludedIDs := make(map[uuid.UUID]struct{}, len(c.ExcludeRecipeIDs))
	for _, id := range c.ExcludeRecipeIDs {
		excludedIDs[id] = struct{}{}
	}
	excludedSlugs := make(map[string]struct{}, len(c.ExcludeSlugs))
	for _, slug := range c.ExcludeSlugs {
		excludedSlugs[strings.ToLower(slug)] = struct{}{}
	}

	var out []*recipe.Recipe
	for _, r := range found {
		if !r.Active || !r.ServesMealType(c.MealType) || !r.AllowsDiet(c.DietType) {
			continue
		}
		if r.UsesAny(banned) {
			continue
		}
		if _, skip := excludedIDs[r.ID]; skip {
			continue
		}
		if _, skip := excludedSlugs[strings.ToLower(r.Slug)]; skip {
			continue
		}
		out = append(out, r)
	}
	return out
}

// preferConsumers keeps only the candidates sharing the most ingredients with
// the consume set. Without any overlap every candidate stays.
func preferConsumers(candidates []*recipe.Recipe, consume []uuid.UUID) []*recipe.Recipe {
	if len(consume) == 0 {
		return candidates
	}
	set := make(map[uuid.UUID]struct{}, len(consume))
	for _, id := range consume {
		set[id] = struct{}{}
	}

	best := 0
	for _, r := range candidates {
		if n := r.CountShared(set); n > best {
			best = n
		}
	}
	if best == 0 {
		return candidates
	}

	var out []*recipe.Recipe
	for _, r := range candidates {
		if r.CountShared(set) == best {
			out = append(out, r)
		}
	}
	return out
}

// preferPriority keeps only the candidates with the highest static priority
func preferPriority(candidates []*recipe.Recipe) []*recipe.Recipe {
	best := candidates[0].Priority
	for _, r := range candidates[1:] {
		if r.Priority > best {
			best = r.Priority
		}
	}

	out := candidates[:0:0]
	for _, r := range candidates {
		if r.Priority == best {
			out = append(out, r)
		}
	}
	return out
}
