package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/alchemorsel/mealprep/internal/domain/prepplan"
	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/google/uuid"
)

// Catalog serves recipes, ingredients, prep plans, votes and the user list
// from memory
type Catalog struct {
	mu          sync.RWMutex
	recipes     map[uuid.UUID]*recipe.Recipe
	ingredients map[uuid.UUID]recipe.IngredientInfo
	plans       map[uuid.UUID]*prepplan.Plan
	votes       map[uuid.UUID][]recipe.Vote
	users       []uuid.UUID
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		recipes:     make(map[uuid.UUID]*recipe.Recipe),
		ingredients: make(map[uuid.UUID]recipe.IngredientInfo),
		plans:       make(map[uuid.UUID]*prepplan.Plan),
		votes:       make(map[uuid.UUID][]recipe.Vote),
	}
}

// AddRecipe adds or replaces a recipe
func (c *Catalog) AddRecipe(r *recipe.Recipe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recipes[r.ID] = r
}

// AddIngredient adds or replaces an ingredient
func (c *Catalog) AddIngredient(info recipe.IngredientInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ingredients[info.ID] = info
}

// SetPlan stores the plan of a user and registers the user as active
func (c *Catalog) SetPlan(p *prepplan.Plan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, known := c.plans[p.UserID]; !known {
		c.users = append(c.users, p.UserID)
	}
	c.plans[p.UserID] = p
}

// AddVote records a vote, replacing an earlier vote on the same recipe
func (c *Catalog) AddVote(v recipe.Vote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	votes := c.votes[v.UserID]
	for i := range votes {
		if votes[i].RecipeID == v.RecipeID {
			votes[i] = v
			return
		}
	}
	c.votes[v.UserID] = append(votes, v)
}

// SearchRecipes returns the recipes matching the filter, ordered by id
func (c *Catalog) SearchRecipes(ctx context.Context, filter outbound.RecipeFilter) ([]*recipe.Recipe, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*recipe.Recipe
	for _, r := range c.recipes {
		if filter.ActiveOnly && !r.Active {
			continue
		}
		if filter.MealType != "" && !r.ServesMealType(filter.MealType) {
			continue
		}
		if !r.AllowsDiet(filter.DietType) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// GetRecipe returns one recipe
func (c *Catalog) GetRecipe(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.recipes[id]
	if !ok {
		return nil, outbound.ErrNotFound
	}
	return r, nil
}

// IngredientsByTags returns ingredients carrying any of the tags
func (c *Catalog) IngredientsByTags(ctx context.Context, tags []string) ([]uuid.UUID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	wanted := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		wanted[strings.ToLower(t)] = struct{}{}
	}

	var out []uuid.UUID
	for id, info := range c.ingredients {
		for _, t := range info.Tags {
			if _, ok := wanted[strings.ToLower(t)]; ok {
				out = append(out, id)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// GetIngredients returns the known ingredients among ids
func (c *Catalog) GetIngredients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]recipe.IngredientInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[uuid.UUID]recipe.IngredientInfo, len(ids))
	for _, id := range ids {
		if info, ok := c.ingredients[id]; ok {
			out[id] = info
		}
	}
	return out, nil
}

// GetPlan returns the user's plan. A targetDays of zero accepts any cadence.
func (c *Catalog) GetPlan(ctx context.Context, userID uuid.UUID, targetDays int) (*prepplan.Plan, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.plans[userID]
	if !ok || (targetDays != 0 && p.TargetDays != targetDays) {
		return nil, outbound.ErrNotFound
	}
	return p, nil
}

// VotesFor returns the user's votes
func (c *Catalog) VotesFor(ctx context.Context, userID uuid.UUID) ([]recipe.Vote, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]recipe.Vote(nil), c.votes[userID]...), nil
}

// ActiveUsers returns every user with a plan, in registration order
func (c *Catalog) ActiveUsers(ctx context.Context) ([]uuid.UUID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]uuid.UUID(nil), c.users...), nil
}
