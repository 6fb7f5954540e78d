package gorm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/prepplan"
	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository serves recipes, ingredients, prep plans and votes from
// the database
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

var (
	_ outbound.RecipeCatalog     = (*CatalogRepository)(nil)
	_ outbound.IngredientCatalog = (*CatalogRepository)(nil)
	_ outbound.PlanProvider      = (*CatalogRepository)(nil)
	_ outbound.VoteStore         = (*CatalogRepository)(nil)
)

// SaveRecipe creates or replaces a recipe with its ingredient lines
func (r *CatalogRepository) SaveRecipe(ctx context.Context, rec *recipe.Recipe) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	model := RecipeToModel(rec)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", rec.ID).Delete(&RecipeIngredientModel{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error
	})
}

// SaveIngredient creates or replaces an ingredient
func (r *CatalogRepository) SaveIngredient(ctx context.Context, info recipe.IngredientInfo) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(IngredientToModel(info)).Error
}

// SavePlan replaces the user's prep plan
func (r *CatalogRepository) SavePlan(ctx context.Context, p *prepplan.Plan) error {
	if err := p.Validate(); err != nil {
		return err
	}
	model := PlanToModel(p)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var generatorIDs []uuid.UUID
		if err := tx.Model(&PlanGeneratorModel{}).Where("user_id = ?", p.UserID).Pluck("id", &generatorIDs).Error; err != nil {
			return err
		}
		if len(generatorIDs) > 0 {
			if err := tx.Where("generator_id IN ?", generatorIDs).Delete(&PlanConsumerModel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", p.UserID).Delete(&PlanGeneratorModel{}).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error
	})
}

// SaveVote records a vote, replacing an earlier vote on the same recipe
func (r *CatalogRepository) SaveVote(ctx context.Context, v recipe.Vote) error {
	if v.VotedAt.IsZero() {
		v.VotedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&RecipeVoteModel{
			UserID:   v.UserID,
			RecipeID: v.RecipeID,
			Value:    string(v.Value),
			VotedAt:  v.VotedAt,
		}).Error
}

// SearchRecipes returns the recipes matching the filter, ordered by id
func (r *CatalogRepository) SearchRecipes(ctx context.Context, filter outbound.RecipeFilter) ([]*recipe.Recipe, error) {
	query := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("id")
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}

	var models []RecipeModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	// Meal and diet types are JSON columns; matching them in Go keeps the
	// query portable between SQLite and PostgreSQL.
	out := make([]*recipe.Recipe, 0, len(models))
	for i := range models {
		rec := ModelToRecipe(&models[i])
		if filter.MealType != "" && !rec.ServesMealType(filter.MealType) {
			continue
		}
		if !rec.AllowsDiet(filter.DietType) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetRecipe returns one recipe
func (r *CatalogRepository) GetRecipe(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	var model RecipeModel
	err := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return ModelToRecipe(&model), nil
}

// IngredientsByTags returns ingredients carrying any of the tags
func (r *CatalogRepository) IngredientsByTags(ctx context.Context, tags []string) ([]uuid.UUID, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	wanted := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		wanted[strings.ToLower(t)] = struct{}{}
	}

	var models []IngredientModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}

	var out []uuid.UUID
	for _, m := range models {
		for _, t := range m.Tags {
			if _, ok := wanted[strings.ToLower(t)]; ok {
				out = append(out, m.ID)
				break
			}
		}
	}
	return out, nil
}

// GetIngredients returns the known ingredients among ids
func (r *CatalogRepository) GetIngredients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]recipe.IngredientInfo, error) {
	out := make(map[uuid.UUID]recipe.IngredientInfo, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var models []IngredientModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	for i := range models {
		out[models[i].ID] = ModelToIngredient(&models[i])
	}
	return out, nil
}

// GetPlan returns the user's plan. A targetDays of zero accepts any cadence.
func (r *CatalogRepository) GetPlan(ctx context.Context, userID uuid.UUID, targetDays int) (*prepplan.Plan, error) {
	query := r.db.WithContext(ctx).
		Preload("Generators", func(db *gorm.DB) *gorm.DB { return db.Order("weekday, meal_type") }).
		Preload("Generators.Consumers", func(db *gorm.DB) *gorm.DB { return db.Order("weekday, meal_type") }).
		Where("user_id = ?", userID)
	if targetDays != 0 {
		query = query.Where("target_days = ?", targetDays)
	}

	var model PrepPlanModel
	if err := query.First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return ModelToPlan(&model), nil
}

// VotesFor returns the user's votes
func (r *CatalogRepository) VotesFor(ctx context.Context, userID uuid.UUID) ([]recipe.Vote, error) {
	var models []RecipeVoteModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("recipe_id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]recipe.Vote, 0, len(models))
	for i := range models {
		out = append(out, ModelToVote(&models[i]))
	}
	return out, nil
}

// notFound maps GORM's missing-row error onto the port's ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return outbound.ErrNotFound
	}
	return err
}
