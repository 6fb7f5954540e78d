// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/alchemorsel/mealprep/internal/domain/prepplan"
	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/infrastructure/config"
	gormModels "github.com/alchemorsel/mealprep/internal/infrastructure/persistence/gorm"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DemoDiet is the diet type the demo plan follows
const DemoDiet schedule.DietType = 1

// SetupDatabase opens the SQLite database and migrates the schema
func SetupDatabase(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn(cfg.Path)), &gorm.Config{
		Logger: gormModels.NewLogger(log, cfg.LogLevel, cfg.SlowQueryThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(gormModels.AllModels()...); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	log.Info("SQLite database ready", zap.String("path", cfg.Path))
	return db, nil
}

// dsn builds the connection string. An empty path opens a private in-memory
// database shared by every pooled connection.
func dsn(path string) string {
	if path == "" || path == ":memory:" {
		return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}

func demoID(kind, name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("mealprep:"+kind+":"+name))
}

// SeedDatabase populates an empty database with a demo user, a small catalog
// and a two-batch prep plan
func SeedDatabase(ctx context.Context, db *gorm.DB) error {
	var userCount int64
	if err := db.WithContext(ctx).Model(&gormModels.UserModel{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return nil // Already seeded
	}

	catalog := gormModels.NewCatalogRepository(db)
	users := gormModels.NewUserRepository(db)

	ingredients := []recipe.IngredientInfo{
		{ID: demoID("ingredient", "rice"), Name: "Rice", Tags: []string{"grain"}, CanonicalUnit: recipe.MeasurementUnitGram, Decimals: 0},
		{ID: demoID("ingredient", "chickpeas"), Name: "Chickpeas", Tags: []string{"legume"}, CanonicalUnit: recipe.MeasurementUnitGram, Decimals: 0},
		{ID: demoID("ingredient", "spinach"), Name: "Spinach", Tags: []string{"vegetable"}, CanonicalUnit: recipe.MeasurementUnitGram, Decimals: 0},
		{ID: demoID("ingredient", "peanuts"), Name: "Peanuts", Tags: []string{"nuts"}, CanonicalUnit: recipe.MeasurementUnitGram, Decimals: 0},
		{ID: demoID("ingredient", "coconut-milk"), Name: "Coconut milk", Tags: []string{"dairy-free"}, CanonicalUnit: recipe.MeasurementUnitMilliliter, Decimals: 0},
		{ID: demoID("ingredient", "eggs"), Name: "Eggs", Tags: []string{"egg"}, CanonicalUnit: recipe.MeasurementUnitPiece, Decimals: 0},
	}
	for _, info := range ingredients {
		if err := catalog.SaveIngredient(ctx, info); err != nil {
			return fmt.Errorf("seed ingredient %s: %w", info.Name, err)
		}
	}

	line := func(name string, amount float64, unit recipe.MeasurementUnit) recipe.Ingredient {
		return recipe.Ingredient{IngredientID: demoID("ingredient", name), Name: name, AmountPerServing: amount, Unit: unit}
	}
	recipes := []*recipe.Recipe{
		{
			Slug: "chickpea-curry", Title: "Chickpea Curry",
			MealTypes: []schedule.MealType{schedule.MealTypeDinner, schedule.MealTypeLunch},
			DietTypes: []schedule.DietType{DemoDiet},
			Ingredients: []recipe.Ingredient{
				line("chickpeas", 120, recipe.MeasurementUnitGram),
				line("coconut-milk", 100, recipe.MeasurementUnitMilliliter),
				line("rice", 80, recipe.MeasurementUnitGram),
			},
			Priority: 2,
		},
		{
			Slug: "spinach-rice-bowl", Title: "Spinach Rice Bowl",
			MealTypes: []schedule.MealType{schedule.MealTypeDinner, schedule.MealTypeLunch},
			DietTypes: []schedule.DietType{DemoDiet},
			Ingredients: []recipe.Ingredient{
				line("rice", 90, recipe.MeasurementUnitGram),
				line("spinach", 60, recipe.MeasurementUnitGram),
			},
			Priority: 1,
		},
		{
			Slug: "peanut-noodles", Title: "Peanut Noodles",
			MealTypes: []schedule.MealType{schedule.MealTypeDinner},
			DietTypes: []schedule.DietType{DemoDiet},
			Ingredients: []recipe.Ingredient{
				line("peanuts", 40, recipe.MeasurementUnitGram),
				line("spinach", 30, recipe.MeasurementUnitGram),
			},
		},
		{
			Slug: "spinach-omelette", Title: "Spinach Omelette",
			MealTypes: []schedule.MealType{schedule.MealTypeBreakfast},
			DietTypes: []schedule.DietType{DemoDiet},
			Ingredients: []recipe.Ingredient{
				line("eggs", 2, recipe.MeasurementUnitPiece),
				line("spinach", 25, recipe.MeasurementUnitGram),
			},
		},
	}
	for _, r := range recipes {
		r.ID = demoID("recipe", r.Slug)
		r.Active = true
		if err := catalog.SaveRecipe(ctx, r); err != nil {
			return fmt.Errorf("seed recipe %s: %w", r.Slug, err)
		}
	}

	user := &gormModels.UserModel{
		ID:       demoID("user", "demo"),
		Email:    "demo@mealprep.local",
		Name:     "Demo Cook",
		IsActive: true,
	}
	if err := users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	monday := prepplan.Generator{ID: demoID("generator", "monday-dinner"), Weekday: 0, MealType: schedule.MealTypeDinner}
	monday.Consumers = []prepplan.Consumer{
		{ID: demoID("consumer", "monday-dinner"), GeneratorID: monday.ID, Weekday: 0, MealType: schedule.MealTypeDinner, Servings: 2},
		{ID: demoID("consumer", "tuesday-lunch"), GeneratorID: monday.ID, Weekday: 1, MealType: schedule.MealTypeLunch, Servings: 2},
		{ID: demoID("consumer", "wednesday-dinner"), GeneratorID: monday.ID, Weekday: 2, MealType: schedule.MealTypeDinner, Servings: 2},
	}
	thursday := prepplan.Generator{ID: demoID("generator", "thursday-dinner"), Weekday: 3, MealType: schedule.MealTypeDinner}
	thursday.Consumers = []prepplan.Consumer{
		{ID: demoID("consumer", "thursday-dinner"), GeneratorID: thursday.ID, Weekday: 3, MealType: schedule.MealTypeDinner, Servings: 2},
		{ID: demoID("consumer", "friday-lunch"), GeneratorID: thursday.ID, Weekday: 4, MealType: schedule.MealTypeLunch, Servings: 2},
	}
	plan := &prepplan.Plan{
		UserID:     user.ID,
		TargetDays: 7,
		DietType:   DemoDiet,
		Generators: []prepplan.Generator{monday, thursday},
	}
	if err := catalog.SavePlan(ctx, plan); err != nil {
		return fmt.Errorf("seed plan: %w", err)
	}

	return catalog.SaveVote(ctx, recipe.Vote{
		UserID:   user.ID,
		RecipeID: demoID("recipe", "chickpea-curry"),
		Value:    recipe.VoteLike,
	})
}
