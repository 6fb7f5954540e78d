package gorm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/domain/shopping"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/alchemorsel/mealprep/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type RepositoryTestSuite struct {
	suite.Suite
	ctx     context.Context
	db      *gorm.DB
	uow     *UnitOfWork
	catalog *CatalogRepository
	users   *UserRepository
	factory *testutil.Factory
	userID  uuid.UUID
	monday  time.Time
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func (s *RepositoryTestSuite) SetupTest() {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: NewLogger(zap.NewNop(), "error", 0),
	})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(AllModels()...))

	s.ctx = context.Background()
	s.db = db
	s.uow = NewUnitOfWork(db)
	s.catalog = NewCatalogRepository(db)
	s.users = NewUserRepository(db)
	s.factory = testutil.NewFactory(11)
	s.userID = uuid.New()
	s.monday = testutil.Monday()
}

func (s *RepositoryTestSuite) TearDownTest() {
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (s *RepositoryTestSuite) do(fn func(tx outbound.Tx) error) error {
	return s.uow.Do(s.ctx, func(ctx context.Context, tx outbound.Tx) error {
		return fn(tx)
	})
}

// seedWeek saves a Monday batch eaten Monday and Wednesday
func (s *RepositoryTestSuite) seedWeek(recipeID uuid.UUID) *schedule.Week {
	now := s.monday
	week := schedule.NewWeek(s.userID, s.monday, schedule.WeekEnd(s.monday))
	mon := schedule.NewScheduleDay(s.userID, s.monday, 1, now)
	wed := schedule.NewScheduleDay(s.userID, s.monday.AddDate(0, 0, 2), 1, now)
	week.AddDay(mon)
	week.AddDay(wed)

	prep := schedule.NewPreparation(s.userID, mon.ID, schedule.MealTypeDinner, recipeID, now)
	prep.Servings = 4
	week.AddPreparation(prep)
	week.AddMeal(schedule.NewMeal(prep, mon.ID, schedule.MealTypeDinner, 2, now))
	week.AddMeal(schedule.NewMeal(prep, wed.ID, schedule.MealTypeDinner, 2, now))

	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		return tx.Schedule().SaveWeek(s.ctx, week)
	}))
	return week
}

func (s *RepositoryTestSuite) load() *schedule.Week {
	var week *schedule.Week
	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		var err error
		week, err = tx.Schedule().LoadWeek(s.ctx, s.userID, s.monday, schedule.WeekEnd(s.monday))
		return err
	}))
	return week
}

func (s *RepositoryTestSuite) TestSaveAndLoadWeek() {
	recipeID := uuid.New()
	saved := s.seedWeek(recipeID)

	week := s.load()
	s.Len(week.Days(), 2)
	s.Require().Len(week.Preparations(), 1)
	s.Len(week.Meals(), 2)

	prep := week.Preparations()[0]
	s.Equal(saved.Preparations()[0].ID, prep.ID)
	s.Equal(4, prep.Servings)
	s.Equal(recipeID, prep.RecipeID)

	meals := week.MealsOf(prep.ID)
	s.Require().Len(meals, 2)
	s.False(meals[0].IsLeftover)
	s.True(meals[1].IsLeftover)
	s.Equal(schedule.ConfirmUnset, meals[1].Status)

	day, ok := week.DayOn(s.monday.AddDate(0, 0, 2))
	s.Require().True(ok)
	s.Equal(schedule.DietType(1), day.DietType)
	s.True(day.Date.Equal(s.monday.AddDate(0, 0, 2)))
}

func (s *RepositoryTestSuite) TestSaveWeek_DeletesRemovedRows() {
	s.seedWeek(uuid.New())

	week := s.load()
	prep := week.Preparations()[0]
	leftover := week.MealsOf(prep.ID)[1]
	week.RemoveMeal(leftover.ID, s.monday)
	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		return tx.Schedule().SaveWeek(s.ctx, week)
	}))

	reloaded := s.load()
	s.Len(reloaded.Meals(), 1)
	_, found := reloaded.Meal(leftover.ID)
	s.False(found)

	reloaded.RemovePreparation(prep.ID, s.monday)
	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		return tx.Schedule().SaveWeek(s.ctx, reloaded)
	}))
	final := s.load()
	s.Empty(final.Preparations())
	s.Empty(final.Meals())
}

func (s *RepositoryTestSuite) TestUnitOfWork_RollsBackOnError() {
	boom := errors.New("boom")
	err := s.do(func(tx outbound.Tx) error {
		week := schedule.NewWeek(s.userID, s.monday, schedule.WeekEnd(s.monday))
		week.AddDay(schedule.NewScheduleDay(s.userID, s.monday, 1, s.monday))
		if err := tx.Schedule().SaveWeek(s.ctx, week); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)
	s.True(s.load().IsEmpty())
}

func (s *RepositoryTestSuite) TestDeleteRange() {
	s.seedWeek(uuid.New())

	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		return tx.Schedule().DeleteRange(s.ctx, s.userID, s.monday.AddDate(0, 0, 1), s.monday.AddDate(0, 0, 6))
	}))
	week := s.load()
	s.Len(week.Days(), 1)
	s.Len(week.Preparations(), 1)
	s.Len(week.Meals(), 1)

	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		return tx.Schedule().DeleteRange(s.ctx, s.userID, s.monday, s.monday)
	}))
	s.True(s.load().IsEmpty())
}

func (s *RepositoryTestSuite) TestLocate() {
	week := s.seedWeek(uuid.New())
	prep := week.Preparations()[0]
	leftover := week.MealsOf(prep.ID)[1]

	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		loc, err := tx.Schedule().LocatePreparation(s.ctx, prep.ID)
		s.Require().NoError(err)
		s.Equal(s.userID, loc.UserID)
		s.True(loc.Date.Equal(s.monday))

		loc, err = tx.Schedule().LocateMeal(s.ctx, leftover.ID)
		s.Require().NoError(err)
		s.True(loc.Date.Equal(s.monday.AddDate(0, 0, 2)))

		loc, err = tx.Schedule().LocateDay(s.ctx, leftover.DayID)
		s.Require().NoError(err)
		s.Equal(s.userID, loc.UserID)

		_, err = tx.Schedule().LocateMeal(s.ctx, uuid.New())
		s.ErrorIs(err, outbound.ErrNotFound)
		_, err = tx.Schedule().LocateDay(s.ctx, uuid.New())
		s.ErrorIs(err, outbound.ErrNotFound)
		return nil
	}))
}

func (s *RepositoryTestSuite) TestRecipesUsedSince_KeepsRepeats() {
	recipeID := uuid.New()
	s.seedWeek(recipeID)

	next := s.monday.AddDate(0, 0, 7)
	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		week := schedule.NewWeek(s.userID, next, schedule.WeekEnd(next))
		day := schedule.NewScheduleDay(s.userID, next, 1, next)
		week.AddDay(day)
		prep := schedule.NewPreparation(s.userID, day.ID, schedule.MealTypeDinner, recipeID, next)
		prep.Servings = 2
		week.AddPreparation(prep)
		week.AddMeal(schedule.NewMeal(prep, day.ID, schedule.MealTypeDinner, 2, next))
		return tx.Schedule().SaveWeek(s.ctx, week)
	}))

	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		ids, err := tx.Schedule().RecipesUsedSince(s.ctx, s.userID, s.monday)
		s.Require().NoError(err)
		s.Equal([]uuid.UUID{recipeID, recipeID}, ids)

		ids, err = tx.Schedule().RecipesUsedSince(s.ctx, s.userID, next)
		s.Require().NoError(err)
		s.Len(ids, 1)

		ids, err = tx.Schedule().RecipesUsedSince(s.ctx, uuid.New(), s.monday)
		s.Require().NoError(err)
		s.Empty(ids)
		return nil
	}))
}

func (s *RepositoryTestSuite) TestShoppingList() {
	prepID := uuid.New()
	ingredientID := uuid.New()
	claimed := &shopping.Item{
		ID: uuid.New(), UserID: s.userID, IngredientID: ingredientID, WeekStart: s.monday,
		Quantity: 400, Unit: recipe.MeasurementUnitGram, PreparationID: prepID,
	}
	pool := &shopping.Item{
		ID: uuid.New(), UserID: s.userID, IngredientID: ingredientID, WeekStart: s.monday,
		Quantity: 50, Unit: recipe.MeasurementUnitGram, Checked: true,
	}

	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		return tx.ShoppingList().Save(s.ctx, claimed, pool)
	}))

	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		items, err := tx.ShoppingList().ListByWeek(s.ctx, s.userID, s.monday)
		s.Require().NoError(err)
		s.Len(items, 2)

		found, err := tx.ShoppingList().FindByID(s.ctx, pool.ID)
		s.Require().NoError(err)
		s.Equal(uuid.Nil, found.PreparationID)
		s.True(found.Checked)
		s.InDelta(50, found.Quantity, 1e-9)

		found, err = tx.ShoppingList().FindByID(s.ctx, claimed.ID)
		s.Require().NoError(err)
		s.Equal(prepID, found.PreparationID)

		found.Quantity = 600
		s.Require().NoError(tx.ShoppingList().Save(s.ctx, found))
		return tx.ShoppingList().Delete(s.ctx, pool.ID)
	}))

	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		items, err := tx.ShoppingList().ListByWeek(s.ctx, s.userID, s.monday)
		s.Require().NoError(err)
		s.Require().Len(items, 1)
		s.InDelta(600, items[0].Quantity, 1e-9)

		_, err = tx.ShoppingList().FindByID(s.ctx, pool.ID)
		s.ErrorIs(err, outbound.ErrNotFound)

		other, err := tx.ShoppingList().ListByWeek(s.ctx, s.userID, s.monday.AddDate(0, 0, 7))
		s.Require().NoError(err)
		s.Empty(other)
		return nil
	}))
}

func (s *RepositoryTestSuite) TestGenerationLogs() {
	for i := 0; i < 3; i++ {
		entry := &schedule.GenerationLog{
			ID:     uuid.New(),
			UserID: s.userID,
			Start:  s.monday,
			End:    schedule.WeekEnd(s.monday),
			Unfilled: []schedule.SlotRef{
				{Date: s.monday.AddDate(0, 0, i), MealType: schedule.MealTypeBreakfast},
			},
			CreatedAt: s.monday.Add(time.Duration(i) * time.Hour),
		}
		s.Require().NoError(s.do(func(tx outbound.Tx) error {
			return tx.GenerationLogs().Record(s.ctx, entry)
		}))
	}

	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		logs, err := tx.GenerationLogs().ListByUser(s.ctx, s.userID, 2)
		s.Require().NoError(err)
		s.Require().Len(logs, 2)
		s.Require().Len(logs[0].Unfilled, 1)
		s.True(logs[0].Unfilled[0].Date.Equal(s.monday.AddDate(0, 0, 2)))
		s.Equal(schedule.MealTypeBreakfast, logs[0].Unfilled[0].MealType)

		all, err := tx.GenerationLogs().ListByUser(s.ctx, s.userID, 0)
		s.Require().NoError(err)
		s.Len(all, 3)
		return nil
	}))
}

func (s *RepositoryTestSuite) TestWeeklyStats() {
	stats := &schedule.WeeklyStats{
		UserID: s.userID, WeekStart: s.monday, Planned: 4, ConfirmedYes: 1, Unset: 3, ComputedAt: s.monday,
	}
	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		_, err := tx.WeeklyStats().Find(s.ctx, s.userID, s.monday)
		s.ErrorIs(err, outbound.ErrNotFound)
		return tx.WeeklyStats().Save(s.ctx, stats)
	}))

	stats.ConfirmedYes, stats.Unset = 3, 1
	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		return tx.WeeklyStats().Save(s.ctx, stats)
	}))

	s.Require().NoError(s.do(func(tx outbound.Tx) error {
		found, err := tx.WeeklyStats().Find(s.ctx, s.userID, s.monday)
		s.Require().NoError(err)
		s.Equal(4, found.Planned)
		s.Equal(3, found.ConfirmedYes)
		s.Equal(1, found.Unset)
		return nil
	}))
}

func (s *RepositoryTestSuite) TestCatalog_Recipes() {
	rice := s.factory.Ingredient("Grain")
	s.Require().NoError(s.catalog.SaveIngredient(s.ctx, rice))

	dinner := s.factory.Recipe(schedule.MealTypeDinner).WithDiets(1).WithIngredient(rice, 100).Build()
	lunch := s.factory.Recipe(schedule.MealTypeLunch).WithDiets(2).Build()
	retired := s.factory.Recipe(schedule.MealTypeDinner).Inactive().Build()
	for _, r := range []*recipe.Recipe{dinner, lunch, retired} {
		s.Require().NoError(s.catalog.SaveRecipe(s.ctx, r))
	}

	found, err := s.catalog.SearchRecipes(s.ctx, outbound.RecipeFilter{MealType: schedule.MealTypeDinner, DietType: 1, ActiveOnly: true})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(dinner.ID, found[0].ID)
	s.Require().Len(found[0].Ingredients, 1)
	s.Equal(rice.ID, found[0].Ingredients[0].IngredientID)
	s.InDelta(100, found[0].Ingredients[0].AmountPerServing, 1e-9)

	found, err = s.catalog.SearchRecipes(s.ctx, outbound.RecipeFilter{MealType: schedule.MealTypeDinner})
	s.Require().NoError(err)
	s.Len(found, 2)

	// resaving replaces the ingredient lines
	dinner.Ingredients = nil
	s.Require().NoError(s.catalog.SaveRecipe(s.ctx, dinner))
	got, err := s.catalog.GetRecipe(s.ctx, dinner.ID)
	s.Require().NoError(err)
	s.Empty(got.Ingredients)

	_, err = s.catalog.GetRecipe(s.ctx, uuid.New())
	s.ErrorIs(err, outbound.ErrNotFound)
}

func (s *RepositoryTestSuite) TestCatalog_Ingredients() {
	nuts := s.factory.Ingredient("nuts")
	dairy := s.factory.Ingredient("dairy", "lactose")
	plain := s.factory.Ingredient()
	for _, info := range []recipe.IngredientInfo{nuts, dairy, plain} {
		s.Require().NoError(s.catalog.SaveIngredient(s.ctx, info))
	}

	ids, err := s.catalog.IngredientsByTags(s.ctx, []string{"NUTS", "lactose"})
	s.Require().NoError(err)
	s.ElementsMatch([]uuid.UUID{nuts.ID, dairy.ID}, ids)

	infos, err := s.catalog.GetIngredients(s.ctx, []uuid.UUID{plain.ID, uuid.New()})
	s.Require().NoError(err)
	s.Require().Len(infos, 1)
	s.Equal(plain.Name, infos[plain.ID].Name)
	s.Equal(recipe.MeasurementUnitGram, infos[plain.ID].CanonicalUnit)
}

func (s *RepositoryTestSuite) TestCatalog_Plans() {
	plan := testutil.NewPlanBuilder(s.userID, 1).
		Generator(0, schedule.MealTypeDinner).
		Consumer(0, schedule.MealTypeDinner, 2).
		Consumer(2, schedule.MealTypeDinner, 2).
		Build()
	plan.TargetDays = 7
	s.Require().NoError(s.catalog.SavePlan(s.ctx, plan))

	got, err := s.catalog.GetPlan(s.ctx, s.userID, 7)
	s.Require().NoError(err)
	s.Require().Len(got.Generators, 1)
	s.Len(got.Generators[0].Consumers, 2)
	s.Equal(2, got.DefaultServings())

	_, err = s.catalog.GetPlan(s.ctx, s.userID, 5)
	s.ErrorIs(err, outbound.ErrNotFound)
	_, err = s.catalog.GetPlan(s.ctx, uuid.New(), 0)
	s.ErrorIs(err, outbound.ErrNotFound)

	replacement := testutil.NewPlanBuilder(s.userID, 2).
		Generator(3, schedule.MealTypeLunch).
		Consumer(3, schedule.MealTypeLunch, 1).
		Build()
	replacement.TargetDays = 7
	s.Require().NoError(s.catalog.SavePlan(s.ctx, replacement))

	got, err = s.catalog.GetPlan(s.ctx, s.userID, 0)
	s.Require().NoError(err)
	s.Equal(schedule.DietType(2), got.DietType)
	s.Require().Len(got.Generators, 1)
	s.Equal(3, got.Generators[0].Weekday)

	var consumers int64
	s.Require().NoError(s.db.Model(&PlanConsumerModel{}).Count(&consumers).Error)
	s.EqualValues(1, consumers)
}

func (s *RepositoryTestSuite) TestCatalog_Votes() {
	recipeID := uuid.New()
	s.Require().NoError(s.catalog.SaveVote(s.ctx, recipe.Vote{UserID: s.userID, RecipeID: recipeID, Value: recipe.VoteLike}))
	s.Require().NoError(s.catalog.SaveVote(s.ctx, recipe.Vote{UserID: s.userID, RecipeID: recipeID, Value: recipe.VoteHate}))

	votes, err := s.catalog.VotesFor(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(votes, 1)
	s.Equal(recipe.VoteHate, votes[0].Value)
	s.False(votes[0].VotedAt.IsZero())
}

func (s *RepositoryTestSuite) TestUsers_ActiveUsersWithPlans() {
	planned := &UserModel{Email: "Planned@Example.com", Name: "Planned", IsActive: true}
	idle := &UserModel{Email: "idle@example.com", Name: "Idle", IsActive: true}
	for _, u := range []*UserModel{planned, idle} {
		s.Require().NoError(s.users.SaveUser(s.ctx, u))
	}
	plan := testutil.NewPlanBuilder(planned.ID, 1).
		Generator(0, schedule.MealTypeDinner).
		Consumer(0, schedule.MealTypeDinner, 2).
		Build()
	s.Require().NoError(s.catalog.SavePlan(s.ctx, plan))

	ids, err := s.users.ActiveUsers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{planned.ID}, ids)

	found, err := s.users.FindByEmail(s.ctx, "PLANNED@example.com")
	s.Require().NoError(err)
	s.Equal(planned.ID, found.ID)

	err = s.users.SaveUser(s.ctx, &UserModel{Email: "idle@example.com", Name: "Twin"})
	s.ErrorIs(err, ErrDuplicateEmail)
}

func TestNullableID(t *testing.T) {
	assert.Nil(t, nullableID(uuid.Nil))
	id := uuid.New()
	require.NotNil(t, nullableID(id))
	assert.Equal(t, id, idOrNil(nullableID(id)))
	assert.Equal(t, uuid.Nil, idOrNil(nil))
}
