package schedule

import (
	"context"

	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/ports/inbound"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/alchemorsel/mealprep/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func (s *ServiceTestSuite) confirm(mealID uuid.UUID, status schedule.ConfirmStatus) error {
	return s.service.ConfirmMeal(s.ctx, inbound.ConfirmMealCommand{
		UserID: s.userID,
		MealID: mealID,
		Status: status,
	})
}

func (s *ServiceTestSuite) TestConfirmMeal_FlipsAndReportsProgress() {
	s.generate()
	_, meal, _ := s.mondayPrep()

	s.Require().NoError(s.confirm(meal.ID, schedule.ConfirmedYes))
	_, meal, _ = s.mondayPrep()
	s.Equal(schedule.ConfirmedYes, meal.Status)
	s.progress.AssertCalled(s.T(), "RecordConfirmation", mock.Anything, s.userID, meal.ID, 1)

	s.Require().NoError(s.confirm(meal.ID, schedule.ConfirmedNo))
	_, meal, _ = s.mondayPrep()
	s.Equal(schedule.ConfirmedNo, meal.Status)
	s.progress.AssertCalled(s.T(), "RecordConfirmation", mock.Anything, s.userID, meal.ID, -1)

	s.Contains(s.events.Names(), "meal.confirmed")
}

func (s *ServiceTestSuite) TestConfirmMeal_ReportsStatusNotTransition() {
	s.generate()
	_, meal, _ := s.mondayPrep()

	s.Require().NoError(s.confirm(meal.ID, schedule.ConfirmedNo))
	s.progress.AssertCalled(s.T(), "RecordConfirmation", mock.Anything, s.userID, meal.ID, -1)
	s.progress.AssertNotCalled(s.T(), "RecordConfirmation", mock.Anything, s.userID, meal.ID, 1)

	s.Require().NoError(s.confirm(meal.ID, schedule.ConfirmedYes))
	s.Require().NoError(s.confirm(meal.ID, schedule.ConfirmedYes))
	s.progress.AssertNumberOfCalls(s.T(), "RecordConfirmation", 3)
}

func (s *ServiceTestSuite) TestConfirmMeal_OtherUserForbidden() {
	s.generate()
	_, meal, _ := s.mondayPrep()

	err := s.service.ConfirmMeal(s.ctx, inbound.ConfirmMealCommand{
		UserID: uuid.New(),
		MealID: meal.ID,
		Status: schedule.ConfirmedYes,
	})
	s.True(errors.Is(err, errors.CodeForbidden), "got %v", err)

	_, meal, _ = s.mondayPrep()
	s.Equal(schedule.ConfirmUnset, meal.Status)
	s.progress.AssertNotCalled(s.T(), "RecordConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestConfirmMeal_UnknownMeal() {
	s.generate()
	err := s.confirm(uuid.New(), schedule.ConfirmedYes)
	s.True(errors.Is(err, errors.CodeNotFound), "got %v", err)
}

func (s *ServiceTestSuite) TestMoveMeal_ReleasesEmptiedDay() {
	s.generate()
	_, _, leftover := s.mondayPrep()
	thursday := s.dayID(3)

	s.Require().NoError(s.service.MoveMeal(s.ctx, inbound.MoveMealCommand{
		UserID:      s.userID,
		MealID:      leftover.ID,
		TargetDayID: thursday,
	}))

	w := s.week()
	moved, ok := w.Meal(leftover.ID)
	s.Require().True(ok)
	s.Equal(thursday, moved.DayID)

	thu, _ := w.DayOn(s.day(3))
	s.Equal(diet, thu.DietType)
	wed, _ := w.DayOn(s.day(2))
	s.Equal(schedule.DietUnassigned, wed.DietType)
	s.Contains(s.events.Names(), "meal.moved")
}

func (s *ServiceTestSuite) TestMoveMeal_DietConflict() {
	s.generate()
	_, _, leftover := s.mondayPrep()
	s.do(func(ctx context.Context, tx outbound.Tx) error {
		w, err := tx.Schedule().LoadWeek(ctx, s.userID, s.monday, s.day(6))
		if err != nil {
			return err
		}
		thu, _ := w.DayOn(s.day(3))
		thu.DietType = 2
		return tx.Schedule().SaveWeek(ctx, w)
	})

	err := s.service.MoveMeal(s.ctx, inbound.MoveMealCommand{
		UserID:      s.userID,
		MealID:      leftover.ID,
		TargetDayID: s.dayID(3),
	})
	s.True(errors.Is(err, errors.CodeInvalidState), "got %v", err)

	_, _, unchanged := s.mondayPrep()
	s.Equal(s.dayID(2), unchanged.DayID)
}

func (s *ServiceTestSuite) TestMovePreparation_CarriesCookingDayMeals() {
	s.generate()
	prep, first, leftover := s.mondayPrep()

	s.Require().NoError(s.service.MovePreparation(s.ctx, inbound.MovePreparationCommand{
		UserID:        s.userID,
		PreparationID: prep.ID,
		TargetDayID:   s.dayID(1),
	}))

	moved, first2, leftover2 := s.mondayPrep()
	tuesday := s.dayID(1)
	s.Equal(tuesday, moved.DayID)
	s.Equal(first.ID, first2.ID)
	s.Equal(tuesday, first2.DayID)
	s.False(first2.IsLeftover)
	s.Equal(leftover.ID, leftover2.ID)
	s.Equal(s.dayID(2), leftover2.DayID)

	mon, _ := s.week().DayOn(s.monday)
	s.Equal(schedule.DietUnassigned, mon.DietType)
}

func (s *ServiceTestSuite) TestMoveMeal_OutsideWeek() {
	s.generate()
	_, meal, _ := s.mondayPrep()

	err := s.service.MoveMeal(s.ctx, inbound.MoveMealCommand{
		UserID:      s.userID,
		MealID:      meal.ID,
		TargetDayID: uuid.New(),
	})
	s.True(errors.Is(err, errors.CodeInvalidState), "got %v", err)
}

func (s *ServiceTestSuite) TestUpdateServings_ResizesDemand() {
	s.generate()
	_, _, leftover := s.mondayPrep()

	s.Require().NoError(s.service.UpdateServings(s.ctx, inbound.UpdateServingsCommand{
		UserID:   s.userID,
		MealID:   leftover.ID,
		Servings: 3,
	}))

	prep, _, _ := s.mondayPrep()
	s.Equal(5, prep.Servings)
	s.Equal(500.0, s.total())
}

func (s *ServiceTestSuite) TestUpdateServings_RejectsZero() {
	s.generate()
	_, meal, _ := s.mondayPrep()

	err := s.service.UpdateServings(s.ctx, inbound.UpdateServingsCommand{
		UserID:   s.userID,
		MealID:   meal.ID,
		Servings: 0,
	})
	s.True(errors.Is(err, errors.CodeValidationFailed), "got %v", err)
}

func (s *ServiceTestSuite) TestConfirmedMealBlocksMutations() {
	s.generate()
	prep, meal, _ := s.mondayPrep()
	s.Require().NoError(s.confirm(meal.ID, schedule.ConfirmedYes))

	before := toWeekDTO(s.week())
	itemsBefore := s.total()

	err := s.service.UpdateServings(s.ctx, inbound.UpdateServingsCommand{
		UserID: s.userID, MealID: meal.ID, Servings: 6,
	})
	s.True(errors.Is(err, errors.CodeInvalidState), "update servings: %v", err)

	err = s.service.MoveMeal(s.ctx, inbound.MoveMealCommand{
		UserID: s.userID, MealID: meal.ID, TargetDayID: s.dayID(1),
	})
	s.True(errors.Is(err, errors.CodeInvalidState), "move meal: %v", err)

	err = s.service.MovePreparation(s.ctx, inbound.MovePreparationCommand{
		UserID: s.userID, PreparationID: prep.ID, TargetDayID: s.dayID(1),
	})
	s.True(errors.Is(err, errors.CodeInvalidState), "move preparation: %v", err)

	_, err = s.service.RegeneratePreparation(s.ctx, inbound.RegeneratePreparationCommand{
		UserID: s.userID, PreparationID: prep.ID,
	})
	s.True(errors.Is(err, errors.CodeInvalidState), "regenerate: %v", err)

	s.Equal(before, toWeekDTO(s.week()))
	s.Equal(itemsBefore, s.total())
}

func (s *ServiceTestSuite) TestRegeneratePreparation_SwapsRecipe() {
	s.generate()
	prep, _, _ := s.mondayPrep()

	changed, err := s.service.RegeneratePreparation(s.ctx, inbound.RegeneratePreparationCommand{
		UserID:        s.userID,
		PreparationID: prep.ID,
	})
	s.Require().NoError(err)
	s.True(changed)

	swapped, first, leftover := s.mondayPrep()
	s.NotEqual(prep.RecipeID, swapped.RecipeID)
	s.Equal(swapped.RecipeID, first.RecipeID)
	s.Equal(swapped.RecipeID, leftover.RecipeID)
	s.Equal(400.0, s.total())
	s.Contains(s.events.Names(), "preparation.regenerated")
}

func (s *ServiceTestSuite) TestRegeneratePreparation_NoAlternative() {
	s.withRecipes(1)
	s.generate()
	prep, _, _ := s.mondayPrep()

	changed, err := s.service.RegeneratePreparation(s.ctx, inbound.RegeneratePreparationCommand{
		UserID:        s.userID,
		PreparationID: prep.ID,
	})
	s.Require().NoError(err)
	s.False(changed)

	same, _, _ := s.mondayPrep()
	s.Equal(prep.RecipeID, same.RecipeID)
}

func (s *ServiceTestSuite) TestAddChallengeDay() {
	s.generate()
	prep, _, _ := s.mondayPrep()

	s.Require().NoError(s.service.AddChallengeDay(s.ctx, inbound.ChallengeDayCommand{
		UserID: s.userID,
		Date:   s.day(1),
	}))

	w := s.week()
	tue, _ := w.DayOn(s.day(1))
	s.Equal(diet, tue.DietType)
	meals := w.MealsOn(tue.ID)
	s.Require().Len(meals, 1)
	s.True(meals[0].IsChallenge)
	s.Equal(schedule.MealTypeDinner, meals[0].MealType)
	s.NotEqual(prep.RecipeID, meals[0].RecipeID)
	s.True(w.ChallengeOnly(tue.ID))

	// default servings of the plan is the first consumer's, 2
	s.Equal(2, meals[0].Servings)
	s.Equal(600.0, s.total())
	s.Contains(s.events.Names(), "challenge_day.added")
}

func (s *ServiceTestSuite) TestAddChallengeDay_DayWithMeals() {
	s.generate()
	err := s.service.AddChallengeDay(s.ctx, inbound.ChallengeDayCommand{
		UserID: s.userID,
		Date:   s.monday,
	})
	s.True(errors.Is(err, errors.CodeInvalidState), "got %v", err)
}

func (s *ServiceTestSuite) TestAddChallengeDay_NoEligibleRecipe() {
	s.withRecipes(1)
	s.generate()

	err := s.service.AddChallengeDay(s.ctx, inbound.ChallengeDayCommand{
		UserID: s.userID,
		Date:   s.day(1),
	})
	s.True(errors.Is(err, errors.CodeNoEligibleRecipe), "got %v", err)

	tue, _ := s.week().DayOn(s.day(1))
	s.Empty(s.week().MealsOn(tue.ID))
	s.Equal(400.0, s.total())
}

func (s *ServiceTestSuite) TestRemoveChallengeDay() {
	s.generate()
	cmd := inbound.ChallengeDayCommand{UserID: s.userID, Date: s.day(1)}
	s.Require().NoError(s.service.AddChallengeDay(s.ctx, cmd))

	s.Require().NoError(s.service.RemoveChallengeDay(s.ctx, cmd))

	w := s.week()
	tue, _ := w.DayOn(s.day(1))
	s.Empty(w.MealsOn(tue.ID))
	s.Empty(w.PreparationsOn(tue.ID))
	s.Equal(schedule.DietUnassigned, tue.DietType)
	s.Equal(400.0, s.total())
	s.Contains(s.events.Names(), "challenge_day.removed")
}

func (s *ServiceTestSuite) TestRemoveChallengeDay_RegularDay() {
	s.generate()
	err := s.service.RemoveChallengeDay(s.ctx, inbound.ChallengeDayCommand{
		UserID: s.userID,
		Date:   s.monday,
	})
	s.True(errors.Is(err, errors.CodeInvalidState), "got %v", err)
	s.Len(s.week().Meals(), 2)
}

func (s *ServiceTestSuite) TestRemoveChallengeDay_MissingDay() {
	err := s.service.RemoveChallengeDay(s.ctx, inbound.ChallengeDayCommand{
		UserID: s.userID,
		Date:   s.day(4),
	})
	s.True(errors.Is(err, errors.CodeNotFound), "got %v", err)
}
