package schedule

import (
	"context"
	"fmt"

	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/ports/inbound"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/alchemorsel/mealprep/internal/testutil"
	"github.com/alchemorsel/mealprep/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func (s *ServiceTestSuite) TestGenerateSchedule_MondayBatch() {
	result := s.generate()
	s.Empty(result.Unfilled)

	prep, first, second := s.mondayPrep()
	s.Equal(4, prep.Servings)
	s.Equal(s.dayID(0), prep.DayID)

	s.Equal(s.dayID(0), first.DayID)
	s.False(first.IsLeftover)
	s.Equal(2, first.Servings)
	s.Equal(schedule.ConfirmUnset, first.Status)

	s.Equal(s.dayID(2), second.DayID)
	s.True(second.IsLeftover)
	s.Equal(prep.RecipeID, second.RecipeID)

	items := s.items()
	s.Require().Len(items, 1)
	s.Equal(400.0, items[0].Quantity)
	s.False(items[0].Checked)
	s.Equal(prep.ID, items[0].PreparationID)

	s.Contains(s.events.Names(), "schedule.generated")

	s.do(func(ctx context.Context, tx outbound.Tx) error {
		logs, err := tx.GenerationLogs().ListByUser(ctx, s.userID, 10)
		s.Require().NoError(err)
		s.Require().Len(logs, 1)
		s.True(logs[0].Start.Equal(s.monday))
		s.Empty(logs[0].Unfilled)
		return nil
	})
}

func (s *ServiceTestSuite) TestGenerateSchedule_DietFollowsActiveWeekdays() {
	result := s.generate()

	s.Require().Len(result.Week.Days, 7)
	for i, d := range result.Week.Days {
		if i == 0 || i == 2 {
			s.Equal(int(diet), d.DietType, d.Date)
			continue
		}
		s.Equal(0, d.DietType, d.Date)
		s.Empty(d.Meals, d.Date)
	}
}

func (s *ServiceTestSuite) TestGenerateSchedule_PartialRange() {
	lunch := s.factory.Recipe(schedule.MealTypeLunch).WithDiets(diet).WithIngredient(s.rice, 50).Build()
	s.catalog.AddRecipe(lunch)
	s.setPlan(testutil.NewPlanBuilder(s.userID, diet).
		Generator(0, schedule.MealTypeDinner).
		Consumer(0, schedule.MealTypeDinner, 2).
		Consumer(2, schedule.MealTypeDinner, 2).
		Generator(3, schedule.MealTypeLunch).
		Consumer(3, schedule.MealTypeLunch, 1).
		Consumer(5, schedule.MealTypeLunch, 1).
		Build())

	_, err := s.service.GenerateSchedule(s.ctx, inbound.GenerateScheduleCommand{
		UserID: s.userID,
		Start:  s.monday,
		End:    s.day(3),
	})
	s.Require().NoError(err)

	w := s.week()
	for _, m := range w.Meals() {
		d, ok := w.Day(m.DayID)
		s.Require().True(ok)
		s.False(d.Date.After(s.day(3)), "meal outside range on %s", d.Date)
	}
	for _, p := range w.Preparations() {
		total := 0
		for _, m := range w.MealsOf(p.ID) {
			total += m.Servings
		}
		s.Equal(total, p.Servings)
		if p.MealType == schedule.MealTypeLunch {
			s.Equal(1, p.Servings)
		} else {
			s.Equal(4, p.Servings)
		}
	}
	s.Len(w.Preparations(), 2)
}

// requireLinked checks that every meal's preparation exists and that every
// preparation's servings add up to its meals
func (s *ServiceTestSuite) requireLinked(w *schedule.Week) {
	for _, m := range w.Meals() {
		if !m.HasPreparation() {
			continue
		}
		_, ok := w.Preparation(m.PreparationID)
		s.Require().True(ok, "meal %s lost its preparation", m.ID)
	}
	for _, p := range w.Preparations() {
		total := 0
		for _, m := range w.MealsOf(p.ID) {
			total += m.Servings
		}
		s.Equal(total, p.Servings, "preparation %s", p.ID)
	}
}

func (s *ServiceTestSuite) TestGenerateSchedule_RangeEndingBeforeLeftoverDropsIt() {
	s.generate()

	_, err := s.service.GenerateSchedule(s.ctx, inbound.GenerateScheduleCommand{
		UserID: s.userID,
		Start:  s.monday,
		End:    s.day(1),
	})
	s.Require().NoError(err)

	w := s.week()
	s.requireLinked(w)
	s.Require().Len(w.Preparations(), 1)
	prep := w.Preparations()[0]
	s.Equal(s.dayID(0), prep.DayID)
	s.Equal(2, prep.Servings)

	s.Require().Len(w.Meals(), 1)
	s.Empty(w.MealsOn(s.dayID(2)), "the Wednesday leftover belonged to the replaced batch")
	wednesday, _ := w.DayOn(s.day(2))
	s.Equal(schedule.DietUnassigned, wednesday.DietType)

	items := s.items()
	s.Require().Len(items, 1)
	s.Equal(prep.ID, items[0].PreparationID)
	s.Equal(200.0, s.total())
}

func (s *ServiceTestSuite) TestGenerateSchedule_RangeAfterCookingDayShrinksBatch() {
	s.generate()
	before, _, _ := s.mondayPrep()

	_, err := s.service.GenerateSchedule(s.ctx, inbound.GenerateScheduleCommand{
		UserID: s.userID,
		Start:  s.day(2),
		End:    s.day(6),
	})
	s.Require().NoError(err)

	w := s.week()
	s.requireLinked(w)
	s.Require().Len(w.Preparations(), 1)
	prep := w.Preparations()[0]
	s.Equal(before.ID, prep.ID)
	s.Equal(2, prep.Servings)

	s.Require().Len(w.Meals(), 1)
	s.Empty(w.MealsOn(s.dayID(2)))

	items := s.items()
	s.Require().Len(items, 1)
	s.Equal(prep.ID, items[0].PreparationID)
	s.Equal(200.0, s.total())
}

func (s *ServiceTestSuite) TestGenerateSchedule_RangeAfterCookingDayKeepsPurchases() {
	s.generate()
	s.do(func(ctx context.Context, tx outbound.Tx) error {
		items, err := tx.ShoppingList().ListByWeek(ctx, s.userID, s.monday)
		if err != nil {
			return err
		}
		for _, it := range items {
			it.Checked = true
		}
		return tx.ShoppingList().Save(ctx, items...)
	})

	_, err := s.service.GenerateSchedule(s.ctx, inbound.GenerateScheduleCommand{
		UserID: s.userID,
		Start:  s.day(2),
		End:    s.day(6),
	})
	s.Require().NoError(err)

	prep := s.week().Preparations()[0]
	linked, unused := 0.0, 0.0
	for _, it := range s.items() {
		s.True(it.Checked)
		if it.PreparationID == prep.ID {
			linked += it.Quantity
		} else {
			s.Equal(uuid.Nil, it.PreparationID)
			unused += it.Quantity
		}
	}
	s.Equal(200.0, linked)
	s.Equal(200.0, unused)
}

func (s *ServiceTestSuite) TestGenerateSchedule_SkipsGeneratorBeforeRange() {
	_, err := s.service.GenerateSchedule(s.ctx, inbound.GenerateScheduleCommand{
		UserID: s.userID,
		Start:  s.day(1),
		End:    s.day(6),
	})
	s.Require().NoError(err)

	w := s.week()
	s.Empty(w.Preparations())
	s.Empty(w.Meals())
	s.Empty(s.items())
}

func (s *ServiceTestSuite) TestGenerateSchedule_RegenerationKeepsCheckedQuantities() {
	s.generate()
	s.do(func(ctx context.Context, tx outbound.Tx) error {
		items, err := tx.ShoppingList().ListByWeek(ctx, s.userID, s.monday)
		if err != nil {
			return err
		}
		for _, it := range items {
			it.Checked = true
		}
		return tx.ShoppingList().Save(ctx, items...)
	})

	s.generate()

	items := s.items()
	s.Equal(400.0, s.total())
	for _, it := range items {
		s.True(it.Checked, "checked quantity was dropped")
	}
	s.Len(s.week().Preparations(), 1)
}

func (s *ServiceTestSuite) TestGenerateSchedule_ReplacesPreviousRange() {
	s.generate()
	s.generate()

	w := s.week()
	s.Len(w.Preparations(), 1)
	s.Len(w.Meals(), 2)
	s.Equal(400.0, s.total())
}

func (s *ServiceTestSuite) TestGenerateSchedule_ReportsUnfilledSlot() {
	s.setPlan(testutil.NewPlanBuilder(s.userID, diet).
		Generator(0, schedule.MealTypeBreakfast).
		Consumer(0, schedule.MealTypeBreakfast, 1).
		Generator(0, schedule.MealTypeDinner).
		Consumer(0, schedule.MealTypeDinner, 2).
		Build())

	result := s.generate()

	s.Require().Len(result.Unfilled, 1)
	s.Equal(inbound.SlotDTO{Date: "2024-03-04", MealType: "breakfast"}, result.Unfilled[0])
	s.Len(s.week().Preparations(), 1)
}

func (s *ServiceTestSuite) TestGenerateSchedule_InvalidPlan() {
	s.setPlan(testutil.NewPlanBuilder(s.userID, diet).
		Generator(0, schedule.MealTypeDinner).
		Build())

	_, err := s.service.GenerateSchedule(s.ctx, inbound.GenerateScheduleCommand{
		UserID: s.userID,
		Start:  s.monday,
		End:    s.day(6),
	})
	s.True(errors.Is(err, errors.CodeInvalidPlan), "got %v", err)
	s.True(s.week().IsEmpty())
}

func (s *ServiceTestSuite) TestGenerateSchedule_MissingPlan() {
	_, err := s.service.GenerateSchedule(s.ctx, inbound.GenerateScheduleCommand{
		UserID: uuid.New(),
		Start:  s.monday,
		End:    s.day(6),
	})
	s.True(errors.Is(err, errors.CodeNotFound), "got %v", err)
}

func (s *ServiceTestSuite) TestGenerateSchedule_OutsideSubscriptionWindow() {
	s.subs.ExpectedCalls = nil
	s.subs.On("VerifyDateAllowed", mock.Anything, mock.Anything, mock.Anything).
		Return(fmt.Errorf("beyond horizon"))

	_, err := s.service.GenerateSchedule(s.ctx, inbound.GenerateScheduleCommand{
		UserID: s.userID,
		Start:  s.monday,
		End:    s.day(6),
	})
	s.True(errors.Is(err, errors.CodeSubscriptionWindowViolation), "got %v", err)
	s.True(s.week().IsEmpty())
}

func (s *ServiceTestSuite) TestGenerateSchedule_RejectsInvertedRange() {
	_, err := s.service.GenerateSchedule(s.ctx, inbound.GenerateScheduleCommand{
		UserID: s.userID,
		Start:  s.day(6),
		End:    s.monday,
	})
	s.True(errors.Is(err, errors.CodeValidationFailed), "got %v", err)
}

func (s *ServiceTestSuite) TestGetSchedule_GeneratesOnceAndCaches() {
	first, err := s.service.GetSchedule(s.ctx, s.userID, s.day(3))
	s.Require().NoError(err)
	second, err := s.service.GetSchedule(s.ctx, s.userID, s.monday)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal("2024-03-04", first.WeekStart)
	s.Equal("2024-03-10", first.WeekEnd)
	s.Len(s.week().Preparations(), 1)
}

func (s *ServiceTestSuite) TestGetSchedule_PastWeekIsNotGenerated() {
	dto, err := s.service.GetSchedule(s.ctx, s.userID, s.day(-7))
	s.Require().NoError(err)

	s.Empty(dto.Days)
	s.NotContains(s.events.Names(), "schedule.generated")
}

func (s *ServiceTestSuite) TestGetSchedule_MutationInvalidatesCache() {
	before, err := s.service.GetSchedule(s.ctx, s.userID, s.monday)
	s.Require().NoError(err)

	_, meal, _ := s.mondayPrep()
	s.Require().NoError(s.service.UpdateServings(s.ctx, inbound.UpdateServingsCommand{
		UserID:   s.userID,
		MealID:   meal.ID,
		Servings: 3,
	}))

	after, err := s.service.GetSchedule(s.ctx, s.userID, s.monday)
	s.Require().NoError(err)
	s.NotEqual(before, after)
}
