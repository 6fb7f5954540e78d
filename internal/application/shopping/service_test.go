package shopping

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/alchemorsel/mealprep/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/mealprep/internal/ports/inbound"
	"github.com/alchemorsel/mealprep/internal/testutil"
	"github.com/alchemorsel/mealprep/pkg/errors"
	"github.com/alchemorsel/mealprep/pkg/validation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type ServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	clock   *testutil.FixedClock
	service *Service
	userID  uuid.UUID
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &testutil.FixedClock{T: testutil.Monday().Add(10 * time.Hour)}
	s.userID = uuid.New()
	s.service = NewService(
		memory.NewUnitOfWork(memory.NewStore()),
		s.clock,
		validation.New(),
		zap.NewNop(),
	)
}

func (s *ServiceTestSuite) addItem(qty float64) *inbound.ShoppingItemDTO {
	dto, err := s.service.AddItem(s.ctx, inbound.AddItemCommand{
		UserID:       s.userID,
		IngredientID: uuid.New(),
		WeekStart:    testutil.Monday().AddDate(0, 0, 2),
		Quantity:     qty,
		Unit:         recipe.MeasurementUnitGram,
	})
	s.Require().NoError(err)
	return dto
}

func (s *ServiceTestSuite) TestAddItem() {
	s.Run("ValidCommand_ShouldAddManualUnusedItem", func() {
		s.SetupTest()

		dto := s.addItem(250)

		s.True(dto.ManuallyAdded)
		s.Nil(dto.PreparationID)
		s.Equal("2024-03-04", dto.WeekStart)

		list, err := s.service.GetShoppingList(s.ctx, s.userID, testutil.Monday())
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(dto.ID, list[0].ID)
	})

	s.Run("UnknownUnit_ShouldFailValidation", func() {
		s.SetupTest()

		_, err := s.service.AddItem(s.ctx, inbound.AddItemCommand{
			UserID:       s.userID,
			IngredientID: uuid.New(),
			WeekStart:    testutil.Monday(),
			Quantity:     1,
			Unit:         "bushel",
		})

		s.True(errors.Is(err, errors.CodeValidationFailed))
	})

	s.Run("ZeroQuantity_ShouldFailValidation", func() {
		s.SetupTest()

		_, err := s.service.AddItem(s.ctx, inbound.AddItemCommand{
			UserID:       s.userID,
			IngredientID: uuid.New(),
			WeekStart:    testutil.Monday(),
			Unit:         recipe.MeasurementUnitGram,
		})

		s.True(errors.Is(err, errors.CodeValidationFailed))
	})
}

func (s *ServiceTestSuite) TestUpdateItem() {
	s.Run("CheckOnly_ShouldKeepManualFlag", func() {
		s.SetupTest()
		item := s.addItem(100)
		checked := true

		dto, err := s.service.UpdateItem(s.ctx, inbound.UpdateItemCommand{
			UserID:  s.userID,
			ItemID:  item.ID,
			Checked: &checked,
		})

		s.Require().NoError(err)
		s.True(dto.Checked)
		s.Equal(100.0, dto.Quantity)
	})

	s.Run("Quantity_ShouldBeStored", func() {
		s.SetupTest()
		item := s.addItem(100)
		qty := 40.0

		_, err := s.service.UpdateItem(s.ctx, inbound.UpdateItemCommand{
			UserID:   s.userID,
			ItemID:   item.ID,
			Quantity: &qty,
		})
		s.Require().NoError(err)

		list, err := s.service.GetShoppingList(s.ctx, s.userID, testutil.Monday())
		s.Require().NoError(err)
		s.Equal(40.0, list[0].Quantity)
		s.True(list[0].ManuallyAdded)
	})

	s.Run("OtherUser_ShouldBeForbidden", func() {
		s.SetupTest()
		item := s.addItem(100)
		checked := true

		_, err := s.service.UpdateItem(s.ctx, inbound.UpdateItemCommand{
			UserID:  uuid.New(),
			ItemID:  item.ID,
			Checked: &checked,
		})

		s.True(errors.Is(err, errors.CodeForbidden))
	})

	s.Run("Missing_ShouldBeNotFound", func() {
		s.SetupTest()
		checked := true

		_, err := s.service.UpdateItem(s.ctx, inbound.UpdateItemCommand{
			UserID:  s.userID,
			ItemID:  uuid.New(),
			Checked: &checked,
		})

		s.True(errors.Is(err, errors.CodeNotFound))
	})
}

func (s *ServiceTestSuite) TestRemoveItem() {
	s.Run("Owner_ShouldDelete", func() {
		s.SetupTest()
		item := s.addItem(100)

		s.Require().NoError(s.service.RemoveItem(s.ctx, s.userID, item.ID))

		list, err := s.service.GetShoppingList(s.ctx, s.userID, testutil.Monday())
		s.Require().NoError(err)
		s.Empty(list)
	})

	s.Run("OtherUser_ShouldBeForbiddenAndKeepItem", func() {
		s.SetupTest()
		item := s.addItem(100)

		err := s.service.RemoveItem(s.ctx, uuid.New(), item.ID)

		s.True(errors.Is(err, errors.CodeForbidden))
		list, err := s.service.GetShoppingList(s.ctx, s.userID, testutil.Monday())
		s.Require().NoError(err)
		s.Len(list, 1)
	})
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
