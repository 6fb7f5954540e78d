package shopping

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/domain/shopping"
	"github.com/alchemorsel/mealprep/internal/ports/inbound"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/alchemorsel/mealprep/pkg/errors"
	"github.com/alchemorsel/mealprep/pkg/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements the shopping list use cases
type Service struct {
	uow       outbound.UnitOfWork
	clock     outbound.Clock
	validator *validation.Validator
	logger    *zap.Logger
}

// NewService creates a new shopping list service
func NewService(
	uow outbound.UnitOfWork,
	clock outbound.Clock,
	validator *validation.Validator,
	logger *zap.Logger,
) *Service {
	return &Service{
		uow:       uow,
		clock:     clock,
		validator: validator,
		logger:    logger.Named("shopping-service"),
	}
}

var _ inbound.ShoppingListService = (*Service)(nil)

// GetShoppingList returns a week's items sorted by ingredient then preparation
func (s *Service) GetShoppingList(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]inbound.ShoppingItemDTO, error) {
	week := schedule.WeekStart(weekStart)

	var items []*shopping.Item
	err := s.uow.Do(ctx, func(ctx context.Context, tx outbound.Tx) error {
		stored, err := tx.ShoppingList().ListByWeek(ctx, userID, week)
		if err != nil {
			return errors.NewDatabaseError("list shopping items", err)
		}
		items = shopping.NewList(userID, week, stored).Items()
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]inbound.ShoppingItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, toItemDTO(it))
	}
	return out, nil
}

// AddItem adds a manual item to the unused pool of a week
func (s *Service) AddItem(ctx context.Context, cmd inbound.AddItemCommand) (*inbound.ShoppingItemDTO, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}
	s.logger.Info("Adding shopping item",
		zap.String("user_id", cmd.UserID.String()),
		zap.String("ingredient_id", cmd.IngredientID.String()),
	)

	item, err := shopping.NewManualItem(cmd.UserID, cmd.IngredientID, schedule.WeekStart(cmd.WeekStart),
		cmd.Quantity, cmd.Unit, cmd.Checked, s.clock.Now())
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx outbound.Tx) error {
		if err := tx.ShoppingList().Save(ctx, item); err != nil {
			return errors.NewDatabaseError("save shopping item", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := toItemDTO(item)
	return &dto, nil
}

// UpdateItem edits quantity, unit or checked state of an owned item
func (s *Service) UpdateItem(ctx context.Context, cmd inbound.UpdateItemCommand) (*inbound.ShoppingItemDTO, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}
	s.logger.Info("Updating shopping item",
		zap.String("user_id", cmd.UserID.String()),
		zap.String("item_id", cmd.ItemID.String()),
	)

	var item *shopping.Item
	err := s.uow.Do(ctx, func(ctx context.Context, tx outbound.Tx) error {
		var err error
		item, err = s.owned(ctx, tx, cmd.UserID, cmd.ItemID)
		if err != nil {
			return err
		}
		if err := item.Edit(cmd.Quantity, cmd.Unit, cmd.Checked, s.clock.Now()); err != nil {
			return errors.NewValidationError(err.Error())
		}
		if err := tx.ShoppingList().Save(ctx, item); err != nil {
			return errors.NewDatabaseError("save shopping item", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := toItemDTO(item)
	return &dto, nil
}

// RemoveItem deletes one owned item
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	s.logger.Info("Removing shopping item",
		zap.String("user_id", userID.String()),
		zap.String("item_id", itemID.String()),
	)

	return s.uow.Do(ctx, func(ctx context.Context, tx outbound.Tx) error {
		if _, err := s.owned(ctx, tx, userID, itemID); err != nil {
			return err
		}
		if err := tx.ShoppingList().Delete(ctx, itemID); err != nil {
			return errors.NewDatabaseError("delete shopping item", err)
		}
		return nil
	})
}

func (s *Service) owned(ctx context.Context, tx outbound.Tx, userID, itemID uuid.UUID) (*shopping.Item, error) {
	item, err := tx.ShoppingList().FindByID(ctx, itemID)
	if stderrors.Is(err, outbound.ErrNotFound) {
		return nil, errors.NewNotFoundError("ShoppingListItem", itemID.String())
	}
	if err != nil {
		return nil, errors.NewDatabaseError("find shopping item", err)
	}
	if item.UserID != userID {
		return nil, errors.NewForbiddenError("ShoppingListItem", itemID.String())
	}
	return item, nil
}

func toItemDTO(it *shopping.Item) inbound.ShoppingItemDTO {
	dto := inbound.ShoppingItemDTO{
		ID:            it.ID,
		IngredientID:  it.IngredientID,
		WeekStart:     it.WeekStart.Format("2006-01-02"),
		Quantity:      it.Quantity,
		Unit:          it.Unit,
		Checked:       it.Checked,
		ManuallyAdded: it.ManuallyAdded,
	}
	if !it.IsUnused() {
		prepID := it.PreparationID
		dto.PreparationID = &prepID
	}
	return dto
}
