package inbound

import (
	"context"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/google/uuid"
)

// ShoppingListService defines the use cases for the weekly shopping list
type ShoppingListService interface {
	GetShoppingList(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]ShoppingItemDTO, error)
	AddItem(ctx context.Context, cmd AddItemCommand) (*ShoppingItemDTO, error)
	UpdateItem(ctx context.Context, cmd UpdateItemCommand) (*ShoppingItemDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
}

// AddItemCommand adds a manual item to a week's list
type AddItemCommand struct {
	UserID       uuid.UUID              `validate:"required"`
	IngredientID uuid.UUID              `validate:"required"`
	WeekStart    time.Time              `validate:"required"`
	Quantity     float64                `validate:"gt=0"`
	Unit         recipe.MeasurementUnit `validate:"required,unit"`
	Checked      bool
}

// UpdateItemCommand edits an item; nil fields are left unchanged
type UpdateItemCommand struct {
	UserID   uuid.UUID               `validate:"required"`
	ItemID   uuid.UUID               `validate:"required"`
	Quantity *float64                `validate:"omitempty,gte=0"`
	Unit     *recipe.MeasurementUnit `validate:"omitempty,unit"`
	Checked  *bool
}

// ShoppingItemDTO for shopping list item data
type ShoppingItemDTO struct {
	ID            uuid.UUID              `json:"id"`
	IngredientID  uuid.UUID              `json:"ingredient_id"`
	WeekStart     string                 `json:"week_start"`
	Quantity      float64                `json:"quantity"`
	Unit          recipe.MeasurementUnit `json:"unit"`
	Checked       bool                   `json:"checked"`
	ManuallyAdded bool                   `json:"manually_added"`
	PreparationID *uuid.UUID             `json:"preparation_id,omitempty"`
}
