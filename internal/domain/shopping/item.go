// Package shopping holds the weekly shopping list and the ledger arithmetic
// that keeps it in step with preparation demand.
package shopping

import (
	"errors"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/google/uuid"
)

// DefaultDecimals is used for ingredients the catalog declares no precision for
const DefaultDecimals = 2

var (
	ErrItemNotFound     = errors.New("shopping list item not found")
	ErrNegativeQuantity = errors.New("quantity cannot be negative")
	ErrUnknownUnit      = errors.New("unknown measurement unit")
)

// Item is one shopping list row. An item with PreparationID uuid.Nil is in
// the unused pool: quantity not claimed by any active preparation.
type Item struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	IngredientID  uuid.UUID
	WeekStart     time.Time
	Quantity      float64
	Unit          recipe.MeasurementUnit
	Checked       bool
	ManuallyAdded bool
	PreparationID uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewManualItem creates a user-entered item in the unused pool
func NewManualItem(userID, ingredientID uuid.UUID, weekStart time.Time, qty float64, unit recipe.MeasurementUnit, checked bool, now time.Time) (*Item, error) {
	if qty < 0 {
		return nil, ErrNegativeQuantity
	}
	if !unit.Valid() {
		return nil, ErrUnknownUnit
	}
	return &Item{
		ID:            uuid.New(),
		UserID:        userID,
		IngredientID:  ingredientID,
		WeekStart:     weekStart,
		Quantity:      qty,
		Unit:          unit,
		Checked:       checked,
		ManuallyAdded: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsUnused reports whether the item belongs to the unused pool
func (i *Item) IsUnused() bool {
	return i.PreparationID == uuid.Nil
}

// Consumable reports whether new demand may draw from this item
func (i *Item) Consumable() bool {
	return i.IsUnused() && i.Checked && !i.ManuallyAdded
}

// Edit applies a user edit. Changing the quantity or unit takes the item out
// of automatic reconciliation.
func (i *Item) Edit(qty *float64, unit *recipe.MeasurementUnit, checked *bool, now time.Time) error {
	if qty != nil {
		if *qty < 0 {
			return ErrNegativeQuantity
		}
		i.Quantity = *qty
		i.ManuallyAdded = true
	}
	if unit != nil {
		if !unit.Valid() {
			return ErrUnknownUnit
		}
		i.Unit = *unit
		i.ManuallyAdded = true
	}
	if checked != nil {
		i.Checked = *checked
	}
	i.UpdatedAt = now
	return nil
}
