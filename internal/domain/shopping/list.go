package shopping

import (
	"math"
	"sort"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/google/uuid"
)

// List is one user's shopping list for one week. It tracks which items were
// changed or removed so a repository can persist only the difference.
type List struct {
	UserID    uuid.UUID
	WeekStart time.Time

	items   map[uuid.UUID]*Item
	dirty   map[uuid.UUID]struct{}
	removed map[uuid.UUID]struct{}
}

// NewList wraps the stored items of a week
func NewList(userID uuid.UUID, weekStart time.Time, items []*Item) *List {
	l := &List{
		UserID:    userID,
		WeekStart: weekStart,
		items:     make(map[uuid.UUID]*Item, len(items)),
		dirty:     make(map[uuid.UUID]struct{}),
		removed:   make(map[uuid.UUID]struct{}),
	}
	for _, it := range items {
		l.items[it.ID] = it
	}
	return l
}

// Items returns the items sorted by ingredient, then preparation, then age
func (l *List) Items() []*Item {
	out := make([]*Item, 0, len(l.items))
	for _, it := range l.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IngredientID != b.IngredientID {
			return a.IngredientID.String() < b.IngredientID.String()
		}
		if a.PreparationID != b.PreparationID {
			return a.PreparationID.String() < b.PreparationID.String()
		}
		return olderThan(a, b)
	})
	return out
}

// Item returns one item by id
func (l *List) Item(id uuid.UUID) (*Item, bool) {
	it, ok := l.items[id]
	return it, ok
}

// Put adds or replaces an item
func (l *List) Put(it *Item) {
	l.items[it.ID] = it
	l.dirty[it.ID] = struct{}{}
	delete(l.removed, it.ID)
}

// Delete removes an item
func (l *List) Delete(id uuid.UUID) {
	if _, ok := l.items[id]; !ok {
		return
	}
	delete(l.items, id)
	delete(l.dirty, id)
	l.removed[id] = struct{}{}
}

// ForPreparation returns the items attributed to a preparation
func (l *List) ForPreparation(prepID uuid.UUID) []*Item {
	var out []*Item
	for _, it := range l.Items() {
		if it.PreparationID == prepID {
			out = append(out, it)
		}
	}
	return out
}

// Total sums the quantity of an ingredient across all items, expressed in unit.
// Items in a unit of another dimension are ignored.
func (l *List) Total(ingredientID uuid.UUID, unit recipe.MeasurementUnit) float64 {
	total := 0.0
	for _, it := range l.items {
		if it.IngredientID != ingredientID {
			continue
		}
		q, err := recipe.Convert(it.Quantity, it.Unit, unit, -1)
		if err != nil {
			continue
		}
		total += q
	}
	return total
}

// Changes returns the items to upsert and the ids to delete
func (l *List) Changes() (upserts []*Item, deletes []uuid.UUID) {
	for id := range l.dirty {
		upserts = append(upserts, l.items[id])
	}
	for id := range l.removed {
		deletes = append(deletes, id)
	}
	sort.Slice(upserts, func(i, j int) bool { return olderThan(upserts[i], upserts[j]) })
	sort.Slice(deletes, func(i, j int) bool { return deletes[i].String() < deletes[j].String() })
	return upserts, deletes
}

// AddDemand attributes qty of an ingredient to a preparation. Purchased unused
// quantity is claimed first, oldest item first; the claimed portion stays
// checked. Whatever is left becomes an unchecked row to buy.
func (l *List) AddDemand(prepID uuid.UUID, ing recipe.IngredientInfo, qty float64, unit recipe.MeasurementUnit, now time.Time) error {
	if qty < 0 {
		return ErrNegativeQuantity
	}
	target, decimals := targetUnit(ing, unit)
	remaining, err := recipe.Convert(qty, unit, target, decimals)
	if err != nil {
		return err
	}

	for _, src := range l.consumable(ing.ID) {
		if isZero(remaining, decimals) {
			break
		}
		avail, err := recipe.Convert(src.Quantity, src.Unit, target, decimals)
		if err != nil {
			continue
		}
		take := math.Min(avail, remaining)
		if isZero(take, decimals) {
			continue
		}

		if take >= avail {
			l.Delete(src.ID)
		} else {
			left, err := recipe.Convert(recipe.Round(avail-take, decimals), target, src.Unit, -1)
			if err != nil {
				return err
			}
			if left <= 0 {
				l.Delete(src.ID)
			} else {
				src.Quantity = left
				src.UpdatedAt = now
				l.Put(src)
			}
		}

		l.credit(prepID, ing.ID, take, target, true, decimals, now)
		remaining = recipe.Round(remaining-take, decimals)
	}

	if !isZero(remaining, decimals) {
		l.credit(prepID, ing.ID, remaining, target, false, decimals, now)
	}
	return nil
}

// RemoveDemand releases every item attributed to a preparation. Unchecked
// rows were never bought and are deleted. Checked rows are folded into a
// purchased unused item of the same ingredient, or become unused themselves.
func (l *List) RemoveDemand(prepID uuid.UUID, ingredients map[uuid.UUID]recipe.IngredientInfo, now time.Time) {
	for _, it := range l.ForPreparation(prepID) {
		if !it.Checked {
			l.Delete(it.ID)
			continue
		}

		info := ingredients[it.IngredientID]
		if into := l.foldTarget(it); into != nil {
			_, decimals := targetUnit(info, into.Unit)
			if into.Unit != info.CanonicalUnit {
				decimals = -1
			}
			q, err := recipe.Convert(it.Quantity, it.Unit, into.Unit, decimals)
			if err == nil {
				into.Quantity = recipe.Round(into.Quantity+q, decimals)
				into.UpdatedAt = now
				l.Put(into)
				l.Delete(it.ID)
				continue
			}
		}

		it.PreparationID = uuid.Nil
		it.UpdatedAt = now
		l.Put(it)
	}
}

func (l *List) consumable(ingredientID uuid.UUID) []*Item {
	var out []*Item
	for _, it := range l.items {
		if it.IngredientID == ingredientID && it.Consumable() {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return olderThan(out[i], out[j]) })
	return out
}

func (l *List) foldTarget(from *Item) *Item {
	for _, it := range l.consumable(from.IngredientID) {
		if it.ID != from.ID && it.Unit.Compatible(from.Unit) {
			return it
		}
	}
	return nil
}

// credit adds qty to the preparation's row with the given checked state,
// creating the row when needed.
func (l *List) credit(prepID, ingredientID uuid.UUID, qty float64, unit recipe.MeasurementUnit, checked bool, decimals int, now time.Time) {
	for _, it := range l.items {
		if it.PreparationID == prepID && it.IngredientID == ingredientID && it.Checked == checked && it.Unit == unit {
			it.Quantity = recipe.Round(it.Quantity+qty, decimals)
			it.UpdatedAt = now
			l.Put(it)
			return
		}
	}
	l.Put(&Item{
		ID:            uuid.New(),
		UserID:        l.UserID,
		IngredientID:  ingredientID,
		WeekStart:     l.WeekStart,
		Quantity:      recipe.Round(qty, decimals),
		Unit:          unit,
		Checked:       checked,
		PreparationID: prepID,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

// targetUnit picks the unit demand is recorded in: the ingredient's canonical
// unit when it measures the same dimension, else the recipe's unit.
func targetUnit(ing recipe.IngredientInfo, unit recipe.MeasurementUnit) (recipe.MeasurementUnit, int) {
	decimals := ing.Decimals
	if decimals <= 0 {
		decimals = DefaultDecimals
	}
	if ing.CanonicalUnit != "" && ing.CanonicalUnit.Compatible(unit) {
		return ing.CanonicalUnit, decimals
	}
	return unit, decimals
}

// isZero reports whether v is below half of the rounding step
func isZero(v float64, decimals int) bool {
	return v < 0.5*math.Pow(10, -float64(decimals))
}

func olderThan(a, b *Item) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
