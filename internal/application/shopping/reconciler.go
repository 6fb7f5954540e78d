// Package shopping keeps the weekly shopping list in step with the schedule
// and serves the list's own CRUD operations
package shopping

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/recipe"
	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/domain/shopping"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Demand is one preparation's ingredient demand within a shopping week
type Demand struct {
	Preparation *schedule.Preparation
	WeekStart   time.Time
}

// Reconciler translates preparation changes into shopping list changes. It
// always runs inside the caller's unit of work.
type Reconciler struct {
	recipes     outbound.RecipeCatalog
	ingredients outbound.IngredientCatalog
	clock       outbound.Clock
	metrics     outbound.Metrics
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(
	recipes outbound.RecipeCatalog,
	ingredients outbound.IngredientCatalog,
	clock outbound.Clock,
	metrics outbound.Metrics,
	tracer trace.Tracer,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		recipes:     recipes,
		ingredients: ingredients,
		clock:       clock,
		metrics:     metrics,
		tracer:      tracer,
		logger:      logger.Named("shopping-reconciler"),
	}
}

// OnPreparationAdded records the demand of a new preparation, claiming
// purchased unused stock before adding rows to buy
func (r *Reconciler) OnPreparationAdded(ctx context.Context, tx outbound.Tx, userID uuid.UUID, d Demand) error {
	ctx, span := r.tracer.Start(ctx, "shopping.reconcile.add",
		trace.WithAttributes(attribute.String("preparation_id", d.Preparation.ID.String())))
	defer span.End()

	return r.withList(ctx, tx, userID, d.WeekStart, "add", func(list *shopping.List) error {
		return r.addDemand(ctx, list, d.Preparation)
	})
}

// OnPreparationsRemoved releases the demand of removed preparations. Purchased
// quantities survive as unused items.
func (r *Reconciler) OnPreparationsRemoved(ctx context.Context, tx outbound.Tx, userID uuid.UUID, demands []Demand) error {
	if len(demands) == 0 {
		return nil
	}
	ctx, span := r.tracer.Start(ctx, "shopping.reconcile.remove",
		trace.WithAttributes(attribute.Int("preparations", len(demands))))
	defer span.End()

	byWeek := make(map[time.Time][]uuid.UUID)
	var weeks []time.Time
	for _, d := range demands {
		week := schedule.WeekStart(d.WeekStart)
		if _, seen := byWeek[week]; !seen {
			weeks = append(weeks, week)
		}
		byWeek[week] = append(byWeek[week], d.Preparation.ID)
	}

	for _, week := range weeks {
		prepIDs := byWeek[week]
		err := r.withList(ctx, tx, userID, week, "remove", func(list *shopping.List) error {
			return r.removeDemand(ctx, list, prepIDs...)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ResizePreparation releases a preparation's current rows and records its
// demand again from its current recipe and servings
func (r *Reconciler) ResizePreparation(ctx context.Context, tx outbound.Tx, userID uuid.UUID, d Demand) error {
	ctx, span := r.tracer.Start(ctx, "shopping.reconcile.resize",
		trace.WithAttributes(
			attribute.String("preparation_id", d.Preparation.ID.String()),
			attribute.Int("servings", d.Preparation.Servings),
		))
	defer span.End()

	return r.withList(ctx, tx, userID, d.WeekStart, "resize", func(list *shopping.List) error {
		if err := r.removeDemand(ctx, list, d.Preparation.ID); err != nil {
			return err
		}
		return r.addDemand(ctx, list, d.Preparation)
	})
}

func (r *Reconciler) addDemand(ctx context.Context, list *shopping.List, prep *schedule.Preparation) error {
	rec, err := r.recipes.GetRecipe(ctx, prep.RecipeID)
	if err != nil {
		return fmt.Errorf("load recipe %s: %w", prep.RecipeID, err)
	}

	ids := make([]uuid.UUID, 0, len(rec.Ingredients))
	for _, ing := range rec.Ingredients {
		ids = append(ids, ing.IngredientID)
	}
	infos, err := r.ingredients.GetIngredients(ctx, ids)
	if err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}

	now := r.clock.Now()
	for _, ing := range rec.Ingredients {
		info, ok := infos[ing.IngredientID]
		if !ok {
			info = recipe.IngredientInfo{ID: ing.IngredientID, Name: ing.Name, CanonicalUnit: ing.Unit}
		}
		if err := list.AddDemand(prep.ID, info, ing.Demand(prep.Servings), ing.Unit, now); err != nil {
			return fmt.Errorf("ingredient %s: %w", ing.IngredientID, err)
		}
	}
	return nil
}

func (r *Reconciler) removeDemand(ctx context.Context, list *shopping.List, prepIDs ...uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, prepID := range prepIDs {
		for _, it := range list.ForPreparation(prepID) {
			if _, ok := seen[it.IngredientID]; !ok {
				seen[it.IngredientID] = struct{}{}
				ids = append(ids, it.IngredientID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	infos, err := r.ingredients.GetIngredients(ctx, ids)
	if err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}
	now := r.clock.Now()
	for _, prepID := range prepIDs {
		list.RemoveDemand(prepID, infos, now)
	}
	return nil
}

// withList loads a week's list, applies fn and writes back what changed
func (r *Reconciler) withList(ctx context.Context, tx outbound.Tx, userID uuid.UUID, weekStart time.Time, op string, fn func(*shopping.List) error) error {
	week := schedule.WeekStart(weekStart)
	items, err := tx.ShoppingList().ListByWeek(ctx, userID, week)
	if err != nil {
		return fmt.Errorf("load shopping list: %w", err)
	}

	list := shopping.NewList(userID, week, items)
	if err := fn(list); err != nil {
		return err
	}

	upserts, deletes := list.Changes()
	if len(upserts) > 0 {
		if err := tx.ShoppingList().Save(ctx, upserts...); err != nil {
			return fmt.Errorf("save shopping items: %w", err)
		}
	}
	if len(deletes) > 0 {
		if err := tx.ShoppingList().Delete(ctx, deletes...); err != nil {
			return fmt.Errorf("delete shopping items: %w", err)
		}
	}

	r.metrics.ReconcileOperation(op, len(upserts)+len(deletes))
	r.logger.Debug("Shopping list reconciled",
		zap.String("operation", op),
		zap.String("user_id", userID.String()),
		zap.Time("week_start", week),
		zap.Int("upserts", len(upserts)),
		zap.Int("deletes", len(deletes)),
	)
	return nil
}
