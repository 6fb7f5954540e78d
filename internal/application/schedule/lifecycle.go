package schedule

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/alchemorsel/mealprep/internal/application/selector"
	"github.com/alchemorsel/mealprep/internal/application/shopping"
	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/ports/inbound"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/alchemorsel/mealprep/pkg/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	resourceMeal        = "Meal"
	resourcePreparation = "Preparation"
	resourceDay         = "ScheduleDay"
)

// mutateFunc changes a loaded week inside the unit of work
type mutateFunc func(ctx context.Context, tx outbound.Tx, week *schedule.Week, now time.Time) error

// mutate locates the entity, checks ownership and the subscription window,
// loads the enclosing week, applies fn and saves the week. Events raised on
// the week are published after commit.
func (s *Service) mutate(ctx context.Context, op string, userID uuid.UUID, resource string, id uuid.UUID, fn mutateFunc) (*schedule.Week, error) {
	ctx, span := s.tracer.Start(ctx, "schedule."+op, trace.WithAttributes(
		attribute.String("user_id", userID.String()),
		attribute.String("resource", resource),
		attribute.String("resource_id", id.String()),
	))
	defer span.End()

	s.logger.Info("Mutating schedule",
		zap.String("operation", op),
		zap.String("user_id", userID.String()),
		zap.String("resource_id", id.String()),
	)

	var week *schedule.Week
	err := s.uow.Do(ctx, func(ctx context.Context, tx outbound.Tx) error {
		loc, err := s.locate(ctx, tx.Schedule(), resource, id)
		if err != nil {
			return err
		}
		if loc.UserID != userID {
			return errors.NewForbiddenError(resource, id.String())
		}
		if err := s.verifyDate(ctx, userID, loc.Date); err != nil {
			return err
		}
		week, err = s.loadWeek(ctx, tx, userID, loc.Date)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, week, s.clock.Now()); err != nil {
			return translate(err)
		}
		if err := tx.Schedule().SaveWeek(ctx, week); err != nil {
			return errors.NewDatabaseError("save week", err)
		}
		return nil
	})

	s.metrics.LifecycleOperation(op, outcome(err))
	if err != nil {
		recordError(span, err)
		s.logger.Warn("Schedule mutation rejected",
			zap.String("operation", op),
			zap.String("user_id", userID.String()),
			zap.String("resource_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.afterCommit(ctx, userID, week.Events(), week.Start)
	return week, nil
}

func (s *Service) locate(ctx context.Context, repo outbound.ScheduleRepository, resource string, id uuid.UUID) (*outbound.Location, error) {
	var (
		loc *outbound.Location
		err error
	)
	switch resource {
	case resourceMeal:
		loc, err = repo.LocateMeal(ctx, id)
	case resourcePreparation:
		loc, err = repo.LocatePreparation(ctx, id)
	default:
		loc, err = repo.LocateDay(ctx, id)
	}
	if stderrors.Is(err, outbound.ErrNotFound) {
		return nil, errors.NewNotFoundError(resource, id.String())
	}
	if err != nil {
		return nil, errors.NewDatabaseError("locate "+resource, err)
	}
	return loc, nil
}

// ConfirmMeal sets a meal's confirm status. Any status may follow any other.
func (s *Service) ConfirmMeal(ctx context.Context, cmd inbound.ConfirmMealCommand) error {
	if err := s.validator.Struct(cmd); err != nil {
		return err
	}

	var recipeID uuid.UUID
	_, err := s.mutate(ctx, "confirm_meal", cmd.UserID, resourceMeal, cmd.MealID,
		func(ctx context.Context, tx outbound.Tx, week *schedule.Week, now time.Time) error {
			m, ok := week.Meal(cmd.MealID)
			if !ok {
				return schedule.ErrMealNotFound
			}
			if err := m.Confirm(cmd.Status, now); err != nil {
				return err
			}
			recipeID = m.RecipeID
			week.AddEvent(schedule.MealConfirmedEvent{
				UserID:      cmd.UserID,
				MealID:      m.ID,
				RecipeID:    m.RecipeID,
				Status:      cmd.Status,
				ConfirmedAt: now,
			})
			return nil
		})
	if err != nil {
		return err
	}

	delta := -1
	if cmd.Status == schedule.ConfirmedYes {
		delta = 1
	}
	if err := s.progress.RecordConfirmation(ctx, cmd.UserID, cmd.MealID, delta); err != nil {
		s.logger.Warn("Failed to record confirmation progress",
			zap.String("user_id", cmd.UserID.String()),
			zap.String("meal_id", cmd.MealID.String()),
			zap.String("recipe_id", recipeID.String()),
			zap.Error(err),
		)
	}
	return nil
}

// MoveMeal moves a meal to another day of the same week
func (s *Service) MoveMeal(ctx context.Context, cmd inbound.MoveMealCommand) error {
	if err := s.validator.Struct(cmd); err != nil {
		return err
	}
	_, err := s.mutate(ctx, "move_meal", cmd.UserID, resourceMeal, cmd.MealID,
		func(ctx context.Context, tx outbound.Tx, week *schedule.Week, now time.Time) error {
			if err := s.verifyTargetDay(ctx, cmd.UserID, week, cmd.TargetDayID); err != nil {
				return err
			}
			return week.MoveMeal(cmd.MealID, cmd.TargetDayID, now)
		})
	return err
}

// MovePreparation moves a preparation and the meals eaten on its cooking day
func (s *Service) MovePreparation(ctx context.Context, cmd inbound.MovePreparationCommand) error {
	if err := s.validator.Struct(cmd); err != nil {
		return err
	}
	_, err := s.mutate(ctx, "move_preparation", cmd.UserID, resourcePreparation, cmd.PreparationID,
		func(ctx context.Context, tx outbound.Tx, week *schedule.Week, now time.Time) error {
			if err := s.verifyTargetDay(ctx, cmd.UserID, week, cmd.TargetDayID); err != nil {
				return err
			}
			return week.MovePreparation(cmd.PreparationID, cmd.TargetDayID, now)
		})
	return err
}

// verifyTargetDay checks the subscription window of a move target. Targets
// outside the loaded week are rejected by the week itself.
func (s *Service) verifyTargetDay(ctx context.Context, userID uuid.UUID, week *schedule.Week, dayID uuid.UUID) error {
	day, ok := week.Day(dayID)
	if !ok {
		return nil
	}
	return s.verifyDate(ctx, userID, day.Date)
}

// UpdateServings resizes one meal and re-derives its preparation's demand
func (s *Service) UpdateServings(ctx context.Context, cmd inbound.UpdateServingsCommand) error {
	if err := s.validator.Struct(cmd); err != nil {
		return err
	}
	_, err := s.mutate(ctx, "update_servings", cmd.UserID, resourceMeal, cmd.MealID,
		func(ctx context.Context, tx outbound.Tx, week *schedule.Week, now time.Time) error {
			if err := week.SetServings(cmd.MealID, cmd.Servings, now); err != nil {
				return err
			}
			m, _ := week.Meal(cmd.MealID)
			if !m.HasPreparation() {
				return nil
			}
			p, ok := week.Preparation(m.PreparationID)
			if !ok {
				return nil
			}
			if err := s.reconciler.ResizePreparation(ctx, tx, cmd.UserID, demand(week, p)); err != nil {
				return errors.NewDatabaseError("resize shopping demand", err)
			}
			return nil
		})
	return err
}

// RegeneratePreparation draws a different recipe for a preparation. It
// reports false without changing anything when no other recipe qualifies.
func (s *Service) RegeneratePreparation(ctx context.Context, cmd inbound.RegeneratePreparationCommand) (bool, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return false, err
	}

	changed := false
	_, err := s.mutate(ctx, "regenerate_preparation", cmd.UserID, resourcePreparation, cmd.PreparationID,
		func(ctx context.Context, tx outbound.Tx, week *schedule.Week, now time.Time) error {
			p, ok := week.Preparation(cmd.PreparationID)
			if !ok {
				return schedule.ErrPreparationNotFound
			}
			if week.HasConfirmedMeal(p.ID) {
				return schedule.ErrPreparationConfirmed
			}

			diet := schedule.DietUnassigned
			if day, ok := week.Day(p.DayID); ok {
				diet = day.DietType
			}
			weights, err := s.weights(ctx, tx, cmd.UserID, week.Start)
			if err != nil {
				return err
			}
			rec, err := s.selector.SelectRecipe(ctx, selector.Constraints{
				DietType:         diet,
				MealType:         p.MealType,
				ExcludeRecipeIDs: []uuid.UUID{p.RecipeID},
				Weights:          weights,
			})
			if err != nil {
				return errors.NewExternalServiceError("recipe catalog", err)
			}
			if rec == nil || rec.ID == p.RecipeID {
				s.logger.Info("No alternative recipe, keeping preparation",
					zap.String("preparation_id", p.ID.String()),
				)
				return nil
			}

			if err := week.SwapRecipe(p.ID, rec.ID, now); err != nil {
				return err
			}
			if err := s.reconciler.ResizePreparation(ctx, tx, cmd.UserID, demand(week, p)); err != nil {
				return errors.NewDatabaseError("replace shopping demand", err)
			}
			changed = true
			return nil
		})
	if err != nil {
		return false, err
	}
	if changed {
		s.forgetRecent(ctx, cmd.UserID)
	}
	return changed, nil
}

// AddChallengeDay inserts one challenge preparation and meal per configured
// meal type on a day that holds no meals
func (s *Service) AddChallengeDay(ctx context.Context, cmd inbound.ChallengeDayCommand) error {
	if err := s.validator.Struct(cmd); err != nil {
		return err
	}
	date := schedule.Date(cmd.Date)

	plan, err := s.plans.GetPlan(ctx, cmd.UserID, s.cfg.TargetDays)
	if stderrors.Is(err, outbound.ErrNotFound) {
		return errors.NewNotFoundError("PrepPlan", cmd.UserID.String())
	}
	if err != nil {
		return errors.NewExternalServiceError("plan provider", err)
	}
	servings := plan.DefaultServings()

	return s.dayOperation(ctx, "add_challenge_day", cmd.UserID, date,
		func(ctx context.Context, tx outbound.Tx, week *schedule.Week, now time.Time) error {
			day, ok := week.DayOn(date)
			switch {
			case !ok:
				day = schedule.NewScheduleDay(cmd.UserID, date, plan.DietType, now)
				week.AddDay(day)
			case len(week.MealsOn(day.ID)) > 0:
				return schedule.ErrDayNotEmpty
			case day.DietType == schedule.DietUnassigned:
				day.DietType = plan.DietType
				day.UpdatedAt = now
			}

			weights, err := s.weights(ctx, tx, cmd.UserID, week.Start)
			if err != nil {
				return err
			}
			var exclude []uuid.UUID
			for _, p := range week.Preparations() {
				exclude = append(exclude, p.RecipeID)
			}

			var added []*schedule.Preparation
			for _, mealType := range s.cfg.ChallengeMealTypes {
				rec, err := s.selector.SelectRecipe(ctx, selector.Constraints{
					DietType:         day.DietType,
					MealType:         mealType,
					ExcludeRecipeIDs: exclude,
					Weights:          weights,
				})
				if err != nil {
					return errors.NewExternalServiceError("recipe catalog", err)
				}
				if rec == nil {
					return errors.NewNoEligibleRecipeError(string(mealType))
				}
				exclude = append(exclude, rec.ID)

				prep := schedule.NewPreparation(cmd.UserID, day.ID, mealType, rec.ID, now)
				prep.Servings = servings
				meal := schedule.NewMeal(prep, day.ID, mealType, servings, now)
				meal.IsChallenge = true
				week.AddPreparation(prep)
				week.AddMeal(meal)
				added = append(added, prep)
			}

			if err := tx.Schedule().SaveWeek(ctx, week); err != nil {
				return errors.NewDatabaseError("save week", err)
			}
			for _, p := range added {
				if err := s.reconciler.OnPreparationAdded(ctx, tx, cmd.UserID, demand(week, p)); err != nil {
					return errors.NewDatabaseError("record shopping demand", err)
				}
			}

			week.AddEvent(schedule.ChallengeDayAddedEvent{
				UserID:  cmd.UserID,
				Date:    date,
				Meals:   len(added),
				AddedAt: now,
			})
			return nil
		})
}

// RemoveChallengeDay clears a day that holds only challenge meals
func (s *Service) RemoveChallengeDay(ctx context.Context, cmd inbound.ChallengeDayCommand) error {
	if err := s.validator.Struct(cmd); err != nil {
		return err
	}
	date := schedule.Date(cmd.Date)

	return s.dayOperation(ctx, "remove_challenge_day", cmd.UserID, date,
		func(ctx context.Context, tx outbound.Tx, week *schedule.Week, now time.Time) error {
			day, ok := week.DayOn(date)
			if !ok {
				return errors.NewNotFoundError(resourceDay, date.Format(dateLayout))
			}
			if !week.ChallengeOnly(day.ID) {
				return schedule.ErrDayNotChallenge
			}

			meals := week.MealsOn(day.ID)
			seen := make(map[uuid.UUID]struct{})
			var released []shopping.Demand
			for _, m := range meals {
				if m.IsConfirmed() {
					return schedule.ErrMealConfirmed
				}
				if !m.HasPreparation() {
					continue
				}
				if _, dup := seen[m.PreparationID]; dup {
					continue
				}
				seen[m.PreparationID] = struct{}{}
				if p, ok := week.Preparation(m.PreparationID); ok {
					released = append(released, demand(week, p))
				}
			}

			if err := s.reconciler.OnPreparationsRemoved(ctx, tx, cmd.UserID, released); err != nil {
				return errors.NewDatabaseError("release shopping demand", err)
			}
			for _, m := range meals {
				week.RemoveMeal(m.ID, now)
			}
			if err := tx.Schedule().SaveWeek(ctx, week); err != nil {
				return errors.NewDatabaseError("save week", err)
			}

			week.AddEvent(schedule.ChallengeDayRemovedEvent{
				UserID:    cmd.UserID,
				Date:      date,
				RemovedAt: now,
			})
			return nil
		})
}

// dayOperation runs fn on the week containing date. The week is the
// caller's own, so no ownership check applies; fn saves what it changes.
func (s *Service) dayOperation(ctx context.Context, op string, userID uuid.UUID, date time.Time, fn mutateFunc) error {
	ctx, span := s.tracer.Start(ctx, "schedule."+op, trace.WithAttributes(
		attribute.String("user_id", userID.String()),
		attribute.String("date", date.Format(dateLayout)),
	))
	defer span.End()

	s.logger.Info("Mutating schedule day",
		zap.String("operation", op),
		zap.String("user_id", userID.String()),
		zap.Time("date", date),
	)

	var week *schedule.Week
	err := s.uow.Do(ctx, func(ctx context.Context, tx outbound.Tx) error {
		if err := s.verifyDate(ctx, userID, date); err != nil {
			return err
		}
		var err error
		week, err = s.loadWeek(ctx, tx, userID, date)
		if err != nil {
			return err
		}
		return translate(fn(ctx, tx, week, s.clock.Now()))
	})

	s.metrics.LifecycleOperation(op, outcome(err))
	if err != nil {
		recordError(span, err)
		s.logger.Warn("Schedule day operation rejected",
			zap.String("operation", op),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return err
	}

	s.afterCommit(ctx, userID, week.Events(), week.Start)
	s.forgetRecent(ctx, userID)
	return nil
}
