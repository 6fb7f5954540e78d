package schedule

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/alchemorsel/mealprep/internal/application/selector"
	"github.com/alchemorsel/mealprep/internal/application/shopping"
	"github.com/alchemorsel/mealprep/internal/domain/prepplan"
	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/ports/inbound"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/alchemorsel/mealprep/pkg/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// generation is what one run produced
type generation struct {
	week     *schedule.Week
	unfilled []schedule.SlotRef
}

// GetSchedule returns a week, generating it first when it is empty and not
// entirely in the past
func (s *Service) GetSchedule(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*inbound.WeekDTO, error) {
	start := schedule.WeekStart(weekStart)
	end := schedule.WeekEnd(start)

	var cached inbound.WeekDTO
	hit, err := s.weekCache.Get(ctx, userID, start, &cached)
	if err != nil {
		s.logger.Warn("Week cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	s.metrics.CacheLookup("week", hit)
	if hit {
		return &cached, nil
	}

	var week *schedule.Week
	err = s.uow.Do(ctx, func(ctx context.Context, tx outbound.Tx) error {
		var err error
		week, err = s.loadWeek(ctx, tx, userID, start)
		return err
	})
	if err != nil {
		return nil, err
	}

	dto := toWeekDTO(week)
	today := schedule.Date(s.clock.Now())
	if week.IsEmpty() && !today.After(end) {
		s.logger.Info("Week is empty, generating",
			zap.String("user_id", userID.String()),
			zap.Time("week_start", start),
		)
		result, err := s.GenerateSchedule(ctx, inbound.GenerateScheduleCommand{
			UserID: userID,
			Start:  start,
			End:    end,
		})
		if err != nil {
			return nil, err
		}
		dto = &result.Week
	}

	if err := s.weekCache.Put(ctx, userID, start, dto); err != nil {
		s.logger.Warn("Week cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return dto, nil
}

// GenerateSchedule clears [Start, End] and builds it again from the user's
// prep plan. Slots without an eligible recipe are reported, not fatal.
func (s *Service) GenerateSchedule(ctx context.Context, cmd inbound.GenerateScheduleCommand) (*inbound.GenerationResultDTO, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}
	start, end := schedule.Date(cmd.Start), schedule.Date(cmd.End)
	began := time.Now()

	ctx, span := s.tracer.Start(ctx, "schedule.generate", trace.WithAttributes(
		attribute.String("user_id", cmd.UserID.String()),
		attribute.String("start", start.Format(dateLayout)),
		attribute.String("end", end.Format(dateLayout)),
	))
	defer span.End()

	s.logger.Info("Generating schedule",
		zap.String("user_id", cmd.UserID.String()),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	if err := s.verifyDate(ctx, cmd.UserID, start); err != nil {
		recordError(span, err)
		return nil, err
	}

	plan, err := s.plans.GetPlan(ctx, cmd.UserID, s.cfg.TargetDays)
	if stderrors.Is(err, outbound.ErrNotFound) {
		return nil, errors.NewNotFoundError("PrepPlan", cmd.UserID.String())
	}
	if err != nil {
		recordError(span, err)
		return nil, errors.NewExternalServiceError("plan provider", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, errors.NewInvalidPlanError(err)
	}

	var result *generation
	err = s.uow.Do(ctx, func(ctx context.Context, tx outbound.Tx) error {
		var err error
		result, err = s.generate(ctx, tx, cmd, plan, start, end)
		return err
	})
	if err != nil {
		recordError(span, err)
		s.logger.Error("Schedule generation failed",
			zap.String("user_id", cmd.UserID.String()),
			zap.Error(err),
		)
		return nil, translate(err)
	}

	preps := result.week.Preparations()
	s.afterCommit(ctx, cmd.UserID, result.week.Events(), weekStarts(start, end)...)
	s.forgetRecent(ctx, cmd.UserID)
	s.metrics.GenerationCompleted(len(preps), len(result.unfilled), time.Since(began))

	span.SetAttributes(
		attribute.Int("preparations", len(preps)),
		attribute.Int("unfilled", len(result.unfilled)),
	)
	s.logger.Info("Schedule generated",
		zap.String("user_id", cmd.UserID.String()),
		zap.Int("preparations", len(preps)),
		zap.Int("unfilled", len(result.unfilled)),
	)

	out := &inbound.GenerationResultDTO{Week: *toWeekDTO(result.week)}
	for _, slot := range result.unfilled {
		out.Unfilled = append(out.Unfilled, inbound.SlotDTO{
			Date:     slot.Date.Format(dateLayout),
			MealType: string(slot.MealType),
		})
	}
	return out, nil
}

func (s *Service) generate(ctx context.Context, tx outbound.Tx, cmd inbound.GenerateScheduleCommand, plan *prepplan.Plan, start, end time.Time) (*generation, error) {
	userID := cmd.UserID
	now := s.clock.Now()

	// Weights are read before the range is cleared so the recipes being
	// replaced count as recent.
	weights, err := s.weights(ctx, tx, userID, start)
	if err != nil {
		return nil, err
	}

	if err := s.clearRange(ctx, tx, userID, start, end, now); err != nil {
		return nil, err
	}

	week := schedule.NewWeek(userID, start, end)
	active := plan.ActiveWeekdays()
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		diet := schedule.DietUnassigned
		if active[schedule.WeekdayIndex(d)] {
			diet = plan.DietType
		}
		week.AddDay(schedule.NewScheduleDay(userID, d, diet, now))
	}

	var unfilled []schedule.SlotRef
	for _, ws := range weekStarts(start, end) {
		for _, g := range plan.OrderedGenerators() {
			cookOn := ws.AddDate(0, 0, g.Weekday)
			day, ok := week.DayOn(cookOn)
			if !ok {
				continue
			}
			var consumers []prepplan.Consumer
			for _, c := range g.Consumers {
				if week.Contains(ws.AddDate(0, 0, c.Weekday)) {
					consumers = append(consumers, c)
				}
			}
			if len(consumers) == 0 {
				continue
			}

			rec, err := s.selector.SelectRecipe(ctx, selector.Constraints{
				DietType:           day.DietType,
				MealType:           g.MealType,
				ExcludedTags:       cmd.ExcludedTags,
				ConsumeIngredients: cmd.ConsumeIngredients,
				Weights:            weights,
			})
			if err != nil {
				return nil, errors.NewExternalServiceError("recipe catalog", err)
			}
			if rec == nil {
				s.logger.Warn("No eligible recipe for slot",
					zap.String("user_id", userID.String()),
					zap.Time("date", day.Date),
					zap.String("meal_type", string(g.MealType)),
				)
				unfilled = append(unfilled, schedule.SlotRef{Date: day.Date, MealType: g.MealType})
				continue
			}
			weights[rec.ID]++

			prep := schedule.NewPreparation(userID, day.ID, g.MealType, rec.ID, now)
			week.AddPreparation(prep)
			for _, c := range consumers {
				eatOn, _ := week.DayOn(ws.AddDate(0, 0, c.Weekday))
				week.AddMeal(schedule.NewMeal(prep, eatOn.ID, c.MealType, c.Servings, now))
				prep.Servings += c.Servings
			}
		}
	}

	if err := tx.Schedule().SaveWeek(ctx, week); err != nil {
		return nil, errors.NewDatabaseError("save week", err)
	}
	for _, p := range week.Preparations() {
		if err := s.reconciler.OnPreparationAdded(ctx, tx, userID, demand(week, p)); err != nil {
			return nil, errors.NewDatabaseError("record shopping demand", err)
		}
	}

	entry := &schedule.GenerationLog{
		ID:        uuid.New(),
		UserID:    userID,
		Start:     start,
		End:       end,
		Unfilled:  unfilled,
		CreatedAt: now,
	}
	if err := tx.GenerationLogs().Record(ctx, entry); err != nil {
		return nil, errors.NewDatabaseError("record generation", err)
	}

	week.AddEvent(schedule.ScheduleGeneratedEvent{
		UserID:       userID,
		Start:        start,
		End:          end,
		Preparations: len(week.Preparations()),
		Unfilled:     len(unfilled),
		GeneratedAt:  now,
	})
	return &generation{week: week, unfilled: unfilled}, nil
}

// clearRange deletes every preparation cooked and every meal eaten in
// [start, end]. Links crossing the range edge are cut as well. A meal outside
// the range goes with the preparation it eats from, and a preparation outside
// the range is resized to the meals it keeps.
func (s *Service) clearRange(ctx context.Context, tx outbound.Tx, userID uuid.UUID, start, end, now time.Time) error {
	// Preparations and their meals never span two weeks, so the enclosing
	// weeks hold every link into the range.
	scope, err := tx.Schedule().LoadWeek(ctx, userID, schedule.WeekStart(start), schedule.WeekEnd(end))
	if err != nil {
		return errors.NewDatabaseError("load range", err)
	}
	inRange := func(dayID uuid.UUID) bool {
		d, ok := scope.Day(dayID)
		return ok && !d.Date.Before(start) && !d.Date.After(end)
	}

	var removed []shopping.Demand
	for _, p := range scope.Preparations() {
		if inRange(p.DayID) {
			removed = append(removed, demand(scope, p))
			scope.RemovePreparation(p.ID, now)
		}
	}

	var outside []shopping.Demand
	seen := make(map[uuid.UUID]struct{})
	for _, m := range scope.Meals() {
		if !inRange(m.DayID) {
			continue
		}
		if m.HasPreparation() {
			if p, ok := scope.Preparation(m.PreparationID); ok {
				if _, dup := seen[p.ID]; !dup {
					seen[p.ID] = struct{}{}
					snapshot := *p
					outside = append(outside, shopping.Demand{Preparation: &snapshot, WeekStart: demand(scope, p).WeekStart})
				}
			}
		}
		scope.RemoveMeal(m.ID, now)
	}

	var resized []shopping.Demand
	for _, d := range outside {
		if p, ok := scope.Preparation(d.Preparation.ID); ok {
			resized = append(resized, demand(scope, p))
			continue
		}
		removed = append(removed, d)
	}

	if err := s.reconciler.OnPreparationsRemoved(ctx, tx, userID, removed); err != nil {
		return errors.NewDatabaseError("release shopping demand", err)
	}
	for _, d := range resized {
		if err := s.reconciler.ResizePreparation(ctx, tx, userID, d); err != nil {
			return errors.NewDatabaseError("resize shopping demand", err)
		}
	}
	if err := tx.Schedule().SaveWeek(ctx, scope); err != nil {
		return errors.NewDatabaseError("save range edge", err)
	}
	if err := tx.Schedule().DeleteRange(ctx, userID, start, end); err != nil {
		return errors.NewDatabaseError("clear range", err)
	}
	return nil
}

// weekStarts lists the Mondays of every week overlapping [start, end]
func weekStarts(start, end time.Time) []time.Time {
	var out []time.Time
	for ws := schedule.WeekStart(start); !ws.After(end); ws = ws.AddDate(0, 0, 7) {
		out = append(out, ws)
	}
	return out
}
