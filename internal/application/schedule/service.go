// Package schedule provides the application layer for generating a user's
// week and mutating it afterwards. Every operation runs in one unit of work;
// events, cache invalidation and progress reporting follow the commit.
package schedule

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/alchemorsel/mealprep/internal/application/selector"
	"github.com/alchemorsel/mealprep/internal/application/shopping"
	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/domain/shared"
	"github.com/alchemorsel/mealprep/internal/ports/inbound"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/alchemorsel/mealprep/pkg/errors"
	"github.com/alchemorsel/mealprep/pkg/validation"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Config holds the planner settings the service needs
type Config struct {
	TargetDays         int
	HatePenalty        float64
	LikeBonus          float64
	ChallengeMealTypes []schedule.MealType
	RecentWeeks        int
}

// Deps lists the collaborators of the service
type Deps struct {
	UnitOfWork    outbound.UnitOfWork
	Plans         outbound.PlanProvider
	Votes         outbound.VoteStore
	Subscriptions outbound.SubscriptionChecker
	Progress      outbound.ProgressSink
	Events        outbound.EventPublisher
	Selector      *selector.Selector
	Reconciler    *shopping.Reconciler
	WeekCache     outbound.WeekCache
	RecentRecipes outbound.RecentRecipeCache
	Clock         outbound.Clock
	Validator     *validation.Validator
	Metrics       outbound.Metrics
	Tracer        trace.Tracer
	Logger        *zap.Logger
	Config        Config
}

// Service implements the schedule use cases
type Service struct {
	uow           outbound.UnitOfWork
	plans         outbound.PlanProvider
	votes         outbound.VoteStore
	subscriptions outbound.SubscriptionChecker
	progress      outbound.ProgressSink
	events        outbound.EventPublisher
	selector      *selector.Selector
	reconciler    *shopping.Reconciler
	weekCache     outbound.WeekCache
	recent        outbound.RecentRecipeCache
	clock         outbound.Clock
	validator     *validation.Validator
	metrics       outbound.Metrics
	tracer        trace.Tracer
	logger        *zap.Logger
	cfg           Config
}

// NewService creates a new schedule service
func NewService(d Deps) *Service {
	cfg := d.Config
	if len(cfg.ChallengeMealTypes) == 0 {
		cfg.ChallengeMealTypes = []schedule.MealType{schedule.MealTypeDinner}
	}
	return &Service{
		uow:           d.UnitOfWork,
		plans:         d.Plans,
		votes:         d.Votes,
		subscriptions: d.Subscriptions,
		progress:      d.Progress,
		events:        d.Events,
		selector:      d.Selector,
		reconciler:    d.Reconciler,
		weekCache:     d.WeekCache,
		recent:        d.RecentRecipes,
		clock:         d.Clock,
		validator:     d.Validator,
		metrics:       d.Metrics,
		tracer:        d.Tracer,
		logger:        d.Logger.Named("schedule-service"),
		cfg:           cfg,
	}
}

var _ inbound.ScheduleService = (*Service)(nil)

// loadWeek loads the Monday to Sunday week containing date
func (s *Service) loadWeek(ctx context.Context, tx outbound.Tx, userID uuid.UUID, date time.Time) (*schedule.Week, error) {
	week, err := tx.Schedule().LoadWeek(ctx, userID, schedule.WeekStart(date), schedule.WeekEnd(date))
	if err != nil {
		return nil, errors.NewDatabaseError("load week", err)
	}
	return week, nil
}

func (s *Service) verifyDate(ctx context.Context, userID uuid.UUID, date time.Time) error {
	if err := s.subscriptions.VerifyDateAllowed(ctx, userID, date); err != nil {
		return errors.NewSubscriptionWindowError(date.Format(dateLayout), err)
	}
	return nil
}

// weights builds the selector weight map from votes and recently used recipes
func (s *Service) weights(ctx context.Context, tx outbound.Tx, userID uuid.UUID, from time.Time) (map[uuid.UUID]float64, error) {
	votes, err := s.votes.VotesFor(ctx, userID)
	if err != nil {
		return nil, errors.NewExternalServiceError("vote store", err)
	}
	recent, err := s.recentRecipes(ctx, tx, userID, from)
	if err != nil {
		return nil, err
	}
	return selector.WeightsFor(votes, recent, s.cfg.HatePenalty, s.cfg.LikeBonus), nil
}

func (s *Service) recentRecipes(ctx context.Context, tx outbound.Tx, userID uuid.UUID, from time.Time) ([]uuid.UUID, error) {
	ids, hit, err := s.recent.Recent(ctx, userID)
	if err != nil {
		s.logger.Warn("Recent recipe cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	s.metrics.CacheLookup("recent_recipes", hit)
	if hit {
		return ids, nil
	}

	since := schedule.WeekStart(from).AddDate(0, 0, -7*s.cfg.RecentWeeks)
	ids, err = tx.Schedule().RecipesUsedSince(ctx, userID, since)
	if err != nil {
		return nil, errors.NewDatabaseError("load recent recipes", err)
	}
	if len(ids) > 0 {
		if err := s.recent.Remember(ctx, userID, ids); err != nil {
			s.logger.Warn("Recent recipe cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	return ids, nil
}

// demand pairs a preparation with the shopping week of its cooking day
func demand(week *schedule.Week, p *schedule.Preparation) shopping.Demand {
	weekStart := week.Start
	if day, ok := week.Day(p.DayID); ok {
		weekStart = schedule.WeekStart(day.Date)
	}
	return shopping.Demand{Preparation: p, WeekStart: weekStart}
}

// afterCommit publishes events and drops cached copies of the touched weeks.
// Failures here are logged only: the data is already committed.
func (s *Service) afterCommit(ctx context.Context, userID uuid.UUID, events []shared.DomainEvent, weekStarts ...time.Time) {
	if len(events) > 0 {
		if err := s.events.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish events",
				zap.String("user_id", userID.String()),
				zap.Int("events", len(events)),
				zap.Error(err),
			)
		}
	}
	for _, ws := range weekStarts {
		if err := s.weekCache.Invalidate(ctx, userID, ws); err != nil {
			s.logger.Warn("Failed to invalidate week cache",
				zap.String("user_id", userID.String()),
				zap.Time("week_start", ws),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) forgetRecent(ctx context.Context, userID uuid.UUID) {
	if err := s.recent.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("Failed to invalidate recent recipes", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

// translate maps domain and repository errors onto the error taxonomy
func translate(err error) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}

	switch {
	case stderrors.Is(err, schedule.ErrMealConfirmed),
		stderrors.Is(err, schedule.ErrPreparationConfirmed),
		stderrors.Is(err, schedule.ErrDayOccupied),
		stderrors.Is(err, schedule.ErrOutsideWeek),
		stderrors.Is(err, schedule.ErrDayNotChallenge),
		stderrors.Is(err, schedule.ErrDayNotEmpty):
		return errors.NewInvalidStateError(err.Error()).WithCause(err)
	case stderrors.Is(err, schedule.ErrMealNotFound),
		stderrors.Is(err, schedule.ErrPreparationNotFound),
		stderrors.Is(err, schedule.ErrDayNotFound),
		stderrors.Is(err, outbound.ErrNotFound):
		return errors.NewAppError(errors.CodeNotFound, "Resource not found", err.Error()).WithCause(err)
	case stderrors.Is(err, schedule.ErrInvalidServings),
		stderrors.Is(err, schedule.ErrInvalidConfirmStatus):
		return errors.NewValidationError(err.Error()).WithCause(err)
	}
	return errors.Wrap(err, "schedule operation failed")
}

// outcome is the metric label for an operation result
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(errors.GetCode(err)))
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func toWeekDTO(week *schedule.Week) *inbound.WeekDTO {
	days := week.Days()
	dto := &inbound.WeekDTO{
		UserID:    week.UserID,
		WeekStart: week.Start.Format(dateLayout),
		WeekEnd:   week.End.Format(dateLayout),
		Days:      make([]inbound.DayDTO, 0, len(days)),
	}
	for _, d := range days {
		preps := week.PreparationsOn(d.ID)
		meals := week.MealsOn(d.ID)
		day := inbound.DayDTO{
			ID:           d.ID,
			Date:         d.Date.Format(dateLayout),
			DietType:     int(d.DietType),
			Preparations: make([]inbound.PreparationDTO, 0, len(preps)),
			Meals:        make([]inbound.MealDTO, 0, len(meals)),
		}
		for _, p := range preps {
			day.Preparations = append(day.Preparations, inbound.PreparationDTO{
				ID:       p.ID,
				DayID:    p.DayID,
				MealType: string(p.MealType),
				RecipeID: p.RecipeID,
				Servings: p.Servings,
			})
		}
		for _, m := range meals {
			meal := inbound.MealDTO{
				ID:          m.ID,
				DayID:       m.DayID,
				MealType:    string(m.MealType),
				RecipeID:    m.RecipeID,
				Servings:    m.Servings,
				IsLeftover:  m.IsLeftover,
				IsChallenge: m.IsChallenge,
				Status:      string(m.Status),
			}
			if m.HasPreparation() {
				prepID := m.PreparationID
				meal.PreparationID = &prepID
			}
			day.Meals = append(day.Meals, meal)
		}
		dto.Days = append(dto.Days, day)
	}
	return dto
}
