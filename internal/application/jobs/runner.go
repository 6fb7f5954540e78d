// Package jobs holds the periodic batch work of the planner. Jobs walk the
// user list one user at a time; a failing user is logged and skipped.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/ports/inbound"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	jobRollup      = "rollup_week"
	jobPregenerate = "pregenerate_next_week"
)

// WeekReader returns a user's week, generating it when needed
type WeekReader interface {
	GetSchedule(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*inbound.WeekDTO, error)
}

// Runner executes the batch jobs
type Runner struct {
	uow      outbound.UnitOfWork
	users    outbound.UserDirectory
	weeks    WeekReader
	notifier outbound.Notifier
	clock    outbound.Clock
	metrics  outbound.Metrics
	logger   *zap.Logger
}

// NewRunner creates a new job runner
func NewRunner(
	uow outbound.UnitOfWork,
	users outbound.UserDirectory,
	weeks WeekReader,
	notifier outbound.Notifier,
	clock outbound.Clock,
	metrics outbound.Metrics,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		uow:      uow,
		users:    users,
		weeks:    weeks,
		notifier: notifier,
		clock:    clock,
		metrics:  metrics,
		logger:   logger.Named("jobs"),
	}
}

// RollupWeek stores the confirmation counts of the week starting at
// weekStart for every active user
func (r *Runner) RollupWeek(ctx context.Context, weekStart time.Time) error {
	start := schedule.WeekStart(weekStart)
	return r.forEachUser(ctx, jobRollup, func(ctx context.Context, userID uuid.UUID) error {
		return r.uow.Do(ctx, func(ctx context.Context, tx outbound.Tx) error {
			week, err := tx.Schedule().LoadWeek(ctx, userID, start, schedule.WeekEnd(start))
			if err != nil {
				return fmt.Errorf("load week: %w", err)
			}
			if err := tx.WeeklyStats().Save(ctx, week.Stats(r.clock.Now())); err != nil {
				return fmt.Errorf("save stats: %w", err)
			}
			return nil
		})
	})
}

// RollupLastWeek rolls up the week before the current one
func (r *Runner) RollupLastWeek(ctx context.Context) error {
	return r.RollupWeek(ctx, schedule.WeekStart(r.clock.Now()).AddDate(0, 0, -7))
}

// PregenerateNextWeek makes sure every active user has a schedule for next
// week and tells them it is ready
func (r *Runner) PregenerateNextWeek(ctx context.Context) error {
	next := schedule.WeekStart(r.clock.Now()).AddDate(0, 0, 7)
	return r.forEachUser(ctx, jobPregenerate, func(ctx context.Context, userID uuid.UUID) error {
		if _, err := r.weeks.GetSchedule(ctx, userID, next); err != nil {
			return fmt.Errorf("get schedule: %w", err)
		}
		if err := r.notifier.PlanReady(ctx, userID, next); err != nil {
			r.logger.Warn("Plan ready notification failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
		return nil
	})
}

func (r *Runner) forEachUser(ctx context.Context, job string, fn func(ctx context.Context, userID uuid.UUID) error) error {
	users, err := r.users.ActiveUsers(ctx)
	if err != nil {
		r.metrics.JobRun(job, 0, 1)
		return fmt.Errorf("list active users: %w", err)
	}

	r.logger.Info("Job started", zap.String("job", job), zap.Int("users", len(users)))
	failures := 0
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			r.metrics.JobRun(job, len(users), failures)
			return err
		}
		if err := fn(ctx, userID); err != nil {
			failures++
			r.logger.Error("Job failed for user",
				zap.String("job", job),
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}

	r.metrics.JobRun(job, len(users), failures)
	r.logger.Info("Job finished",
		zap.String("job", job),
		zap.Int("users", len(users)),
		zap.Int("failures", failures),
	)
	return nil
}
