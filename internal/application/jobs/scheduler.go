package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Config holds the cron specs of the batch jobs
type Config struct {
	Enabled         bool
	RollupSpec      string
	PregenerateSpec string
	Timeout         time.Duration
}

// Scheduler runs the jobs on their cron specs
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	cfg    Config
	logger *zap.Logger
}

// NewScheduler creates a scheduler. Overlapping runs of the same job are
// skipped.
func NewScheduler(runner *Runner, cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		runner: runner,
		cfg:    cfg,
		logger: logger.Named("scheduler"),
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("Batch jobs disabled")
		return nil
	}
	if err := s.add(jobRollup, s.cfg.RollupSpec, s.runner.RollupLastWeek); err != nil {
		return err
	}
	if err := s.add(jobPregenerate, s.cfg.PregenerateSpec, s.runner.PregenerateNextWeek); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Batch jobs scheduled",
		zap.String("rollup", s.cfg.RollupSpec),
		zap.String("pregenerate", s.cfg.PregenerateSpec),
	)
	return nil
}

// Stop stops the cron loop and waits for running jobs until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) add(job, spec string, run func(context.Context) error) error {
	if spec == "" {
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()

		if err := run(ctx); err != nil {
			s.logger.Error("Job aborted", zap.String("job", job), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", job, spec, err)
	}
	return nil
}
