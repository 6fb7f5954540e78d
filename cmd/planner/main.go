// Package main runs the meal prep planner: the batch job scheduler, the
// metrics endpoint and, with -run, a single batch job on demand
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alchemorsel/mealprep/internal/application/jobs"
	"github.com/alchemorsel/mealprep/internal/infrastructure/config"
	"github.com/alchemorsel/mealprep/internal/infrastructure/container"
	"go.uber.org/fx"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	run := flag.String("run", "", "Run one job and exit: rollup, pregenerate")
	flag.Parse()

	if *run != "" {
		if err := runOnce(*configPath, *run); err != nil {
			log.Fatalf("Job %s failed: %v", *run, err)
		}
		return
	}

	app := fx.New(
		fx.NopLogger, // Use our own logger instead of Fx's
		container.ConfigModule(*configPath),
		container.Module,
	)

	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Fatalf("Failed to stop application gracefully: %v", err)
	}
}

// runOnce starts the container without the scheduler or metrics endpoint
// and runs one job
func runOnce(configPath, job string) error {
	var runner *jobs.Runner
	app := fx.New(
		fx.NopLogger,
		container.ConfigModule(configPath),
		fx.Decorate(func(cfg *config.Config) *config.Config {
			once := *cfg
			once.Jobs.Enabled = false
			once.Monitoring.EnableMetrics = false
			return &once
		}),
		container.Module,
		fx.Populate(&runner),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		_ = app.Stop(stopCtx)
	}()

	switch job {
	case "rollup":
		return runner.RollupLastWeek(ctx)
	case "pregenerate":
		return runner.PregenerateNextWeek(ctx)
	default:
		return fmt.Errorf("unknown job %q", job)
	}
}
