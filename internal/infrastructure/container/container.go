// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alchemorsel/mealprep/internal/application/jobs"
	"github.com/alchemorsel/mealprep/internal/application/schedule"
	"github.com/alchemorsel/mealprep/internal/application/selector"
	"github.com/alchemorsel/mealprep/internal/application/shopping"
	domain "github.com/alchemorsel/mealprep/internal/domain/schedule"
	"github.com/alchemorsel/mealprep/internal/infrastructure/adapters"
	"github.com/alchemorsel/mealprep/internal/infrastructure/cache"
	"github.com/alchemorsel/mealprep/internal/infrastructure/config"
	"github.com/alchemorsel/mealprep/internal/infrastructure/monitoring"
	gormRepo "github.com/alchemorsel/mealprep/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/mealprep/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/mealprep/internal/infrastructure/persistence/postgres"
	redisRepo "github.com/alchemorsel/mealprep/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/mealprep/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/mealprep/internal/ports/inbound"
	"github.com/alchemorsel/mealprep/internal/ports/outbound"
	"github.com/alchemorsel/mealprep/pkg/healthcheck"
	"github.com/alchemorsel/mealprep/pkg/logger"
	"github.com/alchemorsel/mealprep/pkg/validation"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module provides every planner component. It expects a *config.Config;
// ConfigModule or fx.Supply provides one.
var Module = fx.Options(
	// Infrastructure modules
	LoggerModule,
	DatabaseModule,
	CacheModule,
	MonitoringModule,

	// Adapter and repository modules
	AdapterModule,
	RepositoryModule,

	// Service modules
	ServiceModule,
	JobsModule,

	// Event modules
	EventModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule loads configuration from path and reloads the log level when
// the file changes
func ConfigModule(path string) fx.Option {
	return fx.Options(
		fx.Provide(func() (*config.Config, *viper.Viper, error) {
			return config.Load(path)
		}),
		fx.Invoke(WatchConfig),
	)
}

// WatchConfig applies log level changes from the config file while running
func WatchConfig(v *viper.Viper, level zap.AtomicLevel, log *zap.Logger) {
	config.Watch(v,
		func(cfg *config.Config) {
			level.SetLevel(logger.ParseLevel(cfg.App.LogLevel))
			log.Info("Configuration reloaded", zap.String("log_level", cfg.App.LogLevel))
		},
		func(err error) {
			log.Warn("Ignoring invalid configuration change", zap.Error(err))
		},
	)
}

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// DatabaseModule provides the database selected by configuration
var DatabaseModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		var db *gorm.DB
		switch cfg.Database.Driver {
		case "postgres":
			cm, err := postgres.NewConnectionManager(cfg, log)
			if err != nil {
				return nil, fmt.Errorf("failed to setup PostgreSQL database: %w", err)
			}
			db = cm.GetDB()
		default:
			var err error
			db, err = sqlite.SetupDatabase(cfg.Database, log)
			if err != nil {
				return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
			}
		}

		if cfg.Database.Seed {
			if err := sqlite.SeedDatabase(context.Background(), db); err != nil {
				log.Warn("Failed to seed database", zap.Error(err))
			}
		}

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return nil
				}
				if err := sqlDB.Close(); err != nil {
					log.Error("Failed to close database connection", zap.Error(err))
				}
				return nil
			},
		})
		return db, nil
	},
)

// CacheModule provides the cache backend and the typed caches on top of it
var CacheModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (outbound.CacheRepository, error) {
		if !cfg.Redis.Enabled {
			log.Info("Using in-memory cache")
			return memory.NewCacheRepository(), nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := redisRepo.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
		log.Info("Using Redis cache",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
		return redisRepo.NewCacheRepository(client, "", log), nil
	},
	func(cfg *config.Config) *cache.KeyBuilder {
		return cache.NewKeyBuilder(cfg.Redis.KeyPrefix)
	},
	fx.Annotate(
		func(repo outbound.CacheRepository, keys *cache.KeyBuilder, cfg *config.Config, log *zap.Logger) *cache.WeekCache {
			return cache.NewWeekCache(repo, keys, cfg.Redis.WeekTTL, log)
		},
		fx.As(new(outbound.WeekCache)),
	),
	fx.Annotate(
		cache.NewRecentRecipes,
		fx.As(new(outbound.RecentRecipeCache)),
	),
	func(catalog *gormRepo.CatalogRepository, repo outbound.CacheRepository, keys *cache.KeyBuilder, cfg *config.Config, log *zap.Logger) outbound.VoteStore {
		return cache.NewVoteStore(catalog, repo, keys, cfg.Redis.VoteTTL, log)
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	fx.Annotate(
		monitoring.NewMetricsCollector,
		fx.As(fx.Self()),
		fx.As(new(outbound.Metrics)),
	),
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		tp, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			Insecure:       cfg.Monitoring.OTLPInsecure,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: tp.Shutdown})
		return tp, nil
	},
	func(tp *monitoring.TracingProvider) trace.Tracer {
		return tp.Tracer()
	},
)

// AdapterModule provides the clock, randomness and notification adapters
var AdapterModule = fx.Provide(
	fx.Annotate(adapters.NewSystemClock, fx.As(new(outbound.Clock))),
	func(cfg *config.Config) outbound.RandomSource {
		return adapters.NewRandom(cfg.Planner.RandomSeed)
	},
	func(clock outbound.Clock, cfg *config.Config) outbound.SubscriptionChecker {
		return adapters.NewWindowChecker(clock, cfg.Planner.HorizonWeeks)
	},
	fx.Annotate(adapters.NewProgressLog, fx.As(new(outbound.ProgressSink))),
	fx.Annotate(adapters.NewLogNotifier, fx.As(new(outbound.Notifier))),
	fx.Annotate(
		adapters.NewEventDispatcher,
		fx.As(fx.Self()),
		fx.As(new(outbound.EventPublisher)),
	),
	validation.New,
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(
		gormRepo.NewUnitOfWork,
		fx.As(new(outbound.UnitOfWork)),
	),
	fx.Annotate(
		gormRepo.NewCatalogRepository,
		fx.As(fx.Self()),
		fx.As(new(outbound.RecipeCatalog)),
		fx.As(new(outbound.IngredientCatalog)),
		fx.As(new(outbound.PlanProvider)),
	),
	fx.Annotate(
		gormRepo.NewUserRepository,
		fx.As(new(outbound.UserDirectory)),
	),
)

// ScheduleParams lists what the schedule service is built from
type ScheduleParams struct {
	fx.In

	Config        *config.Config
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
}

// NewScheduleService builds the schedule service from configuration
func NewScheduleService(p ScheduleParams) (*schedule.Service, error) {
	mealTypes, err := parseMealTypes(p.Config.Planner.ChallengeMealTypes)
	if err != nil {
		return nil, err
	}
	return schedule.NewService(schedule.Deps{
		UnitOfWork:    p.UnitOfWork,
		Plans:         p.Plans,
		Votes:         p.Votes,
		Subscriptions: p.Subscriptions,
		Progress:      p.Progress,
		Events:        p.Events,
		Selector:      p.Selector,
		Reconciler:    p.Reconciler,
		WeekCache:     p.WeekCache,
		RecentRecipes: p.RecentRecipes,
		Clock:         p.Clock,
		Validator:     p.Validator,
		Metrics:       p.Metrics,
		Tracer:        p.Tracer,
		Logger:        p.Logger,
		Config: schedule.Config{
			TargetDays:         p.Config.Planner.TargetDays,
			HatePenalty:        p.Config.Planner.HatePenalty,
			LikeBonus:          p.Config.Planner.LikeBonus,
			ChallengeMealTypes: mealTypes,
			RecentWeeks:        p.Config.Planner.RecentWeeks,
		},
	}), nil
}

func parseMealTypes(names []string) ([]domain.MealType, error) {
	out := make([]domain.MealType, 0, len(names))
	for _, name := range names {
		m, err := domain.ParseMealType(name)
		if err != nil {
			return nil, fmt.Errorf("planner.challenge_meal_types: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	selector.New,
	shopping.NewReconciler,
	fx.Annotate(
		shopping.NewService,
		fx.As(new(inbound.ShoppingListService)),
	),
	fx.Annotate(
		NewScheduleService,
		fx.As(fx.Self()),
		fx.As(new(inbound.ScheduleService)),
	),
)

// JobsModule provides the batch jobs and their cron scheduler
var JobsModule = fx.Provide(
	func(s *schedule.Service) jobs.WeekReader {
		return s
	},
	jobs.NewRunner,
	func(runner *jobs.Runner, cfg *config.Config, log *zap.Logger) *jobs.Scheduler {
		return jobs.NewScheduler(runner, jobs.Config{
			Enabled:         cfg.Jobs.Enabled,
			RollupSpec:      cfg.Jobs.RollupCron,
			PregenerateSpec: cfg.Jobs.PregenerateCron,
			Timeout:         cfg.Jobs.Timeout,
		}, log)
	},
)

// EventModule registers the in-process event handlers
var EventModule = fx.Invoke(
	func(d *adapters.EventDispatcher, log *zap.Logger) {
		d.Register(adapters.AllEvents, adapters.LogEvents(log.Named("events")))
	},
)

// NewHealthCheck registers the database and cache probes
func NewHealthCheck(cfg *config.Config, log *zap.Logger, db *gorm.DB, cacheRepo outbound.CacheRepository) *healthcheck.HealthCheck {
	health := healthcheck.New(cfg.App.Version, log.Named("health"))
	if sqlDB, err := db.DB(); err == nil {
		health.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
	}
	health.Register("cache", healthcheck.NewCustomChecker("cache", func(ctx context.Context) (healthcheck.Status, string, interface{}) {
		if _, err := cacheRepo.Exists(ctx, "health:probe"); err != nil {
			return healthcheck.StatusDegraded, err.Error(), nil
		}
		return healthcheck.StatusHealthy, "", map[string]interface{}{"redis": cfg.Redis.Enabled}
	}))
	return health
}

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks starts the job scheduler and the metrics endpoint
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	metrics *monitoring.MetricsCollector,
	cacheRepo outbound.CacheRepository,
	scheduler *jobs.Scheduler,
) {
	health := NewHealthCheck(cfg, log, db, cacheRepo)
	if sqlDB, err := db.DB(); err == nil {
		if err := metrics.Registry().Register(collectors.NewDBStatsCollector(sqlDB, cfg.Database.Driver)); err != nil {
			log.Warn("Failed to register database pool metrics", zap.Error(err))
		}
	}

	var server *http.Server
	if cfg.Monitoring.EnableMetrics {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/health", health.Handler())
		mux.Handle("/health/live", health.LivenessHandler())
		mux.Handle("/health/ready", health.ReadinessHandler())
		server = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Monitoring.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting meal prep planner",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
			)

			if err := scheduler.Start(); err != nil {
				return err
			}

			if server != nil {
				go func() {
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error("Metrics server stopped", zap.Error(err))
					}
				}()
				log.Info("Metrics endpoint listening", zap.String("addr", server.Addr))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down meal prep planner")

			if err := scheduler.Stop(ctx); err != nil {
				log.Warn("Jobs did not finish before shutdown", zap.Error(err))
			}
			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					log.Error("Failed to shutdown metrics server", zap.Error(err))
				}
			}

			// Flush logs
			_ = log.Sync()
			return nil
		},
	})
}
