// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Planner    PlannerConfig    `mapstructure:"planner"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver             string        `mapstructure:"driver"`
	Path               string        `mapstructure:"path"`
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Database           string        `mapstructure:"database"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	SSLMode            string        `mapstructure:"ssl_mode"`
	MaxOpenConns       int           `mapstructure:"max_open_conns"`
	MaxIdleConns       int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel           string        `mapstructure:"log_level"`
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
	AutoMigrate        bool          `mapstructure:"auto_migrate"`
	Seed               bool          `mapstructure:"seed"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	WeekTTL      time.Duration `mapstructure:"week_ttl"`
	VoteTTL      time.Duration `mapstructure:"vote_ttl"`
}

// PlannerConfig contains the schedule generation settings
type PlannerConfig struct {
	TargetDays         int      `mapstructure:"target_days"`
	HatePenalty        float64  `mapstructure:"hate_penalty"`
	LikeBonus          float64  `mapstructure:"like_bonus"`
	ChallengeMealTypes []string `mapstructure:"challenge_meal_types"`
	RecentWeeks        int      `mapstructure:"recent_weeks"`
	HorizonWeeks       int      `mapstructure:"horizon_weeks"`
	RandomSeed         int64    `mapstructure:"random_seed"`
}

// JobsConfig contains the batch job schedule
type JobsConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RollupCron      string        `mapstructure:"rollup_cron"`
	PregenerateCron string        `mapstructure:"pregenerate_cron"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics   bool          `mapstructure:"enable_metrics"`
	MetricsPort     int           `mapstructure:"metrics_port"`
	EnableTracing   bool          `mapstructure:"enable_tracing"`
	OTLPEndpoint    string        `mapstructure:"otlp_endpoint"`
	OTLPInsecure    bool          `mapstructure:"otlp_insecure"`
	SamplingRate    float64       `mapstructure:"sampling_rate"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, *viper.Viper, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/mealprep")
	}

	// Enable environment variable override
	v.SetEnvPrefix("MEALPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	config, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return config, v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// Watch re-reads the config file on change and hands the new configuration
// to onChange. Invalid edits are reported through onError and ignored.
func Watch(v *viper.Viper, onChange func(*Config), onError func(error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		config, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}
		onChange(config)
	})
	v.WatchConfig()
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "mealprep")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "mealprep.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "mealprep")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_query_threshold", "200ms")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.seed", false)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.key_prefix", "mealprep")
	v.SetDefault("redis.week_ttl", "1h")
	v.SetDefault("redis.vote_ttl", "10m")

	// Planner defaults
	v.SetDefault("planner.target_days", 7)
	v.SetDefault("planner.hate_penalty", 3.0)
	v.SetDefault("planner.like_bonus", 0.5)
	v.SetDefault("planner.challenge_meal_types", []string{"dinner"})
	v.SetDefault("planner.recent_weeks", 2)
	v.SetDefault("planner.horizon_weeks", 4)
	v.SetDefault("planner.random_seed", 0)

	// Jobs defaults
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.rollup_cron", "0 3 * * 1")
	v.SetDefault("jobs.pregenerate_cron", "0 18 * * 0")
	v.SetDefault("jobs.timeout", "30m")

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_port", 9090)
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.sampling_rate", 0.1)
	v.SetDefault("monitoring.shutdown_timeout", "10s")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}

	if c.Planner.TargetDays < 1 || c.Planner.TargetDays > 7 {
		return fmt.Errorf("planner.target_days must be between 1 and 7")
	}
	if c.Planner.HatePenalty < 0 || c.Planner.LikeBonus < 0 {
		return fmt.Errorf("planner.hate_penalty and planner.like_bonus must not be negative")
	}
	if c.Planner.RecentWeeks < 0 {
		return fmt.Errorf("planner.recent_weeks must not be negative")
	}
	if c.Planner.HorizonWeeks < 1 {
		return fmt.Errorf("planner.horizon_weeks must be at least 1")
	}

	if c.Monitoring.EnableMetrics && (c.Monitoring.MetricsPort < 1 || c.Monitoring.MetricsPort > 65535) {
		return fmt.Errorf("monitoring.metrics_port must be between 1 and 65535")
	}
	if c.Monitoring.SamplingRate < 0 || c.Monitoring.SamplingRate > 1 {
		return fmt.Errorf("monitoring.sampling_rate must be between 0 and 1")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// GetDSN returns the postgres connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}
