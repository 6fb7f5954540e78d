// Package postgres provides PostgreSQL database connection and management
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alchemorsel/mealprep/internal/infrastructure/config"
	gormModels "github.com/alchemorsel/mealprep/internal/infrastructure/persistence/gorm"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnectionConfig holds the pool settings
type ConnectionConfig struct {
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
	LogLevel           string
}

// DefaultConnectionConfig returns the default pool settings
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		MaxOpenConns:       25,
		MaxIdleConns:       5,
		ConnMaxLifetime:    30 * time.Minute,
		ConnMaxIdleTime:    5 * time.Minute,
		SlowQueryThreshold: 200 * time.Millisecond,
		LogLevel:           "warn",
	}
}

// connectionConfigFrom applies configured pool settings over the defaults
func connectionConfigFrom(db config.DatabaseConfig) *ConnectionConfig {
	connConfig := DefaultConnectionConfig()
	if db.MaxOpenConns > 0 {
		connConfig.MaxOpenConns = db.MaxOpenConns
	}
	if db.MaxIdleConns > 0 {
		connConfig.MaxIdleConns = db.MaxIdleConns
	}
	if db.ConnMaxLifetime > 0 {
		connConfig.ConnMaxLifetime = db.ConnMaxLifetime
	}
	if db.ConnMaxIdleTime > 0 {
		connConfig.ConnMaxIdleTime = db.ConnMaxIdleTime
	}
	if db.SlowQueryThreshold > 0 {
		connConfig.SlowQueryThreshold = db.SlowQueryThreshold
	}
	if db.LogLevel != "" {
		connConfig.LogLevel = db.LogLevel
	}
	return connConfig
}

// ConnectionManager owns the PostgreSQL connection pool
type ConnectionManager struct {
	logger *zap.Logger
	db     *gorm.DB
	sqlDB  *sql.DB
}

// NewConnectionManager connects to PostgreSQL
func NewConnectionManager(cfg *config.Config, log *zap.Logger) (*ConnectionManager, error) {
	connConfig := connectionConfigFrom(cfg.Database)

	cm := &ConnectionManager{logger: log.Named("postgres")}
	if err := cm.connect(cfg.GetDSN(), connConfig); err != nil {
		return nil, fmt.Errorf("failed to initialize primary connection: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := cm.db.AutoMigrate(gormModels.AllModels()...); err != nil {
			cm.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	cm.logger.Info("Database connection manager initialized",
		zap.Int("max_open_conns", connConfig.MaxOpenConns),
		zap.Int("max_idle_conns", connConfig.MaxIdleConns),
		zap.Duration("conn_max_lifetime", connConfig.ConnMaxLifetime),
		zap.Duration("slow_query_threshold", connConfig.SlowQueryThreshold),
	)
	return cm, nil
}

func (cm *ConnectionManager) connect(dsn string, config *ConnectionConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:      gormModels.NewLogger(cm.logger, config.LogLevel, config.SlowQueryThreshold),
		PrepareStmt: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	cm.db = db
	cm.sqlDB = sqlDB
	return nil
}

// GetDB returns the main database connection
func (cm *ConnectionManager) GetDB() *gorm.DB {
	return cm.db
}

// Close closes the pool
func (cm *ConnectionManager) Close() error {
	if cm.sqlDB == nil {
		return nil
	}
	if err := cm.sqlDB.Close(); err != nil {
		cm.logger.Error("Failed to close primary database", zap.Error(err))
		return err
	}
	return nil
}
