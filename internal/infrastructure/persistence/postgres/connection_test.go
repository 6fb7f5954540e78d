package postgres

import (
	"testing"
	"time"

	"github.com/alchemorsel/mealprep/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
)

func TestConnectionConfigFrom(t *testing.T) {
	defaults := connectionConfigFrom(config.DatabaseConfig{})
	assert.Equal(t, DefaultConnectionConfig(), defaults)

	custom := connectionConfigFrom(config.DatabaseConfig{
		MaxOpenConns:       50,
		ConnMaxIdleTime:    time.Minute,
		SlowQueryThreshold: time.Second,
		LogLevel:           "debug",
	})
	assert.Equal(t, 50, custom.MaxOpenConns)
	assert.Equal(t, 5, custom.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, custom.ConnMaxLifetime)
	assert.Equal(t, time.Minute, custom.ConnMaxIdleTime)
	assert.Equal(t, time.Second, custom.SlowQueryThreshold)
	assert.Equal(t, "debug", custom.LogLevel)
}
