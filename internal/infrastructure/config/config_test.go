package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "app:\n  name: mealprep\n")

	cfg, _, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 7, cfg.Planner.TargetDays)
	assert.Equal(t, []string{"dinner"}, cfg.Planner.ChallengeMealTypes)
	assert.Equal(t, 2, cfg.Planner.RecentWeeks)
	assert.Equal(t, time.Hour, cfg.Redis.WeekTTL)
	assert.Equal(t, "0 3 * * 1", cfg.Jobs.RollupCron)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "planner:\n  target_days: 5\n")
	t.Setenv("MEALPREP_PLANNER_HATE_PENALTY", "7.5")
	t.Setenv("MEALPREP_APP_ENVIRONMENT", "production")

	cfg, _, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Planner.TargetDays)
	assert.Equal(t, 7.5, cfg.Planner.HatePenalty)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown driver", "database:\n  driver: mysql\n", "database.driver"},
		{"target days", "planner:\n  target_days: 9\n", "planner.target_days"},
		{"horizon", "planner:\n  horizon_weeks: 0\n", "planner.horizon_weeks"},
		{"sampling", "monitoring:\n  sampling_rate: 2\n", "monitoring.sampling_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, _, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: 5432, Username: "planner", Password: "secret", Database: "mealprep", SSLMode: "disable",
	}}
	assert.Equal(t, "host=db port=5432 user=planner password=secret dbname=mealprep sslmode=disable", cfg.GetDSN())
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "app:\n  log_level: info\n")

	_, v, err := Load(path)
	require.NoError(t, err)

	changed := make(chan *Config, 4)
	Watch(v, func(c *Config) { changed <- c }, nil)

	writeConfig(t, dir, "app:\n  log_level: debug\n")

	select {
	case c := <-changed:
		assert.Equal(t, "debug", c.App.LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not observed")
	}
}
