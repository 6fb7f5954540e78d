package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler_RegistersConfiguredJobs(t *testing.T) {
	s := NewScheduler(&Runner{}, Config{
		Enabled:         true,
		RollupSpec:      "0 3 * * 1",
		PregenerateSpec: "0 18 * * 0",
	}, zap.NewNop())

	require.NoError(t, s.Start())
	assert.Equal(t, 2, s.Entries())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestScheduler_Disabled(t *testing.T) {
	s := NewScheduler(&Runner{}, Config{RollupSpec: "0 3 * * 1"}, zap.NewNop())

	require.NoError(t, s.Start())
	assert.Equal(t, 0, s.Entries())
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(&Runner{}, Config{Enabled: true, RollupSpec: "every monday"}, zap.NewNop())

	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rollup_week")
}
