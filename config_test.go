//go:build unit

package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := buildConfig(nil)

	require.NoError(t, err)
	assert.Equal(t, DefaultMaxRetries, cfg.maxRetries)
	assert.Equal(t, DefaultBaseDelay, cfg.baseDelay)
	assert.Equal(t, DefaultMaxDelay, cfg.maxDelay)
	assert.InEpsilon(t, DefaultGrowthFactor, cfg.growthFactor, 1e-9)
	assert.True(t, cfg.jitter)
	assert.False(t, cfg.attemptTimeoutSet)
	assert.False(t, cfg.totalTimeoutSet)
	assert.NotNil(t, cfg.logger)
}

func TestBuildConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
	}{
		{"negative max retries", []Option{WithMaxRetries(-1)}},
		{"zero base delay", []Option{WithBaseDelay(0)}},
		{"negative base delay", []Option{WithBaseDelay(-time.Second)}},
		{"zero max delay", []Option{WithMaxDelay(0)}},
		{"zero growth factor", []Option{WithGrowthFactor(0)}},
		{"negative growth factor", []Option{WithGrowthFactor(-2)}},
		{"zero attempt timeout", []Option{WithAttemptTimeout(0)}},
		{"negative attempt timeout", []Option{WithAttemptTimeout(-time.Second)}},
		{"zero total timeout", []Option{WithTotalTimeout(0)}},
		{"negative total timeout", []Option{WithTotalTimeout(-time.Second)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := buildConfig(tt.opts)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			var cfgErr *ConfigError

			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestDo_InvalidConfigFailsBeforeAnyAttempt(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	_, err := Do(context.Background(), failingOp(&calls, 0), WithMaxRetries(-1))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, int32(0), calls.Load())
}

func TestConfigError_Message(t *testing.T) {
	t.Parallel()

	err := &ConfigError{Field: "base delay", Reason: "must be positive"}

	assert.Contains(t, err.Error(), "base delay")
	assert.Contains(t, err.Error(), "must be positive")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestWithLogger_NilKeepsNop(t *testing.T) {
	t.Parallel()

	cfg, err := buildConfig([]Option{WithLogger(nil)})

	require.NoError(t, err)
	assert.NotNil(t, cfg.logger)
}
