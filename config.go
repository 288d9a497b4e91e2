package retry

import (
	"time"

	"github.com/npclfg/nano-retry/log"
	"go.opentelemetry.io/otel/trace"
)

// Default configuration values applied when the corresponding option is not
// provided.
const (
	DefaultMaxRetries   = 3
	DefaultBaseDelay    = 1000 * time.Millisecond
	DefaultMaxDelay     = 30000 * time.Millisecond
	DefaultGrowthFactor = 2.0
)

// Config holds the effective settings for one retry invocation. It is built
// from defaults plus the caller's options and is immutable once validated.
type Config struct {
	maxRetries   int
	baseDelay    time.Duration
	maxDelay     time.Duration
	growthFactor float64
	jitter       bool

	attemptTimeout    time.Duration
	attemptTimeoutSet bool
	totalTimeout      time.Duration
	totalTimeoutSet   bool

	retryIf RetryFunc
	onRetry ScheduleFunc

	logger log.Logger
	tracer trace.Tracer
}

// Option configures a retry invocation.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		maxRetries:   DefaultMaxRetries,
		baseDelay:    DefaultBaseDelay,
		maxDelay:     DefaultMaxDelay,
		growthFactor: DefaultGrowthFactor,
		jitter:       true,
		logger:       log.NewNop(),
	}
}

func buildConfig(opts []Option) (Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// validate checks every field constraint. It runs once per invocation, before
// the first attempt.
func (c Config) validate() error {
	if c.maxRetries < 0 {
		return &ConfigError{Field: "max retries", Reason: "must not be negative"}
	}

	if c.baseDelay <= 0 {
		return &ConfigError{Field: "base delay", Reason: "must be positive"}
	}

	if c.maxDelay <= 0 {
		return &ConfigError{Field: "max delay", Reason: "must be positive"}
	}

	if c.growthFactor <= 0 {
		return &ConfigError{Field: "growth factor", Reason: "must be positive"}
	}

	if c.attemptTimeoutSet && c.attemptTimeout <= 0 {
		return &ConfigError{Field: "attempt timeout", Reason: "must be positive"}
	}

	if c.totalTimeoutSet && c.totalTimeout <= 0 {
		return &ConfigError{Field: "total timeout", Reason: "must be positive"}
	}

	return nil
}

// WithMaxRetries sets the number of retries after the initial attempt.
// Zero is valid and means exactly one attempt.
func WithMaxRetries(n int) Option {
	return func(c *Config) {
		c.maxRetries = n
	}
}

// WithBaseDelay sets the delay before the first retry.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Config) {
		c.baseDelay = d
	}
}

// WithMaxDelay caps the computed backoff delay (before jitter).
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		c.maxDelay = d
	}
}

// WithGrowthFactor sets the multiplicative growth of the delay per attempt.
func WithGrowthFactor(factor float64) Option {
	return func(c *Config) {
		c.growthFactor = factor
	}
}

// WithJitter enables or disables the ±25% randomization of computed delays.
// Jitter is on by default; disabling it makes the schedule deterministic.
func WithJitter(enabled bool) Option {
	return func(c *Config) {
		c.jitter = enabled
	}
}

// WithAttemptTimeout sets a deadline for each individual attempt. An attempt
// that does not settle in time fails with ErrAttemptTimeout and is retried
// under the normal rules.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.attemptTimeout = d
		c.attemptTimeoutSet = true
	}
}

// WithTotalTimeout sets a time budget for the whole invocation across all
// attempts and delays. Exceeding it terminates with ErrTotalTimeout.
func WithTotalTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.totalTimeout = d
		c.totalTimeoutSet = true
	}
}

// WithRetryIf sets the predicate consulted after each retryable failure.
// Returning false stops retrying immediately; the attempt's error is
// surfaced unchanged. An error return aborts the invocation and replaces the
// attempt error.
func WithRetryIf(fn RetryFunc) Option {
	return func(c *Config) {
		c.retryIf = fn
	}
}

// WithOnRetry sets an observer invoked after each retry is scheduled, before
// the backoff delay. An error return aborts the invocation and replaces the
// attempt error.
func WithOnRetry(fn ScheduleFunc) Option {
	return func(c *Config) {
		c.onRetry = fn
	}
}

// WithLogger sets a structured logger. Scheduled retries are logged at warn
// level with the invocation id, attempt number, remaining retries, delay, and
// error. The default is a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer sets an OpenTelemetry tracer. When present, each invocation runs
// under its own span with one event per scheduled retry.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Config) {
		c.tracer = tracer
	}
}
