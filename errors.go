package retry

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned (wrapped in a *ConfigError) when an option
// violates its constraint. Configuration is validated before the first
// attempt; no operation runs on an invalid configuration.
var ErrInvalidConfig = errors.New("invalid retry configuration")

// ErrAborted is returned when the caller's context is done before or during
// the invocation. It is terminal: once observed, no further attempts execute
// and the retry predicate is never consulted.
var ErrAborted = errors.New("retry aborted")

// ErrAttemptTimeout marks an attempt that did not settle within the
// per-attempt timeout. It counts as a retryable failure of that attempt;
// callers can special-case it with errors.Is.
var ErrAttemptTimeout = errors.New("attempt timed out")

// ErrTotalTimeout is returned when the whole-invocation time budget is
// exhausted, or would be exceeded by the next backoff delay. It is terminal
// and bypasses the retry predicate.
var ErrTotalTimeout = errors.New("total timeout exceeded")

// ConfigError describes a single invalid configuration field. It wraps
// ErrInvalidConfig for errors.Is checks.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfig.Error(), e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
