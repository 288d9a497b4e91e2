package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/npclfg/nano-retry/backoff"
)

// Operation is the unit of work being retried. The attempt number is 1-based
// and includes the initial attempt. The context carries the per-attempt
// deadline when one is configured.
type Operation[T any] func(ctx context.Context, attempt int) (T, error)

// Attempt is the read-only view of a failed attempt passed to the retry
// predicate and the schedule observer. Callbacks must not rely on it beyond
// the call they receive it in.
type Attempt struct {
	// Number is the 1-based attempt that just failed.
	Number int

	// Remaining is the number of retries still permitted after this attempt.
	Remaining int

	// Elapsed is the time since the invocation started.
	Elapsed time.Duration

	// NextDelay is the backoff delay scheduled before the next attempt.
	NextDelay time.Duration

	// InvocationID identifies the whole retry invocation for log and trace
	// correlation.
	InvocationID string
}

// RetryFunc decides whether a failed attempt should be retried. Returning
// false surfaces the attempt's error unchanged. A non-nil error aborts the
// invocation immediately and replaces the attempt's error; it is never
// retried.
type RetryFunc func(ctx context.Context, err error, attempt Attempt) (bool, error)

// ScheduleFunc observes a scheduled retry, after classification and before
// the backoff delay. A non-nil error aborts the invocation immediately and
// replaces the attempt's error; it is never retried.
type ScheduleFunc func(ctx context.Context, err error, attempt Attempt) error

// Do executes op, retrying failures on a capped exponential backoff schedule
// until success, exhaustion of maxRetries+1 attempts, context cancellation,
// or a timeout budget runs out.
//
// Attempts run strictly sequentially. Cancellation is observed before each
// attempt, during an attempt when a per-attempt timeout is configured, and
// during every inter-attempt delay; once observed it is terminal and
// overrides retry classification.
func Do[T any](ctx context.Context, op Operation[T], opts ...Option) (T, error) {
	var zero T

	cfg, err := buildConfig(opts)
	if err != nil {
		return zero, err
	}

	inv := newInvocation(cfg)

	ctx = inv.startSpan(ctx)

	value, err := execute(ctx, inv, op)
	inv.endSpan(err)

	return value, err
}

// Run is the error-only variant of Do for operations without a result value.
func Run(ctx context.Context, op func(ctx context.Context, attempt int) error, opts ...Option) error {
	_, err := Do(ctx, func(ctx context.Context, attempt int) (struct{}, error) {
		return struct{}{}, op(ctx, attempt)
	}, opts...)

	return err
}

// execute drives the retry state machine for one invocation.
func execute[T any](ctx context.Context, inv *invocation, op Operation[T]) (T, error) {
	var (
		zero    T
		lastErr error
	)

	cfg := inv.cfg
	maxAttempts := cfg.maxRetries + 1

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if cfg.totalTimeoutSet && time.Since(inv.start) >= cfg.totalTimeout {
			return zero, fmt.Errorf("%w: budget %s exhausted", ErrTotalTimeout, cfg.totalTimeout)
		}

		if ctx.Err() != nil {
			return zero, abortErr(ctx)
		}

		value, err := runAttempt(ctx, cfg, op, attempt)
		if err == nil {
			return value, nil
		}

		// An abort is terminal and never subject to retry classification.
		if errors.Is(err, ErrAborted) {
			return zero, err
		}

		if ctx.Err() != nil {
			return zero, abortErr(ctx)
		}

		lastErr = err

		remaining := maxAttempts - attempt
		if remaining == 0 {
			return zero, err
		}

		delay := backoff.Delay(attempt, cfg.baseDelay, cfg.maxDelay, cfg.growthFactor, cfg.jitter)
		info := Attempt{
			Number:       attempt,
			Remaining:    remaining,
			Elapsed:      time.Since(inv.start),
			NextDelay:    delay,
			InvocationID: inv.id,
		}

		if cfg.retryIf != nil {
			keep, predicateErr := cfg.retryIf(ctx, err, info)
			if predicateErr != nil {
				return zero, predicateErr
			}

			if !keep {
				return zero, err
			}
		}

		inv.observeScheduled(ctx, err, info)

		if cfg.onRetry != nil {
			if hookErr := cfg.onRetry(ctx, err, info); hookErr != nil {
				return zero, hookErr
			}
		}

		if cfg.totalTimeoutSet && info.Elapsed+delay > cfg.totalTimeout {
			return zero, fmt.Errorf("%w: next delay %s would exceed budget %s",
				ErrTotalTimeout, delay, cfg.totalTimeout)
		}

		if waitErr := backoff.Wait(ctx, delay); waitErr != nil {
			return zero, abortErr(ctx)
		}
	}

	// Unreachable: the loop always terminates explicitly within the attempt
	// bound. Surface the last error rather than succeed silently.
	if lastErr == nil {
		lastErr = errors.New("retry loop exited without executing an attempt")
	}

	return zero, lastErr
}

// runAttempt executes one attempt, racing it against the per-attempt timeout
// and the caller's context when a timeout is configured. A late result from a
// timed-out attempt is dropped through the buffered channel; the attempt
// goroutine never leaks.
func runAttempt[T any](ctx context.Context, cfg Config, op Operation[T], attempt int) (T, error) {
	if !cfg.attemptTimeoutSet {
		return op(ctx, attempt)
	}

	var zero T

	attemptCtx, cancel := context.WithTimeout(ctx, cfg.attemptTimeout)
	defer cancel()

	type attemptResult struct {
		value T
		err   error
	}

	done := make(chan attemptResult, 1)

	go func() {
		value, err := op(attemptCtx, attempt)
		done <- attemptResult{value: value, err: err}
	}()

	timeoutErr := func() error {
		return fmt.Errorf("%w: attempt %d exceeded %s",
			ErrAttemptTimeout, attempt, cfg.attemptTimeout)
	}

	select {
	case res := <-done:
		// The operation may settle in the same instant the attempt deadline
		// fires; classify by the deadline, not by which channel won the race.
		if res.err != nil && ctx.Err() == nil &&
			errors.Is(attemptCtx.Err(), context.DeadlineExceeded) &&
			errors.Is(res.err, context.DeadlineExceeded) {
			return zero, timeoutErr()
		}

		return res.value, res.err
	case <-attemptCtx.Done():
		// Caller cancellation wins over the attempt deadline.
		if ctx.Err() != nil {
			return zero, abortErr(ctx)
		}

		return zero, timeoutErr()
	}
}

// abortErr wraps the context cause in ErrAborted so callers can match the
// abort kind while still reaching the underlying cause with errors.Is.
func abortErr(ctx context.Context) error {
	if cause := context.Cause(ctx); cause != nil {
		return fmt.Errorf("%w: %w", ErrAborted, cause)
	}

	return ErrAborted
}

// newInvocationID returns the correlation id attached to every log entry and
// span of one invocation.
func newInvocationID() string {
	return uuid.NewString()
}
