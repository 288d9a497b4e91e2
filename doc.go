// Package retry executes fallible operations under a bounded
// exponential-backoff schedule.
//
// # Overview
//
// Do re-invokes an operation on failure until it succeeds, the attempt budget
// (max retries + the initial attempt) is exhausted, the caller's context is
// cancelled, or a time budget runs out. The operation is opaque: the loop
// classifies only its outcome, never its behavior.
//
// # Core functions
//
//   - Do: execute an operation with retry, returning its value
//   - Run: error-only variant of Do
//   - Wrap / WrapArg: bind fixed options to an operation for reuse
//
// # Usage
//
// Basic retry with defaults (3 retries, 1s base delay doubling up to 30s,
// jitter on):
//
//	user, err := retry.Do(ctx, func(ctx context.Context, attempt int) (*User, error) {
//	    return client.FetchUser(ctx, id)
//	})
//
// Custom schedule and budgets:
//
//	value, err := retry.Do(ctx, op,
//	    retry.WithMaxRetries(5),
//	    retry.WithBaseDelay(100*time.Millisecond),
//	    retry.WithMaxDelay(5*time.Second),
//	    retry.WithAttemptTimeout(2*time.Second),
//	    retry.WithTotalTimeout(30*time.Second),
//	)
//
// Caller-side classification:
//
//	value, err := retry.Do(ctx, op,
//	    retry.WithRetryIf(func(ctx context.Context, err error, a retry.Attempt) (bool, error) {
//	        return !errors.Is(err, ErrNotFound), nil
//	    }),
//	)
//
// # Timeouts and cancellation
//
// The per-attempt timeout and the total timeout are independent budgets: an
// attempt timeout is a retryable failure of that attempt (ErrAttemptTimeout),
// a total-timeout breach is always terminal (ErrTotalTimeout) and bypasses
// the retry predicate. Context cancellation is observed at every suspension
// point, is always terminal (ErrAborted), and takes precedence over every
// other classification.
//
// # Design philosophy
//
// The package is intentionally minimal: no circuit breakers, no persistence
// of retry state, no transport, no error classification beyond the
// distinguished kinds above. Callers bring their own classification via
// WithRetryIf and their own observability via WithLogger, WithTracer, and
// WithOnRetry.
//
// # Thread safety
//
// Each invocation owns its attempt counter, start time, and last-error slot
// exclusively; concurrent invocations are fully independent and need no
// coordination.
package retry
