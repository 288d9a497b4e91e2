// Package backoff provides the delay schedule for retry loops: capped
// exponential growth with optional equal jitter, plus a cancellable wait.
package backoff

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	mrand "math/rand/v2"
	"time"
)

// maxExponent bounds factor^(attempt-1) so the float math cannot degenerate
// before the int64 clamp kicks in.
const maxExponent = 1024

// Delay computes the wait before the attempt that follows attempt number
// attempt (1-based). The raw delay is base * factor^(attempt-1), capped at
// maxDelay. When jitter is true the capped value is spread uniformly across
// [0.75*capped, 1.25*capped] to decorrelate simultaneous retriers.
// Non-positive base, maxDelay, or factor yields 0; overflow clamps to
// math.MaxInt64.
func Delay(attempt int, base, maxDelay time.Duration, factor float64, jitter bool) time.Duration {
	capped := Exponential(attempt, base, factor)
	if maxDelay > 0 && capped > maxDelay {
		capped = maxDelay
	}

	if jitter {
		return EqualJitter(capped)
	}

	return capped
}

// Exponential returns base * factor^(attempt-1) with overflow protection.
// Attempts below 1 are treated as 1.
func Exponential(attempt int, base time.Duration, factor float64) time.Duration {
	if base <= 0 || factor <= 0 {
		return 0
	}

	exponent := attempt - 1
	if exponent < 0 {
		exponent = 0
	} else if exponent > maxExponent {
		exponent = maxExponent
	}

	raw := float64(base) * math.Pow(factor, float64(exponent))
	if math.IsInf(raw, 1) || raw >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(raw)
}

// EqualJitter spreads a delay uniformly across [0.75*delay, 1.25*delay].
// Returns 0 for zero or negative delays. Delays too close to the int64
// ceiling are returned unjittered so the upper bound cannot overflow.
func EqualJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}

	// 1.25*delay must stay representable.
	if delay > math.MaxInt64/5*4 {
		return delay
	}

	span := int64(delay / 2)
	if span <= 0 {
		return delay
	}

	return delay - delay/4 + time.Duration(randBelow(span))
}

// randBelow returns a uniform random int64 in [0, n). Uses crypto/rand for
// randomness, falling back to a seeded PRNG if crypto fails.
func randBelow(n int64) int64 {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return cryptoFallbackRand(n)
	}

	return v.Int64()
}

// fallbackDivisor is used when crypto/rand fails completely.
const fallbackDivisor = 2

// cryptoFallbackRand provides a fallback random number generator when
// crypto/rand fails. It first tries to seed a math/rand PRNG via rand.Read
// (a different code path than rand.Int, so it may succeed independently) and,
// failing that, returns the deterministic midpoint so jitter never stalls
// under entropy exhaustion.
func cryptoFallbackRand(maxValue int64) int64 {
	var seed [8]byte

	_, err := rand.Read(seed[:])
	if err != nil {
		return maxValue / fallbackDivisor
	}

	rng := mrand.New(
		mrand.NewPCG(binary.LittleEndian.Uint64(seed[:]), 0),
	) // #nosec G404 -- Fallback when crypto/rand fails

	return rng.Int64N(maxValue)
}

// Wait sleeps for the specified duration while respecting context
// cancellation. Returns nil when the sleep completes, the context error when
// the context is done first. Returns immediately (nil) for zero or negative
// durations; returns immediately with the context error if the context is
// already done.
func Wait(ctx context.Context, duration time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context done: %w", context.Cause(ctx))
	}

	if duration <= 0 {
		return nil
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context done: %w", context.Cause(ctx))
	}
}
