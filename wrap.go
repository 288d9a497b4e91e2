package retry

import "context"

// Wrap binds a fixed set of options to op and returns a callable that runs it
// through Do on every invocation. The options are fixed at construction time
// and cannot be overridden per call.
func Wrap[T any](op Operation[T], opts ...Option) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return Do(ctx, op, opts...)
	}
}

// WrapArg is like Wrap for operations that take one call-time argument. The
// argument is forwarded to op unchanged on every attempt.
func WrapArg[A, T any](op func(ctx context.Context, arg A) (T, error), opts ...Option) func(ctx context.Context, arg A) (T, error) {
	return func(ctx context.Context, arg A) (T, error) {
		return Do(ctx, func(ctx context.Context, _ int) (T, error) {
			return op(ctx, arg)
		}, opts...)
	}
}
