package retry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/npclfg/nano-retry/log"
)

// invocation carries the per-call state shared between the loop and its
// observability hooks: the effective config, the correlation id, the start
// timestamp, and the optional span.
type invocation struct {
	cfg   Config
	id    string
	start time.Time
	span  trace.Span
}

func newInvocation(cfg Config) *invocation {
	return &invocation{
		cfg:   cfg,
		id:    newInvocationID(),
		start: time.Now(),
	}
}

// startSpan opens the invocation span when a tracer is configured and returns
// the context the attempts run under. Without a tracer it returns ctx
// unchanged.
func (inv *invocation) startSpan(ctx context.Context) context.Context {
	if inv.cfg.tracer == nil {
		return ctx
	}

	ctx, span := inv.cfg.tracer.Start(ctx, "retry.Do",
		trace.WithAttributes(
			attribute.String("retry.invocation_id", inv.id),
			attribute.Int("retry.max_retries", inv.cfg.maxRetries),
			attribute.Bool("retry.jitter", inv.cfg.jitter),
		),
	)
	inv.span = span

	return ctx
}

// observeScheduled records a scheduled retry on the logger and, when tracing,
// as a span event. It runs after classification decided to retry and before
// the caller's own OnRetry hook.
func (inv *invocation) observeScheduled(ctx context.Context, err error, info Attempt) {
	logger := inv.cfg.logger
	if logger.Enabled(log.LevelWarn) {
		logger.Log(ctx, log.LevelWarn, "retry scheduled",
			log.String("invocation_id", info.InvocationID),
			log.Int("attempt", info.Number),
			log.Int("remaining", info.Remaining),
			log.Duration("delay", info.NextDelay),
			log.Err(err),
		)
	}

	if inv.span != nil {
		inv.span.AddEvent("retry scheduled",
			trace.WithAttributes(
				attribute.Int("retry.attempt", info.Number),
				attribute.Int64("retry.delay_ms", info.NextDelay.Milliseconds()),
				attribute.String("retry.error", err.Error()),
			),
		)
	}
}

// endSpan closes the invocation span with the terminal outcome.
func (inv *invocation) endSpan(err error) {
	if inv.span == nil {
		return
	}

	if err != nil {
		inv.span.RecordError(err)
		inv.span.SetStatus(codes.Error, err.Error())
	} else {
		inv.span.SetStatus(codes.Ok, "")
	}

	inv.span.End()
}
