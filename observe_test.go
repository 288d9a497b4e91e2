//go:build unit

package retry

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/npclfg/nano-retry/log"
)

type capturedEntry struct {
	level  log.Level
	msg    string
	fields []log.Field
}

// captureLogger records every emitted entry for assertions.
type captureLogger struct {
	mu      sync.Mutex
	entries []capturedEntry
}

func (l *captureLogger) Log(_ context.Context, level log.Level, msg string, fields ...log.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, capturedEntry{level: level, msg: msg, fields: fields})
}

//nolint:ireturn
func (l *captureLogger) With(_ ...log.Field) log.Logger { return l }

func (l *captureLogger) Enabled(_ log.Level) bool { return true }

func (l *captureLogger) Sync(_ context.Context) error { return nil }

func (l *captureLogger) all() []capturedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]capturedEntry(nil), l.entries...)
}

func TestDo_LogsScheduledRetries(t *testing.T) {
	t.Parallel()

	logger := &captureLogger{}

	var calls atomic.Int32

	_, err := Do(context.Background(), failingOp(&calls, 2),
		fastOpts(WithMaxRetries(5), WithLogger(logger))...)

	require.NoError(t, err)

	entries := logger.all()
	require.Len(t, entries, 2, "one entry per scheduled retry")

	for i, entry := range entries {
		assert.Equal(t, log.LevelWarn, entry.level)
		assert.Equal(t, "retry scheduled", entry.msg)

		byKey := map[string]any{}
		for _, f := range entry.fields {
			byKey[f.Key] = f.Value
		}

		assert.Equal(t, i+1, byKey["attempt"])
		assert.NotEmpty(t, byKey["invocation_id"])
		assert.Contains(t, byKey, "remaining")
		assert.Contains(t, byKey, "delay")
		assert.Contains(t, byKey, "error")
	}
}

func TestDo_NoLogOnSuccessWithoutRetries(t *testing.T) {
	t.Parallel()

	logger := &captureLogger{}

	var calls atomic.Int32

	_, err := Do(context.Background(), failingOp(&calls, 0),
		fastOpts(WithLogger(logger))...)

	require.NoError(t, err)
	assert.Empty(t, logger.all())
}

func TestDo_TracesInvocation(t *testing.T) {
	t.Parallel()

	t.Run("success span carries one event per retry", func(t *testing.T) {
		t.Parallel()

		recorder := tracetest.NewSpanRecorder()
		provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		tracer := provider.Tracer("retry-test")

		var calls atomic.Int32

		_, err := Do(context.Background(), failingOp(&calls, 2),
			fastOpts(WithMaxRetries(5), WithTracer(tracer))...)

		require.NoError(t, err)

		spans := recorder.Ended()
		require.Len(t, spans, 1)

		span := spans[0]
		assert.Equal(t, "retry.Do", span.Name())
		assert.Equal(t, codes.Ok, span.Status().Code)
		assert.Len(t, span.Events(), 2)

		for _, event := range span.Events() {
			assert.Equal(t, "retry scheduled", event.Name)
		}
	})

	t.Run("terminal failure sets error status", func(t *testing.T) {
		t.Parallel()

		recorder := tracetest.NewSpanRecorder()
		provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		tracer := provider.Tracer("retry-test")

		var calls atomic.Int32

		_, err := Do(context.Background(), failingOp(&calls, 100),
			fastOpts(WithMaxRetries(1), WithTracer(tracer))...)

		require.Error(t, err)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})
}
