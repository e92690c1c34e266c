package testutil

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/specialistvlad/extreg/internal/ctxlog"
	"github.com/specialistvlad/extreg/internal/execctx"
)

// FixedTime is the clock reading of every context built by NewContext.
var FixedTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// NewContext returns a context carrying a debug-level JSON logger writing to
// the returned buffer and an execution context with a fixed clock.
func NewContext(t *testing.T) (context.Context, *SafeBuffer) {
	t.Helper()
	buf := &SafeBuffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ec := execctx.New(
		execctx.WithCorrelationID("test-"+t.Name()),
		execctx.WithClock(func() time.Time { return FixedTime }),
		execctx.WithOperation("test"),
	)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	return ctxlog.WithExecution(ctx, ec), buf
}
