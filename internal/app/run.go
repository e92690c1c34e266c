package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/extreg/internal/ctxlog"
	"github.com/specialistvlad/extreg/internal/execctx"
	"github.com/specialistvlad/extreg/internal/graph"
	"github.com/specialistvlad/extreg/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Resolve loads the descriptor files and resolves them. Concurrent callers
// share one pass. An unchanged descriptor set is served from the cache. On
// success the graph becomes the app's current graph and, when history is
// enabled, is recorded. The shared pass is not bound to any one caller's
// cancellation; a caller whose context ends stops waiting for it.
func (a *App) Resolve(ctx context.Context) (*graph.Graph, error) {
	shared := context.WithoutCancel(ctx)
	ch := a.group.DoChan("resolve", func() (any, error) {
		return a.resolve(shared)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*graph.Graph), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *App) resolve(ctx context.Context) (g *graph.Graph, err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	ctx, parent := execctx.Ensure(ctx, "app", execctx.WithClock(a.clock))
	ec := parent.Child("resolve")
	ctx = ctxlog.WithExecution(ctx, ec)
	logger := ctxlog.FromContext(ctx)

	ctx, span := a.tracer.Tracer().Start(ctx, tracing.SpanResolve,
		trace.WithAttributes(attribute.String(tracing.AttrCorrelationID, ec.CorrelationID())))
	defer func() {
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			a.lastErr.Store(&resolveFailure{err: err})
		}
		tracing.EndWithError(span, err)
	}()

	model, err := a.loadModel(ctx)
	if err != nil {
		return nil, err
	}
	if a.optionsChanged(model) {
		logger.Warn("Extension options changed on disk; restart to apply them.")
	}

	key := inputKey(model.Resources)
	if cached, ok := a.cache.Get(key); ok {
		g = cached.(*graph.Graph)
		span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, true))
		logger.Debug("Descriptor set unchanged, reusing cached graph.", "version", g.Version())
	} else {
		span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, false))
		if g, err = a.engine.Resolve(ctx, model.Resources); err != nil {
			return nil, err
		}
		a.cache.SetDefault(key, g)
	}
	span.SetAttributes(
		attribute.Int64(tracing.AttrGraphVersion, int64(g.Version())),
		attribute.String(tracing.AttrFingerprint, g.Fingerprint()),
	)

	a.current.Store(g)
	a.lastErr.Store(nil)
	a.record(ctx, g)
	return g, nil
}

func (a *App) record(ctx context.Context, g *graph.Graph) {
	if a.history == nil {
		return
	}
	rec, inserted, err := a.history.Record(ctx, g)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Failed to record snapshot.", "error", err)
		return
	}
	if inserted {
		ctxlog.FromContext(ctx).Info("Snapshot recorded.", "id", rec.ID, "version", rec.Version)
	}
}

// Serve resolves once, then serves the HTTP endpoints and, in watch mode,
// re-resolves on every change until ctx is canceled. A failed pass keeps the
// previous graph in place.
func (a *App) Serve(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Serve method started.")

	if _, err := a.Resolve(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.Error("Initial resolution failed.", "error", err)
	}

	if err := a.startHTTPServer(ctx); err != nil {
		return err
	}
	defer func() { _ = a.closeHTTPServer() }()

	if a.config.Watch {
		if err := a.watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("watch failed: %w", err)
		}
	} else {
		<-ctx.Done()
	}

	a.logger.Debug("App.Serve method finished.")
	return nil
}

// reload runs one pass triggered by a file change.
func (a *App) reload(ctx context.Context) {
	start := time.Now()
	g, err := a.Resolve(ctx)
	if err != nil {
		a.logger.Warn("Resolution failed; keeping last good graph.", "error", err)
		return
	}
	a.logger.Info("Graph reloaded.", "version", g.Version(), "resources", g.Len(), "duration", time.Since(start))
}
