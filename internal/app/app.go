package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"reflect"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/specialistvlad/extreg/internal/config"
	"github.com/specialistvlad/extreg/internal/ctxlog"
	"github.com/specialistvlad/extreg/internal/execctx"
	"github.com/specialistvlad/extreg/internal/graph"
	"github.com/specialistvlad/extreg/internal/history"
	"github.com/specialistvlad/extreg/internal/registry"
	"github.com/specialistvlad/extreg/internal/resolve"
	"github.com/specialistvlad/extreg/internal/tracing"
	"golang.org/x/sync/singleflight"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx      context.Context
	logger   *slog.Logger
	config   *Config
	loader   config.Loader
	registry *registry.Registry
	engine   *resolve.Engine
	tracer   *tracing.Provider
	history  *history.Store
	clock    func() time.Time

	// options are the extension options the registry was built with.
	options map[string]map[string]any
	cache   *gocache.Cache
	group   singleflight.Group
	current atomic.Pointer[graph.Graph]
	lastErr atomic.Pointer[resolveFailure]

	httpServer *http.Server
}

type resolveFailure struct {
	err error
}

// NewApp builds a ready-to-resolve application: it loads the descriptor
// files once to collect extension options, installs the modules (the core
// set when none are given) and freezes the registry. Logs go to logW.
func NewApp(ctx context.Context, logW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	if loader == nil {
		loader = DefaultLoader()
	}
	clock, err := execctx.LoadClock(os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to configure clock: %w", err)
	}
	tracingCfg := cfg.Tracing
	if tracingCfg.Writer == nil {
		tracingCfg.Writer = logW
	}
	tracer, err := tracing.NewProvider(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure tracing: %w", err)
	}

	a := &App{
		ctx:    ctx,
		logger: logger,
		config: cfg,
		loader: loader,
		tracer: tracer,
		clock:  clock,
		cache:  gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}

	model, err := a.loadModel(ctx)
	if err != nil {
		return nil, err
	}
	options := config.NewModel()
	options.Options = model.Options
	if err := options.Merge(&config.Model{Options: cfg.Extensions}); err != nil {
		return nil, fmt.Errorf("failed to merge extension options: %w", err)
	}
	a.options = options.Options

	a.registry = registry.NewWithOptions(registry.NewOptions(a.options))
	if len(modules) == 0 {
		modules = coreModules
	}
	if err := registry.Install(ctx, a.registry, modules...); err != nil {
		return nil, err
	}
	if err := a.registry.Freeze(ctx); err != nil {
		var unused registry.UnusedOptionsError
		if !errors.As(err, &unused) {
			return nil, err
		}
		logger.Warn("Options given for extensions that are not installed.", "extensions", unused.Extensions, "installed", unused.Installed)
	}
	logger.Debug("Registry ready.", "types", a.registry.Types())
	a.engine = resolve.New(a.registry)

	if cfg.HistoryPath != "" {
		if a.history, err = history.Open(ctx, cfg.HistoryPath); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Registry returns the application's frozen registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// History returns the snapshot history, or nil when it is disabled.
func (a *App) History() *history.Store {
	return a.history
}

// Current returns the last successfully resolved graph, or nil.
func (a *App) Current() *graph.Graph {
	return a.current.Load()
}

// LastError returns the error of the most recent failed pass, if that pass
// is newer than the current graph.
func (a *App) LastError() error {
	f := a.lastErr.Load()
	if f == nil {
		return nil
	}
	return f.err
}

// Close releases the history database and flushes traces.
func (a *App) Close() error {
	var errs []error
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(a.ctx), 5*time.Second)
	defer cancel()
	errs = append(errs, a.tracer.Shutdown(ctx))
	return errors.Join(errs...)
}

// optionsChanged reports whether the extension options in model differ from
// the ones the registry was built with.
func (a *App) optionsChanged(model *config.Model) bool {
	merged := config.NewModel()
	merged.Options = model.Options
	if err := merged.Merge(&config.Model{Options: a.config.Extensions}); err != nil {
		return true
	}
	return !reflect.DeepEqual(normalize(merged.Options), normalize(a.options))
}

func normalize(opts map[string]map[string]any) map[string]map[string]any {
	if len(opts) == 0 {
		return nil
	}
	return opts
}
