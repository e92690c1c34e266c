package app

import (
	"context"

	"github.com/specialistvlad/extreg/internal/config"
	"github.com/specialistvlad/extreg/internal/watch"
)

// watch re-resolves on each debounced change of the descriptor files.
func (a *App) watch(ctx context.Context) error {
	var exts []string
	if m, ok := a.loader.(*config.Multi); ok {
		exts = m.Extensions()
	}
	w, err := watch.New(watch.Config{
		Paths:      a.config.Paths,
		Extensions: exts,
		Debounce:   a.config.WatchDebounce,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("Watching descriptor files.", "paths", a.config.Paths)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
			a.reload(ctx)
		}
	}
}
