package registry

import (
	"context"
	"fmt"

	"github.com/specialistvlad/extreg/internal/ctxlog"
)

// Module is the interface every extension implements to be installed.
type Module interface {
	// Identity names the extension.
	Identity() Identity
	// Register contributes the extension's handlers to r, typically through
	// a single r.Register call. It may read its options from r.Options().
	Register(ctx context.Context, r *Registry) error
}

// Install registers every module in order and stops at the first failure.
func Install(ctx context.Context, r *Registry, modules ...Module) error {
	logger := ctxlog.FromContext(ctx)
	for _, m := range modules {
		if err := m.Register(ctx, r); err != nil {
			return fmt.Errorf("install extension %s: %w", m.Identity(), err)
		}
	}
	logger.Debug("All extensions installed.", "count", len(modules))
	return nil
}
