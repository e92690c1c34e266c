package testutil

import (
	"context"
	"testing"

	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/registry"
	"github.com/stretchr/testify/require"
)

// StubModule is a test helper for easily creating a module that registers a
// fixed set of handlers.
type StubModule struct {
	Ident    registry.Identity
	Handlers []descriptor.Handler
}

// Identity implements the registry.Module interface.
func (m StubModule) Identity() registry.Identity { return m.Ident }

// Register implements the registry.Module interface.
func (m StubModule) Register(ctx context.Context, r *registry.Registry) error {
	return r.Register(ctx, m.Ident, m.Handlers...)
}

// FrozenRegistry returns a frozen registry with one stub handler per type,
// all owned by a "test" extension.
func FrozenRegistry(t *testing.T, types ...string) *registry.Registry {
	t.Helper()
	handlers := make([]descriptor.Handler, len(types))
	for i, typ := range types {
		handlers[i] = StubHandler{TypeName: typ}
	}
	r := registry.New()
	ctx := context.Background()
	require.NoError(t, registry.Install(ctx, r, StubModule{
		Ident:    registry.Identity{Name: "test", Version: "0.0.0"},
		Handlers: handlers,
	}))
	require.NoError(t, r.Freeze(ctx))
	return r
}
