package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/extreg/internal/ctxlog"
	"github.com/specialistvlad/extreg/internal/descriptor"
)

// entry is one row of the handler table.
type entry struct {
	handler descriptor.Handler
	owner   Identity
}

// Registry holds all registered handlers for a single application instance.
type Registry struct {
	// mu serializes Register and Freeze. Reads after Freeze skip it.
	mu     sync.Mutex
	frozen atomic.Bool

	handlers      map[string]entry
	extensions    map[string]Identity
	registrations []Registration
	options       *Options
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return NewWithOptions(nil)
}

// NewWithOptions creates a Registry whose extensions can read opts.
func NewWithOptions(opts *Options) *Registry {
	if opts == nil {
		opts = NewOptions(nil)
	}
	return &Registry{
		handlers:   make(map[string]entry),
		extensions: make(map[string]Identity),
		options:    opts,
	}
}

// Options returns the option set extensions read during registration.
func (r *Registry) Options() *Options {
	return r.options
}

// Register adds the handlers contributed by one extension. Every check runs
// before the table is touched, so a failed call leaves the registry unchanged.
func (r *Registry) Register(ctx context.Context, ext Identity, handlers ...descriptor.Handler) error {
	logger := ctxlog.FromContext(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return RegistryFrozenError{Extension: ext}
	}
	if err := ext.validate(); err != nil {
		return fmt.Errorf("register extension: %w", err)
	}
	// One version per extension name can be installed.
	if existing, ok := r.extensions[ext.Name]; ok {
		return DuplicateExtensionError{Extension: ext, Existing: existing}
	}

	types := make([]string, 0, len(handlers))
	for i, h := range handlers {
		if h == nil {
			return fmt.Errorf("register extension %s: handler #%d is nil", ext, i)
		}
		typ := h.Type()
		if typ == "" {
			return fmt.Errorf("register extension %s: handler #%d has an empty type", ext, i)
		}
		if existing, ok := r.handlers[typ]; ok {
			return DuplicateTypeError{Type: typ, Existing: existing.owner, Incoming: ext}
		}
		if slices.Contains(types, typ) {
			return DuplicateTypeError{Type: typ, Existing: ext, Incoming: ext}
		}
		types = append(types, typ)
	}

	for _, h := range handlers {
		logger.Debug("Registering descriptor handler.", "type", h.Type(), "extension", ext.String())
		r.handlers[h.Type()] = entry{handler: h, owner: ext}
	}
	r.extensions[ext.Name] = ext
	r.registrations = append(r.registrations, Registration{Extension: ext, Types: types})
	logger.Debug("Extension registered.", "extension", ext.String(), "types", types)
	return nil
}

// MustRegister panics on registration error; intended for bootstrap code paths.
func (r *Registry) MustRegister(ctx context.Context, ext Identity, handlers ...descriptor.Handler) {
	if err := r.Register(ctx, ext, handlers...); err != nil {
		panic(err)
	}
}

// Freeze ends the registration phase. It fails with UnusedOptionsError when
// options were supplied for extensions that never read them; the registry is
// frozen either way.
func (r *Registry) Freeze(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Swap(true) {
		return nil
	}
	logger.Debug("Registry frozen.", "extensions", len(r.registrations), "types", len(r.handlers))

	if unused := r.options.Unused(); len(unused) > 0 {
		installed := make([]string, len(r.registrations))
		for i, reg := range r.registrations {
			installed[i] = reg.Extension.String()
		}
		return UnusedOptionsError{Extensions: unused, Installed: installed}
	}
	return nil
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// HandlerFor returns the handler owning typ.
func (r *Registry) HandlerFor(typ string) (descriptor.Handler, error) {
	e, ok := r.lookup(typ)
	if !ok {
		return nil, UnknownTypeError{Type: typ, Known: r.Types()}
	}
	return e.handler, nil
}

// Owner returns the extension that registered typ.
func (r *Registry) Owner(typ string) (Identity, bool) {
	e, ok := r.lookup(typ)
	return e.owner, ok
}

// Types returns all registered type tags, sorted.
func (r *Registry) Types() []string {
	defer r.readLock()()
	types := make([]string, 0, len(r.handlers))
	for typ := range r.handlers {
		types = append(types, typ)
	}
	slices.Sort(types)
	return types
}

// Extensions returns the registered extensions in registration order.
func (r *Registry) Extensions() []Registration {
	defer r.readLock()()
	out := make([]Registration, len(r.registrations))
	for i, reg := range r.registrations {
		out[i] = Registration{Extension: reg.Extension, Types: slices.Clone(reg.Types)}
	}
	return out
}

func (r *Registry) lookup(typ string) (entry, bool) {
	defer r.readLock()()
	e, ok := r.handlers[typ]
	return e, ok
}

// readLock takes the writer lock only while registration is still open; the
// table is immutable once frozen.
func (r *Registry) readLock() (unlock func()) {
	if r.frozen.Load() {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}
