package execctx

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Context is the immutable execution context of one request path.
type Context struct {
	correlationID string
	parentID      string
	operation     string
	bindings      map[string]string
	clock         func() time.Time
}

// Option configures a new Context.
type Option func(*Context)

// WithCorrelationID overrides the generated correlation identifier.
func WithCorrelationID(id string) Option {
	return func(c *Context) {
		if id != "" {
			c.correlationID = id
		}
	}
}

// WithClock sets the clock returned by Now.
func WithClock(clock func() time.Time) Option {
	return func(c *Context) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithBindings seeds the context with caller supplied bindings.
func WithBindings(bindings map[string]string) Option {
	return func(c *Context) {
		for k, v := range bindings {
			c.bindings[k] = v
		}
	}
}

// WithOperation names the request the context was created for.
func WithOperation(op string) Option {
	return func(c *Context) {
		c.operation = op
	}
}

// New creates a root Context with a fresh correlation identifier.
func New(opts ...Option) Context {
	c := Context{
		correlationID: uuid.NewString(),
		bindings:      make(map[string]string),
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// With returns a copy of c with one additional binding. c is left untouched.
func (c Context) With(key, value string) Context {
	next := c.clone()
	next.bindings[key] = value
	return next
}

// Child returns a copy of c for a nested operation. The child gets its own
// correlation identifier and remembers c's identifier as its parent.
func (c Context) Child(operation string) Context {
	next := c.clone()
	next.parentID = c.CorrelationID()
	next.correlationID = uuid.NewString()
	next.operation = operation
	return next
}

// CorrelationID returns the identifier of this request path. The zero
// Context reports an empty string.
func (c Context) CorrelationID() string {
	return c.correlationID
}

// ParentID returns the correlation identifier of the parent context, if any.
func (c Context) ParentID() string {
	return c.parentID
}

// Operation returns the name of the request, if one was given.
func (c Context) Operation() string {
	return c.operation
}

// Binding returns the value bound to key.
func (c Context) Binding(key string) (string, bool) {
	v, ok := c.bindings[key]
	return v, ok
}

// Bindings returns a copy of all bindings.
func (c Context) Bindings() map[string]string {
	return maps.Clone(c.bindings)
}

// Now returns the current time according to the context clock.
func (c Context) Now() time.Time {
	if c.clock == nil {
		return time.Now()
	}
	return c.clock()
}

// LogAttrs returns the context as slog key/value pairs. Bindings are emitted
// in key order so log lines are stable.
func (c Context) LogAttrs() []any {
	attrs := make([]any, 0, 6+2*len(c.bindings))
	if c.correlationID != "" {
		attrs = append(attrs, "correlation_id", c.correlationID)
	}
	if c.parentID != "" {
		attrs = append(attrs, "parent_id", c.parentID)
	}
	if c.operation != "" {
		attrs = append(attrs, "operation", c.operation)
	}
	for _, k := range slices.Sorted(maps.Keys(c.bindings)) {
		attrs = append(attrs, "binding."+k, c.bindings[k])
	}
	return attrs
}

func (c Context) clone() Context {
	next := c
	next.bindings = make(map[string]string, len(c.bindings)+1)
	maps.Copy(next.bindings, c.bindings)
	return next
}

// key is an unexported type to prevent collisions with context keys from other packages.
type key struct{}

// WithContext returns a new context.Context carrying ec.
func WithContext(ctx context.Context, ec Context) context.Context {
	return context.WithValue(ctx, key{}, ec)
}

// FromContext extracts the execution context from ctx.
func FromContext(ctx context.Context) (Context, bool) {
	ec, ok := ctx.Value(key{}).(Context)
	return ec, ok
}

// Ensure returns the execution context carried by ctx, creating a root one
// for operation when ctx has none.
func Ensure(ctx context.Context, operation string, opts ...Option) (context.Context, Context) {
	if ec, ok := FromContext(ctx); ok {
		return ctx, ec
	}
	ec := New(append([]Option{WithOperation(operation)}, opts...)...)
	return WithContext(ctx, ec), ec
}
