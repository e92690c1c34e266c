// Package execctx carries the execution context of one top-level request
// (a registration batch or a resolution call) through the registry and the
// resolution engine.
//
// A Context is a read-only value: correlation identifiers, caller supplied
// bindings and the clock to use. It holds no resource data. Only the caller at
// the boundary creates or extends it, the core merely reads it and hands it to
// extension handlers, which keeps the core free of any observability stack.
package execctx
