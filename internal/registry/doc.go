// Package registry provides the central "glue" for the extension system.
//
// The Registry stores the mapping from descriptor type tags (e.g. "topic")
// to the descriptor.Handler implementations contributed by extensions, and
// remembers which extension contributed each type.
//
// During application startup, extensions register their handlers, after
// which the registry is frozen. A frozen registry never changes again and is
// safe for lock-free concurrent reads, which is what the resolution engine
// relies on.
package registry
