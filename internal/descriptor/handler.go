package descriptor

import (
	"github.com/specialistvlad/extreg/internal/execctx"
	"github.com/specialistvlad/extreg/internal/nodeid"
)

// View is the read-only graph-in-progress handed to ResolveReferences.
type View interface {
	// Lookup returns the submitted descriptor with the given ID.
	Lookup(id nodeid.ID) (Descriptor, bool)
	// IDs returns the IDs of all submitted descriptors in submission order.
	IDs() []nodeid.ID
}

// Handler owns one descriptor type.
//
// Implementations must be pure and non-blocking: Validate may only look at
// the descriptor payload, ResolveReferences may only report edges and must
// not mutate its inputs.
type Handler interface {
	// Type returns the stable type tag this handler owns.
	Type() string
	// Validate returns every violation found in d.
	Validate(ec execctx.Context, d Descriptor) Result
	// ResolveReferences reports the IDs d refers to. The targets do not have
	// to exist; dangling references are detected by the caller.
	ResolveReferences(d Descriptor, view View) ([]nodeid.ID, error)
}

// Serializer is an optional Handler capability producing the canonical
// serialized form of a descriptor.
type Serializer interface {
	Serialize(d Descriptor) ([]byte, error)
}

// Serialize uses h's Serializer capability when present and falls back to
// the raw payload otherwise.
func Serialize(h Handler, d Descriptor) ([]byte, error) {
	if s, ok := h.(Serializer); ok {
		return s.Serialize(d)
	}
	return d.Clone().Payload, nil
}
