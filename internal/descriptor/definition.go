package descriptor

import (
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/extreg/internal/execctx"
	"github.com/specialistvlad/extreg/internal/nodeid"
)

// Definition builds a Handler from typed functions over a decoded payload P.
//
// Decode converts the raw payload into P and defaults to JSON decoding.
// Precheck runs on the raw payload before decoding, typically a schema check;
// when it reports errors, Decode and Validate are skipped so every schema
// violation is reported individually. Validate and References are optional;
// a nil Validate accepts every payload that decodes, a nil References reports
// no edges. Serialize is optional and enables the Serializer capability.
type Definition[P any] struct {
	Type       string
	Precheck   func(payload json.RawMessage) Result
	Decode     func(d Descriptor) (P, error)
	Validate   func(ec execctx.Context, d Descriptor, p P) Result
	References func(d Descriptor, p P) ([]nodeid.ID, error)
	Serialize  func(d Descriptor, p P) ([]byte, error)
}

// Handler compiles the definition. It panics when Type is empty, mirroring
// the other bootstrap-time registration helpers.
func (def Definition[P]) Handler() Handler {
	if def.Type == "" {
		panic("descriptor definition: type is empty")
	}
	decode := def.Decode
	if decode == nil {
		decode = decodeJSON[P]
	}
	h := &typedHandler[P]{def: def, decode: decode}
	if def.Serialize != nil {
		return &serializingHandler[P]{typedHandler: h}
	}
	return h
}

type typedHandler[P any] struct {
	def    Definition[P]
	decode func(d Descriptor) (P, error)
}

func (h *typedHandler[P]) Type() string { return h.def.Type }

func (h *typedHandler[P]) Validate(ec execctx.Context, d Descriptor) Result {
	var r Result
	if h.def.Precheck != nil {
		r = h.def.Precheck(d.Payload)
		if !r.OK() {
			return r
		}
	}
	p, err := h.decode(d)
	if err != nil {
		r.Errorf("", "cannot decode payload: %v", err)
		return r
	}
	if h.def.Validate != nil {
		r.Merge(h.def.Validate(ec, d, p))
	}
	return r
}

func (h *typedHandler[P]) ResolveReferences(d Descriptor, _ View) ([]nodeid.ID, error) {
	if h.def.References == nil {
		return nil, nil
	}
	p, err := h.decode(d)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", d.ID, err)
	}
	return h.def.References(d, p)
}

type serializingHandler[P any] struct {
	*typedHandler[P]
}

func (h *serializingHandler[P]) Serialize(d Descriptor) ([]byte, error) {
	p, err := h.decode(d)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", d.ID, err)
	}
	return h.def.Serialize(d, p)
}

func decodeJSON[P any](d Descriptor) (P, error) {
	var p P
	err := DecodeJSON(d.Payload, &p)
	return p, err
}
