package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/execctx"
	"github.com/specialistvlad/extreg/internal/nodeid"
)

// StubPayload is the payload understood by StubHandler.
type StubPayload struct {
	// Refs are references; bare names resolve against the handler's type.
	Refs []string `json:"refs,omitempty"`
	// Errors become error-severity violations on field "errors".
	Errors []string `json:"errors,omitempty"`
	// Warnings become warnings on field "warnings".
	Warnings []string `json:"warnings,omitempty"`
}

// StubHandler is a configurable handler for tests.
type StubHandler struct {
	TypeName string
	// Calls counts Validate invocations when non-nil.
	Calls *int
}

// Type implements descriptor.Handler.
func (h StubHandler) Type() string { return h.TypeName }

// Validate implements descriptor.Handler.
func (h StubHandler) Validate(_ execctx.Context, d descriptor.Descriptor) descriptor.Result {
	if h.Calls != nil {
		*h.Calls++
	}
	var r descriptor.Result
	var p StubPayload
	if err := descriptor.DecodeJSON(d.Payload, &p); err != nil {
		r.Errorf("", "cannot decode payload: %v", err)
		return r
	}
	for _, msg := range p.Errors {
		r.Errorf("errors", "%s", msg)
	}
	for _, msg := range p.Warnings {
		r.Warnf("warnings", "%s", msg)
	}
	return r
}

// ResolveReferences implements descriptor.Handler.
func (h StubHandler) ResolveReferences(d descriptor.Descriptor, _ descriptor.View) ([]nodeid.ID, error) {
	var p StubPayload
	if err := descriptor.DecodeJSON(d.Payload, &p); err != nil {
		return nil, err
	}
	refs := make([]nodeid.ID, 0, len(p.Refs))
	for _, raw := range p.Refs {
		id, err := nodeid.ParseRelative(raw, h.TypeName)
		if err != nil {
			return nil, fmt.Errorf("ref %q: %w", raw, err)
		}
		refs = append(refs, id)
	}
	return refs, nil
}

// Stub builds a descriptor with a StubPayload.
func Stub(typ, name string, p StubPayload) descriptor.Descriptor {
	raw, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	return descriptor.New(typ, name, raw)
}
