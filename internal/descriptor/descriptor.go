package descriptor

import (
	"bytes"
	"encoding/json"

	"github.com/specialistvlad/extreg/internal/nodeid"
)

// Descriptor is the raw declaration of one resource.
type Descriptor struct {
	ID      nodeid.ID       `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
	// Source is an optional "file:line" origin used in diagnostics.
	Source string `json:"source,omitempty"`
}

// New creates a descriptor of the given type and name.
func New(typ, name string, payload json.RawMessage) Descriptor {
	return Descriptor{ID: nodeid.New(typ, name), Payload: payload}
}

// Type is shorthand for d.ID.Type.
func (d Descriptor) Type() string { return d.ID.Type }

// Name is shorthand for d.ID.Name.
func (d Descriptor) Name() string { return d.ID.Name }

// Clone returns a deep copy of d, detaching it from the caller's payload buffer.
func (d Descriptor) Clone() Descriptor {
	cp := d
	if d.Payload != nil {
		cp.Payload = bytes.Clone(d.Payload)
	}
	return cp
}

// Location renders the ID together with its source, if known.
func (d Descriptor) Location() string {
	if d.Source == "" {
		return d.ID.String()
	}
	return d.ID.String() + " (" + d.Source + ")"
}

// DecodeJSON decodes the payload into v. An empty or null payload leaves v untouched.
func DecodeJSON(payload json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.Unmarshal(trimmed, v)
}
