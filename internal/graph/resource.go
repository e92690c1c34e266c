package graph

import (
	"bytes"
	"slices"

	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/nodeid"
	"github.com/specialistvlad/extreg/internal/registry"
)

// Status is the validation status of a resolved resource.
type Status int

const (
	// StatusValid means the handler reported no violations.
	StatusValid Status = iota
	// StatusValidWithWarnings means only warning-severity violations were reported.
	StatusValidWithWarnings
)

func (s Status) String() string {
	if s == StatusValidWithWarnings {
		return "valid_with_warnings"
	}
	return "valid"
}

// Resource is one resolved descriptor.
type Resource struct {
	desc       descriptor.Descriptor
	refs       []nodeid.ID
	warnings   []descriptor.Violation
	owner      registry.Identity
	serialized []byte
}

// ID returns the (type, name) identity.
func (r *Resource) ID() nodeid.ID { return r.desc.ID }

// Descriptor returns a copy of the submitted descriptor.
func (r *Resource) Descriptor() descriptor.Descriptor { return r.desc.Clone() }

// Payload returns a copy of the raw payload.
func (r *Resource) Payload() []byte { return bytes.Clone(r.desc.Payload) }

// References returns the IDs this resource refers to, in the order the
// handler reported them.
func (r *Resource) References() []nodeid.ID { return slices.Clone(r.refs) }

// Warnings returns the warning-severity violations raised during validation.
func (r *Resource) Warnings() []descriptor.Violation { return slices.Clone(r.warnings) }

// Status reports whether the resource carries warnings.
func (r *Resource) Status() Status {
	if len(r.warnings) > 0 {
		return StatusValidWithWarnings
	}
	return StatusValid
}

// Owner returns the extension that registered the resource's type.
func (r *Resource) Owner() registry.Identity { return r.owner }

// Serialized returns the handler's serialized form of the resource.
func (r *Resource) Serialized() []byte { return bytes.Clone(r.serialized) }
