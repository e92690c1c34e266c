// Package service is the services extension. A service references the topics
// it produces to and consumes from, the schemas of its messages and the
// services it calls.
package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/execctx"
	"github.com/specialistvlad/extreg/internal/nodeid"
	"github.com/specialistvlad/extreg/internal/registry"
	"github.com/specialistvlad/extreg/internal/schema"
)

// Type is the descriptor type owned by this extension.
const Type = "service"

// Payload is the decoded service descriptor.
type Payload struct {
	Owner     string   `json:"owner"`
	Produces  []string `json:"produces,omitempty"`
	Consumes  []string `json:"consumes,omitempty"`
	Schemas   []string `json:"schemas,omitempty"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// refGroup is one list attribute holding references of a single type.
type refGroup struct {
	field string
	typ   string
	raw   []string
}

func (p Payload) groups() []refGroup {
	return []refGroup{
		{field: "produces", typ: "topic", raw: p.Produces},
		{field: "consumes", typ: "topic", raw: p.Consumes},
		{field: "schemas", typ: "schema", raw: p.Schemas},
		{field: "depends_on", typ: Type, raw: p.DependsOn},
	}
}

var payloadSchema = schema.New(
	schema.Required("owner", "string"),
	schema.Optional("produces", "list(string)"),
	schema.Optional("consumes", "list(string)"),
	schema.Optional("schemas", "list(string)"),
	schema.Optional("depends_on", "list(string)"),
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Identity implements registry.Module.
func (m *Module) Identity() registry.Identity {
	return registry.Identity{Name: "services", Version: "1.0.0"}
}

// Register implements registry.Module.
func (m *Module) Register(ctx context.Context, r *registry.Registry) error {
	return r.Register(ctx, m.Identity(), Handler())
}

// Handler builds the service handler.
func Handler() descriptor.Handler {
	return descriptor.Definition[Payload]{
		Type:     Type,
		Precheck: payloadSchema.Validate,
		Decode: func(d descriptor.Descriptor) (Payload, error) {
			var p Payload
			err := payloadSchema.DecodeInto(d.Payload, &p)
			return p, err
		},
		Validate:   validate,
		References: references,
	}.Handler()
}

func validate(_ execctx.Context, d descriptor.Descriptor, p Payload) descriptor.Result {
	var r descriptor.Result
	if p.Owner == "" {
		r.Errorf("owner", "must not be empty")
	}
	if len(p.Produces) == 0 && len(p.Consumes) == 0 {
		r.Warnf("", "service neither produces nor consumes any topic")
	}
	for _, g := range p.groups() {
		for i, raw := range g.raw {
			field := fmt.Sprintf("%s[%d]", g.field, i)
			id, err := nodeid.ParseRelative(raw, g.typ)
			switch {
			case err != nil:
				r.Errorf(field, "%v", err)
			case id.Type != g.typ:
				r.Errorf(field, "must reference a %s, got %s", g.typ, id)
			case id == d.ID:
				r.Errorf(field, "service cannot depend on itself")
			}
		}
	}
	for _, raw := range p.Consumes {
		if slices.Contains(p.Produces, raw) {
			r.Warnf("consumes", "service consumes %q, which it also produces", raw)
		}
	}
	return r
}

func references(_ descriptor.Descriptor, p Payload) ([]nodeid.ID, error) {
	var refs []nodeid.ID
	for _, g := range p.groups() {
		for _, raw := range g.raw {
			id, err := nodeid.ParseRelative(raw, g.typ)
			if err != nil {
				return nil, fmt.Errorf("%s %q: %w", g.field, raw, err)
			}
			refs = append(refs, id)
		}
	}
	return refs, nil
}
