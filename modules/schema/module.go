// Package schema is the schema-registry extension. It owns the "schema"
// descriptor type; a schema may reference the schemas it imports.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/execctx"
	"github.com/specialistvlad/extreg/internal/nodeid"
	"github.com/specialistvlad/extreg/internal/registry"
	payloadschema "github.com/specialistvlad/extreg/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Type is the descriptor type owned by this extension.
const Type = "schema"

var (
	formats         = []string{"avro", "json", "protobuf"}
	compatibilities = []string{"none", "backward", "forward", "full"}
)

// Options are read from the "schema-registry" extension settings.
type Options struct {
	DefaultCompatibility string `mapstructure:"default_compatibility"`
}

// Payload is the decoded schema descriptor.
type Payload struct {
	Format        string   `json:"format"`
	Compatibility string   `json:"compatibility"`
	Definition    string   `json:"definition,omitempty"`
	Imports       []string `json:"imports,omitempty"`
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Identity implements registry.Module.
func (m *Module) Identity() registry.Identity {
	return registry.Identity{Name: "schema-registry", Version: "0.3.1"}
}

// Register implements registry.Module.
func (m *Module) Register(ctx context.Context, r *registry.Registry) error {
	opts := Options{DefaultCompatibility: "backward"}
	if _, err := r.Options().Decode(m.Identity().Name, &opts); err != nil {
		return err
	}
	if !slices.Contains(compatibilities, opts.DefaultCompatibility) {
		return fmt.Errorf("unknown default_compatibility %q", opts.DefaultCompatibility)
	}
	return r.Register(ctx, m.Identity(), Handler(opts))
}

// Handler builds the schema handler.
func Handler(opts Options) descriptor.Handler {
	s := payloadschema.New(
		payloadschema.Required("format", "string"),
		payloadschema.Optional("compatibility", "string").WithDefault(cty.StringVal(opts.DefaultCompatibility)),
		payloadschema.Optional("definition", "string"),
		payloadschema.Optional("imports", "list(string)"),
	)
	return descriptor.Definition[Payload]{
		Type:     Type,
		Precheck: s.Validate,
		Decode: func(d descriptor.Descriptor) (Payload, error) {
			var p Payload
			err := s.DecodeInto(d.Payload, &p)
			return p, err
		},
		Validate: validate,
		References: func(_ descriptor.Descriptor, p Payload) ([]nodeid.ID, error) {
			refs := make([]nodeid.ID, 0, len(p.Imports))
			for _, raw := range p.Imports {
				id, err := nodeid.ParseRelative(raw, Type)
				if err != nil {
					return nil, fmt.Errorf("import %q: %w", raw, err)
				}
				refs = append(refs, id)
			}
			return refs, nil
		},
		Serialize: func(_ descriptor.Descriptor, p Payload) ([]byte, error) {
			return json.Marshal(p)
		},
	}.Handler()
}

func validate(_ execctx.Context, _ descriptor.Descriptor, p Payload) descriptor.Result {
	var r descriptor.Result
	if !slices.Contains(formats, p.Format) {
		r.Errorf("format", "must be one of %v, got %q", formats, p.Format)
	}
	if !slices.Contains(compatibilities, p.Compatibility) {
		r.Errorf("compatibility", "must be one of %v, got %q", compatibilities, p.Compatibility)
	}
	switch {
	case p.Definition == "":
		r.Warnf("definition", "schema has no definition")
	case p.Format == "json" && !json.Valid([]byte(p.Definition)):
		r.Errorf("definition", "is not valid JSON")
	}
	for i, raw := range p.Imports {
		id, err := nodeid.ParseRelative(raw, Type)
		switch {
		case err != nil:
			r.Errorf(fmt.Sprintf("imports[%d]", i), "%v", err)
		case id.Type != Type:
			r.Errorf(fmt.Sprintf("imports[%d]", i), "must reference a schema, got %s", id)
		}
	}
	return r
}
