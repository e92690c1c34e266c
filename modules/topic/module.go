// Package topic is the Kafka extension. It owns the "topic" descriptor type:
//
//	resource "topic" "orders" {
//	  partitions = 6
//	  upstream   = [topic.raw_orders]
//	}
//
// Upstream entries are topic references; bare names default to the topic type.
package topic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/execctx"
	"github.com/specialistvlad/extreg/internal/nodeid"
	"github.com/specialistvlad/extreg/internal/registry"
	"github.com/specialistvlad/extreg/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Type is the descriptor type owned by this extension.
const Type = "topic"

var cleanupPolicies = map[string]bool{"delete": true, "compact": true, "compact,delete": true}

// Options are read from the "kafka" extension settings.
type Options struct {
	DefaultPartitions  int `mapstructure:"default_partitions"`
	DefaultReplication int `mapstructure:"default_replication"`
}

// Payload is the decoded topic descriptor.
type Payload struct {
	Partitions    int      `json:"partitions"`
	Replication   int      `json:"replication"`
	RetentionMS   *int64   `json:"retention_ms,omitempty"`
	CleanupPolicy string   `json:"cleanup_policy"`
	Upstream      []string `json:"upstream,omitempty"`
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Identity implements registry.Module.
func (m *Module) Identity() registry.Identity {
	return registry.Identity{Name: "kafka", Version: "1.0.0"}
}

// Register registers the topic handler, applying the extension options.
func (m *Module) Register(ctx context.Context, r *registry.Registry) error {
	opts := Options{DefaultPartitions: 1, DefaultReplication: 1}
	if _, err := r.Options().Decode(m.Identity().Name, &opts); err != nil {
		return err
	}
	if opts.DefaultPartitions < 1 || opts.DefaultReplication < 1 {
		return fmt.Errorf("default_partitions and default_replication must be positive")
	}
	return r.Register(ctx, m.Identity(), Handler(opts))
}

// Schema returns the payload schema for the given defaults.
func Schema(opts Options) schema.Schema {
	return schema.New(
		schema.Optional("partitions", "number").WithDefault(cty.NumberIntVal(int64(opts.DefaultPartitions))),
		schema.Optional("replication", "number").WithDefault(cty.NumberIntVal(int64(opts.DefaultReplication))),
		schema.Optional("retention_ms", "number"),
		schema.Optional("cleanup_policy", "string").WithDefault(cty.StringVal("delete")),
		schema.Optional("upstream", "list(string)"),
		schema.Optional("mirror_of", "string").WithDeprecation("use upstream"),
	)
}

// Handler builds the topic handler.
func Handler(opts Options) descriptor.Handler {
	s := Schema(opts)
	return descriptor.Definition[Payload]{
		Type:     Type,
		Precheck: s.Validate,
		Decode: func(d descriptor.Descriptor) (Payload, error) {
			var p Payload
			err := s.DecodeInto(d.Payload, &p)
			return p, err
		},
		Validate:   validate,
		References: references,
		Serialize: func(_ descriptor.Descriptor, p Payload) ([]byte, error) {
			return json.Marshal(p)
		},
	}.Handler()
}

func validate(_ execctx.Context, _ descriptor.Descriptor, p Payload) descriptor.Result {
	var r descriptor.Result
	if p.Partitions < 1 {
		r.Errorf("partitions", "must be at least 1, got %d", p.Partitions)
	}
	if p.Replication < 1 {
		r.Errorf("replication", "must be at least 1, got %d", p.Replication)
	}
	if p.RetentionMS != nil && *p.RetentionMS < -1 {
		r.Errorf("retention_ms", "must be -1 (infinite) or positive, got %d", *p.RetentionMS)
	}
	if !cleanupPolicies[p.CleanupPolicy] {
		r.Errorf("cleanup_policy", "unknown policy %q", p.CleanupPolicy)
	}
	if p.Replication > p.Partitions*3 {
		r.Warnf("replication", "replication %d is unusually high for %d partition(s)", p.Replication, p.Partitions)
	}
	for i, raw := range p.Upstream {
		id, err := nodeid.ParseRelative(raw, Type)
		switch {
		case err != nil:
			r.Errorf(fmt.Sprintf("upstream[%d]", i), "%v", err)
		case id.Type != Type:
			r.Errorf(fmt.Sprintf("upstream[%d]", i), "must reference a topic, got %s", id)
		}
	}
	return r
}

func references(_ descriptor.Descriptor, p Payload) ([]nodeid.ID, error) {
	refs := make([]nodeid.ID, 0, len(p.Upstream))
	for _, raw := range p.Upstream {
		id, err := nodeid.ParseRelative(raw, Type)
		if err != nil {
			return nil, fmt.Errorf("upstream %q: %w", raw, err)
		}
		refs = append(refs, id)
	}
	return refs, nil
}
