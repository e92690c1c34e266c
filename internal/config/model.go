package config

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/specialistvlad/extreg/internal/descriptor"
)

// Model is the unified, format-agnostic content of one or more descriptor files.
type Model struct {
	Resources []descriptor.Descriptor
	// Options holds extension settings keyed by extension name.
	Options map[string]map[string]any
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{Options: make(map[string]map[string]any)}
}

// Merge appends other's resources and folds in its options. Two files setting
// the same option of the same extension is an error.
func (m *Model) Merge(other *Model) error {
	m.Resources = append(m.Resources, other.Resources...)
	if m.Options == nil {
		m.Options = make(map[string]map[string]any)
	}
	for ext, opts := range other.Options {
		dst, ok := m.Options[ext]
		if !ok {
			m.Options[ext] = maps.Clone(opts)
			continue
		}
		for k, v := range opts {
			if _, dup := dst[k]; dup {
				return fmt.Errorf("option %q of extension %q is set more than once", k, ext)
			}
			dst[k] = v
		}
	}
	return nil
}

// Document is the shape shared by the YAML, TOML and JSON descriptor files:
//
//	resources:
//	  - type: topic
//	    name: orders
//	    spec: {partitions: 3}
//	extensions:
//	  kafka: {default_partitions: 6}
type Document struct {
	Resources  []Entry                   `json:"resources" yaml:"resources" toml:"resources"`
	Extensions map[string]map[string]any `json:"extensions" yaml:"extensions" toml:"extensions"`
}

// Entry is one resource of a Document.
type Entry struct {
	Type string         `json:"type" yaml:"type" toml:"type"`
	Name string         `json:"name" yaml:"name" toml:"name"`
	Spec map[string]any `json:"spec" yaml:"spec" toml:"spec"`
}

// ToModel converts the document into a model. source(i) names the origin of
// the i-th resource for diagnostics.
func (d Document) ToModel(source func(i int) string) (*Model, error) {
	m := NewModel()
	for i, e := range d.Resources {
		spec := e.Spec
		if spec == nil {
			spec = map[string]any{}
		}
		payload, err := json.Marshal(spec)
		if err != nil {
			return nil, fmt.Errorf("resource %s:%s: encode spec: %w", e.Type, e.Name, err)
		}
		desc := descriptor.New(e.Type, e.Name, payload)
		desc.Source = source(i)
		m.Resources = append(m.Resources, desc)
	}
	for ext, opts := range d.Extensions {
		m.Options[ext] = maps.Clone(opts)
	}
	return m, nil
}
