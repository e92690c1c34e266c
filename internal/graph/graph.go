package graph

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"time"

	"github.com/specialistvlad/extreg/internal/dag"
	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/nodeid"
	"github.com/specialistvlad/extreg/internal/registry"
)

// Metadata describes the resolution pass that produced a graph.
type Metadata struct {
	Version       uint64
	CorrelationID string
	ResolvedAt    time.Time
}

// Spec is the input for one resource of a new graph.
type Spec struct {
	Descriptor descriptor.Descriptor
	References []nodeid.ID
	Warnings   []descriptor.Violation
	Owner      registry.Identity
	// Serialized defaults to the descriptor payload when nil.
	Serialized []byte
}

// Edge means "From references To".
type Edge struct {
	From nodeid.ID
	To   nodeid.ID
}

// Graph is the immutable result of one resolution pass. A nil *Graph reads
// as an empty graph with zero metadata.
type Graph struct {
	meta       Metadata
	resources  []*Resource // sorted by ID
	index      map[nodeid.ID]int
	dependents map[nodeid.ID][]nodeid.ID
	topo       []nodeid.ID
}

// New builds a graph from specs. It copies every input and rejects duplicate
// identities, references to resources outside the set and reference cycles.
func New(meta Metadata, specs []Spec) (*Graph, error) {
	g := &Graph{
		meta:       meta,
		resources:  make([]*Resource, 0, len(specs)),
		index:      make(map[nodeid.ID]int, len(specs)),
		dependents: make(map[nodeid.ID][]nodeid.ID),
	}
	for _, s := range specs {
		res := &Resource{
			desc:       s.Descriptor.Clone(),
			refs:       slices.Clone(s.References),
			warnings:   slices.Clone(s.Warnings),
			owner:      s.Owner,
			serialized: bytes.Clone(s.Serialized),
		}
		if res.serialized == nil {
			res.serialized = bytes.Clone(res.desc.Payload)
		}
		g.resources = append(g.resources, res)
	}
	slices.SortFunc(g.resources, func(a, b *Resource) int { return nodeid.Compare(a.ID(), b.ID()) })

	for i, res := range g.resources {
		if _, dup := g.index[res.ID()]; dup {
			return nil, fmt.Errorf("build graph: resource %q appears more than once", res.ID())
		}
		g.index[res.ID()] = i
	}

	arena := dag.New(len(g.resources))
	for i, res := range g.resources {
		for _, ref := range res.refs {
			j, ok := g.index[ref]
			if !ok {
				return nil, fmt.Errorf("build graph: resource %q references missing %q", res.ID(), ref)
			}
			if err := arena.AddEdge(i, j); err != nil {
				return nil, fmt.Errorf("build graph: %w", err)
			}
			g.dependents[ref] = append(g.dependents[ref], res.ID())
		}
	}
	order, err := arena.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	g.topo = make([]nodeid.ID, len(order))
	for i, h := range order {
		g.topo[i] = g.resources[h].ID()
	}
	return g, nil
}

// Get returns the resource with the given type and name.
func (g *Graph) Get(typ, name string) (*Resource, error) {
	id := nodeid.New(typ, name)
	res, ok := g.Lookup(id)
	if !ok {
		return nil, NotFoundError{ID: id}
	}
	return res, nil
}

// Lookup returns the resource with the given ID.
func (g *Graph) Lookup(id nodeid.ID) (*Resource, bool) {
	if g == nil {
		return nil, false
	}
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.resources[i], true
}

// All returns every resource of the given type, ordered by name.
func (g *Graph) All(typ string) []*Resource {
	var out []*Resource
	for _, res := range g.list() {
		if res.ID().Type == typ {
			out = append(out, res)
		}
	}
	return out
}

// Resources returns every resource ordered by (type, name).
func (g *Graph) Resources() []*Resource {
	return slices.Clone(g.list())
}

// Types returns the distinct resource types present, sorted.
func (g *Graph) Types() []string {
	var types []string
	for _, res := range g.list() {
		if n := len(types); n == 0 || types[n-1] != res.ID().Type {
			types = append(types, res.ID().Type)
		}
	}
	return types
}

// Len returns the number of resources.
func (g *Graph) Len() int {
	return len(g.list())
}

func (g *Graph) list() []*Resource {
	if g == nil {
		return nil
	}
	return g.resources
}

// Edges returns every reference edge, ordered by source and then by the
// order the source's handler reported them.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, res := range g.list() {
		for _, ref := range res.refs {
			edges = append(edges, Edge{From: res.ID(), To: ref})
		}
	}
	return edges
}

// DependenciesOf returns the IDs the given resource references.
func (g *Graph) DependenciesOf(id nodeid.ID) ([]nodeid.ID, error) {
	res, ok := g.Lookup(id)
	if !ok {
		return nil, NotFoundError{ID: id}
	}
	return res.References(), nil
}

// DependentsOf returns the IDs of resources referencing the given one,
// ordered by ID.
func (g *Graph) DependentsOf(id nodeid.ID) ([]nodeid.ID, error) {
	if _, ok := g.Lookup(id); !ok {
		return nil, NotFoundError{ID: id}
	}
	return slices.Clone(g.dependents[id]), nil
}

// TopoOrder lists every resource after the resources it references.
func (g *Graph) TopoOrder() []nodeid.ID {
	if g == nil {
		return nil
	}
	return slices.Clone(g.topo)
}

// Version is the monotonically increasing number of the pass that built g.
func (g *Graph) Version() uint64 { return g.metadata().Version }

// CorrelationID is the correlation ID of the pass that built g.
func (g *Graph) CorrelationID() string { return g.metadata().CorrelationID }

// ResolvedAt is when the pass that built g finished.
func (g *Graph) ResolvedAt() time.Time { return g.metadata().ResolvedAt }

func (g *Graph) metadata() Metadata {
	if g == nil {
		return Metadata{}
	}
	return g.meta
}

// Equal reports whether g and other hold the same resources with the same
// payloads and the same edges. Metadata is ignored.
func (g *Graph) Equal(other *Graph) bool {
	if g.Len() != other.Len() {
		return false
	}
	if g.Len() == 0 {
		return true
	}
	for i, a := range g.resources {
		b := other.resources[i]
		if a.ID() != b.ID() ||
			!bytes.Equal(a.desc.Payload, b.desc.Payload) ||
			!slices.Equal(a.refs, b.refs) {
			return false
		}
	}
	return true
}

// Fingerprint is a sha256 over the canonical resource and edge list. Graphs
// that are Equal have the same fingerprint.
func (g *Graph) Fingerprint() string {
	h := sha256.New()
	for _, res := range g.list() {
		fmt.Fprintf(h, "%s\x00%d\x00", res.ID(), len(res.desc.Payload))
		h.Write(res.desc.Payload)
		for _, ref := range res.refs {
			fmt.Fprintf(h, "\x01%s", ref)
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
