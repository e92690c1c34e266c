package inmemorytopology

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/extreg/internal/dag"
	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/nodeid"
	"github.com/specialistvlad/extreg/internal/topologystore"
)

// Store implements topologystore.Store. Descriptors live in an arena indexed
// by integer handles; edges are kept in a dag.Graph over those handles.
type Store struct {
	mu      sync.RWMutex
	nodes   []descriptor.Descriptor
	handles map[nodeid.ID]int
	graph   *dag.Graph
}

var _ topologystore.Store = (*Store)(nil)

// New creates a new, empty in-memory topology store.
func New() *Store {
	return &Store{
		handles: make(map[nodeid.ID]int),
		graph:   dag.New(0),
	}
}

// AddNode adds a descriptor to the store.
func (s *Store) AddNode(ctx context.Context, d descriptor.Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handles[d.ID]; exists {
		return fmt.Errorf("node '%s' already present in topology", d.ID)
	}
	h := s.graph.AddNode()
	s.handles[d.ID] = h
	s.nodes = append(s.nodes, d)
	return nil
}

// AddDependency creates a reference edge from one node to another.
func (s *Store) AddDependency(ctx context.Context, from, to nodeid.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fromH, ok := s.handles[from]
	if !ok {
		return fmt.Errorf("dependency source node '%s' not found in topology", from)
	}
	toH, ok := s.handles[to]
	if !ok {
		return fmt.Errorf("dependency target node '%s' not found in topology", to)
	}
	return s.graph.AddEdge(fromH, toH)
}

// Lookup returns the descriptor stored under id.
func (s *Store) Lookup(id nodeid.ID) (descriptor.Descriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.handles[id]
	if !ok {
		return descriptor.Descriptor{}, false
	}
	return s.nodes[h], true
}

// IDs returns every node ID in insertion order.
func (s *Store) IDs() []nodeid.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]nodeid.ID, len(s.nodes))
	for i, d := range s.nodes {
		ids[i] = d.ID
	}
	return ids
}

// DependenciesOf returns the IDs of all nodes the given node references.
func (s *Store) DependenciesOf(ctx context.Context, id nodeid.ID) ([]nodeid.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.handles[id]
	if !ok {
		return nil, fmt.Errorf("node '%s' not found in topology", id)
	}
	return s.idsOf(s.graph.Successors(h)), nil
}

// Cycles returns every distinct reference cycle.
func (s *Store) Cycles(ctx context.Context) [][]nodeid.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw := s.graph.Cycles()
	cycles := make([][]nodeid.ID, len(raw))
	for i, c := range raw {
		cycles[i] = s.idsOf(c)
	}
	return cycles
}

// TopologicalOrder lists every node after the nodes it references.
func (s *Store) TopologicalOrder(ctx context.Context) ([]nodeid.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, err := s.graph.TopologicalSort()
	if err != nil {
		return nil, err
	}
	return s.idsOf(order), nil
}

func (s *Store) idsOf(handles []int) []nodeid.ID {
	ids := make([]nodeid.ID, len(handles))
	for i, h := range handles {
		ids[i] = s.nodes[h].ID
	}
	return ids
}
