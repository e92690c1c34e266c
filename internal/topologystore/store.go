// Package topologystore defines the interface for the graph-in-progress that
// the resolution engine builds while it walks a batch of descriptors.
//
// # Why Topology Store Exists
//
// Handlers resolve their references against a read-only view of the batch
// being resolved. The store is that view plus the edges discovered so far. It
// is separate from the published graph.Graph: the store is mutable and lives
// for a single resolution pass, the published graph is immutable and shared by
// every reader once the pass succeeds.
//
// # Lifecycle and Usage
//
// The store is:
//  1. **Created** once per resolution pass.
//  2. **Populated** with every submitted descriptor before any references are resolved.
//  3. **Extended** with dependency edges as handlers report references.
//  4. **Analysed** for cycles, then converted into a graph.Graph and discarded.
package topologystore

import (
	"context"

	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/nodeid"
)

// Store is the interface for the topology of one resolution pass.
//
// Every Store is also a descriptor.View, so it can be handed to
// Handler.ResolveReferences directly.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. The engine itself is
// sequential, but handlers may inspect the view from their own goroutines.
type Store interface {
	descriptor.View

	// AddNode registers a descriptor. Adding a second descriptor with the same
	// ID is an error; the engine rejects duplicates before it gets here.
	AddNode(ctx context.Context, d descriptor.Descriptor) error

	// AddDependency records that 'from' references 'to'. Both nodes must
	// already exist. Recording the same edge twice is a no-op.
	AddDependency(ctx context.Context, from, to nodeid.ID) error

	// DependenciesOf returns the IDs 'id' references, in the order the edges
	// were added. It fails if 'id' is unknown.
	DependenciesOf(ctx context.Context, id nodeid.ID) ([]nodeid.ID, error)

	// Cycles returns every distinct reference cycle, each listed in traversal
	// order without repeating its first member.
	Cycles(ctx context.Context) [][]nodeid.ID

	// TopologicalOrder lists every node after the nodes it references. It
	// fails if the topology contains a cycle.
	TopologicalOrder(ctx context.Context) ([]nodeid.ID, error)
}
