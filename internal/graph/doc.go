// Package graph holds the immutable result of one resolution pass.
//
// A Graph maps every (type, name) pair of the pass to a Resource: the
// submitted descriptor, the references its handler reported, the warnings
// raised while validating it and the extension that owns its type. Graphs are
// built once by the resolution engine and never change afterwards, so a
// published *Graph can be shared by any number of readers without locking.
//
// # Invariants
//
//   - every (type, name) pair appears exactly once;
//   - every reference points at a resource of the same graph;
//   - the reference edges form no cycle.
//
// New enforces all three.
//
// # Exports
//
// DOT and Mermaid render the reference graph for humans; MarshalJSON renders
// the whole graph, using each resource's serialized form as its payload.
package graph
