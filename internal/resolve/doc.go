// Package resolve turns a batch of raw descriptors into an immutable
// graph.Graph.
//
// A pass runs in phases and reports every problem of a phase at once:
//
//  1. identities: malformed IDs and duplicated (type, name) pairs;
//  2. validation: each descriptor's handler validates its payload;
//  3. references: handlers report the IDs their descriptor refers to;
//  4. analysis: dangling references and reference cycles.
//
// A phase only starts when the previous one found nothing. Unknown types and
// an unfrozen registry abort the pass immediately.
//
// Successful graphs are published as the engine's current snapshot. Each pass
// draws a version number when it starts and a graph is only published if no
// newer one already is, so a slow pass never overwrites the result of a
// faster, later one.
package resolve
