// Package inmemorytopology provides a thread-safe, in-memory implementation
// of the topologystore.Store interface, backed by a dag.Graph arena.
package inmemorytopology
