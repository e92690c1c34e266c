// Package dag is a small arena graph over integer handles. Callers keep their
// own table mapping handles to domain keys; the graph only stores edges, so
// cyclic data never turns into cyclic ownership.
//
// An edge from -> to means "from depends on to". TopologicalSort therefore
// lists dependencies before their dependents.
package dag
