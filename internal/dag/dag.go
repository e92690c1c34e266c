package dag

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Graph is a directed graph over the handles 0..Len()-1.
type Graph struct {
	edges [][]int
}

// New creates a graph with n nodes and no edges.
func New(n int) *Graph {
	return &Graph{edges: make([][]int, n)}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.edges)
}

// AddNode appends a node and returns its handle.
func (g *Graph) AddNode() int {
	g.edges = append(g.edges, nil)
	return len(g.edges) - 1
}

// AddEdge records that from depends on to. Repeated edges are ignored.
// Self edges are allowed and show up as cycles of length one.
func (g *Graph) AddEdge(from, to int) error {
	if !g.valid(from) {
		return fmt.Errorf("source node not found: %d", from)
	}
	if !g.valid(to) {
		return fmt.Errorf("destination node not found: %d", to)
	}
	if slices.Contains(g.edges[from], to) {
		return nil
	}
	g.edges[from] = append(g.edges[from], to)
	return nil
}

// Successors returns the nodes v depends on, in insertion order.
func (g *Graph) Successors(v int) []int {
	if !g.valid(v) {
		return nil
	}
	return slices.Clone(g.edges[v])
}

// Predecessors returns the nodes depending on v, in ascending order.
func (g *Graph) Predecessors(v int) []int {
	var out []int
	for from, tos := range g.edges {
		if slices.Contains(tos, v) {
			out = append(out, from)
		}
	}
	return out
}

func (g *Graph) valid(v int) bool {
	return v >= 0 && v < len(g.edges)
}

const (
	white = iota // unvisited
	grey         // on the current DFS path
	black        // finished
)

// Cycles runs a three-colour depth-first search from every node in handle
// order and returns one cycle per back edge. Each cycle lists its members in
// traversal order, starting at the node the back edge points to, without
// repeating it at the end. Rotations of an already reported cycle are dropped.
func (g *Graph) Cycles() [][]int {
	colour := make([]int, len(g.edges))
	var (
		stack  []int
		cycles [][]int
		seen   = make(map[string]struct{})
	)

	var visit func(v int)
	visit = func(v int) {
		colour[v] = grey
		stack = append(stack, v)
		for _, w := range g.edges[v] {
			switch colour[w] {
			case white:
				visit(w)
			case grey:
				start := slices.Index(stack, w)
				cycle := slices.Clone(stack[start:])
				key := canonicalKey(cycle)
				if _, dup := seen[key]; !dup {
					seen[key] = struct{}{}
					cycles = append(cycles, cycle)
				}
			}
		}
		stack = stack[:len(stack)-1]
		colour[v] = black
	}

	for v := range g.edges {
		if colour[v] == white {
			visit(v)
		}
	}
	return cycles
}

// canonicalKey identifies a cycle independent of its starting point.
func canonicalKey(cycle []int) string {
	minAt := 0
	for i, v := range cycle {
		if v < cycle[minAt] {
			minAt = i
		}
	}
	var b strings.Builder
	for i := range cycle {
		b.WriteString(strconv.Itoa(cycle[(minAt+i)%len(cycle)]))
		b.WriteByte(',')
	}
	return b.String()
}

// CycleError is returned by TopologicalSort when the graph is not acyclic.
type CycleError struct {
	Path []int
}

func (e CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, v := range e.Path {
		parts[i] = strconv.Itoa(v)
	}
	return "cycle detected: " + strings.Join(parts, " -> ")
}

// TopologicalSort orders the nodes so every node comes after the nodes it
// depends on. Ties are broken by handle order, so the result is deterministic.
func (g *Graph) TopologicalSort() ([]int, error) {
	if cycles := g.Cycles(); len(cycles) > 0 {
		return nil, CycleError{Path: cycles[0]}
	}
	visited := make([]bool, len(g.edges))
	order := make([]int, 0, len(g.edges))

	var visit func(v int)
	visit = func(v int) {
		visited[v] = true
		for _, w := range g.edges[v] {
			if !visited[w] {
				visit(w)
			}
		}
		order = append(order, v)
	}
	for v := range g.edges {
		if !visited[v] {
			visit(v)
		}
	}
	return order, nil
}
