package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/nodeid"
)

// DOT exports Graphviz DOT text. Arrows point from a resource to the
// resources it references.
func (g *Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph extreg {\n")
	b.WriteString("  rankdir=LR;\n")

	for i, res := range g.list() {
		label := escapeDOT(res.ID().String())
		if res.owner.Name != "" {
			label = label + "\\n(" + escapeDOT(res.owner.String()) + ")"
		}
		b.WriteString(fmt.Sprintf("  n%d [label=\"%s\"];\n", i, label))
	}
	for _, e := range g.Edges() {
		b.WriteString(fmt.Sprintf("  n%d -> n%d;\n", g.index[e.From], g.index[e.To]))
	}
	b.WriteString("}\n")
	return b.String()
}

// Mermaid exports Mermaid graph text.
func (g *Graph) Mermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	for i, res := range g.list() {
		label := escapeMermaid(res.ID().String())
		if res.owner.Name != "" {
			label = label + "<br/>(" + escapeMermaid(res.owner.String()) + ")"
		}
		b.WriteString(fmt.Sprintf("    n%d[\"%s\"]\n", i, label))
	}
	for _, e := range g.Edges() {
		b.WriteString(fmt.Sprintf("    n%d --> n%d\n", g.index[e.From], g.index[e.To]))
	}
	return b.String()
}

// Text renders a line-oriented listing of the resources, their serialized
// payloads and references. It carries no resolution metadata, so listings of
// equal graphs are identical and listings of different graphs diff cleanly.
func (g *Graph) Text() string {
	var b strings.Builder
	for _, res := range g.list() {
		b.WriteString(res.ID().String())
		if res.owner.Name != "" {
			b.WriteString(" (" + res.owner.String() + ")")
		}
		b.WriteString(" " + res.Status().String() + "\n")
		if len(res.serialized) > 0 {
			var compact bytes.Buffer
			if err := json.Compact(&compact, res.serialized); err == nil {
				b.WriteString("  payload " + compact.String() + "\n")
			} else {
				b.WriteString(fmt.Sprintf("  payload %q\n", res.serialized))
			}
		}
		for _, ref := range res.refs {
			b.WriteString("  -> " + ref.String() + "\n")
		}
		for _, w := range res.warnings {
			b.WriteString("  ! " + w.String() + "\n")
		}
	}
	return b.String()
}

func escapeDOT(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

func escapeMermaid(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}

type jsonResource struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Name       string                 `json:"name"`
	Owner      string                 `json:"owner,omitempty"`
	Status     string                 `json:"status"`
	Source     string                 `json:"source,omitempty"`
	Payload    any                    `json:"payload,omitempty"`
	References []string               `json:"references"`
	Warnings   []descriptor.Violation `json:"warnings,omitempty"`
}

type jsonEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type jsonGraph struct {
	Version       uint64         `json:"version"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	ResolvedAt    time.Time      `json:"resolved_at"`
	Fingerprint   string         `json:"fingerprint"`
	Resources     []jsonResource `json:"resources"`
	Edges         []jsonEdge     `json:"edges"`
	TopoOrder     []string       `json:"topo_order"`
}

// MarshalJSON renders the graph with each resource's serialized form as its
// payload. Serialized forms that are not JSON are emitted as strings.
func (g *Graph) MarshalJSON() ([]byte, error) {
	out := jsonGraph{
		Version:       g.Version(),
		CorrelationID: g.CorrelationID(),
		ResolvedAt:    g.ResolvedAt(),
		Fingerprint:   g.Fingerprint(),
		Resources:     make([]jsonResource, g.Len()),
		Edges:         []jsonEdge{},
		TopoOrder:     nodeid.Strings(g.TopoOrder()),
	}
	for i, res := range g.list() {
		jr := jsonResource{
			ID:         res.ID().String(),
			Type:       res.ID().Type,
			Name:       res.ID().Name,
			Owner:      res.owner.String(),
			Status:     res.Status().String(),
			Source:     res.desc.Source,
			References: nodeid.Strings(res.refs),
			Warnings:   res.warnings,
		}
		if len(res.serialized) > 0 {
			if json.Valid(res.serialized) {
				jr.Payload = json.RawMessage(res.serialized)
			} else {
				jr.Payload = string(res.serialized)
			}
		}
		out.Resources[i] = jr
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, jsonEdge{From: e.From.String(), To: e.To.String()})
	}
	return json.Marshal(out)
}
