package resolve

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/specialistvlad/extreg/internal/ctxlog"
	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/execctx"
	"github.com/specialistvlad/extreg/internal/graph"
	"github.com/specialistvlad/extreg/internal/inmemorytopology"
	"github.com/specialistvlad/extreg/internal/nodeid"
	"github.com/specialistvlad/extreg/internal/registry"
	"github.com/specialistvlad/extreg/internal/topologystore"
)

// Engine resolves descriptor batches against a frozen registry.
type Engine struct {
	registry *registry.Registry
	version  atomic.Uint64
	current  atomic.Pointer[graph.Graph]
}

// New creates an engine for reg. Resolve fails until reg is frozen.
func New(reg *registry.Registry) *Engine {
	return &Engine{registry: reg}
}

// Current returns the most recently published graph, or nil before the first
// successful pass.
func (e *Engine) Current() *graph.Graph {
	return e.current.Load()
}

// planned is one validated descriptor together with its handler.
type planned struct {
	desc     descriptor.Descriptor
	handler  descriptor.Handler
	owner    registry.Identity
	warnings []descriptor.Violation
	refs     []nodeid.ID
}

// Resolve validates descriptors, resolves their references and, on success,
// publishes and returns the resulting graph. The execution context is taken
// from ctx; a root one is created when ctx carries none.
func (e *Engine) Resolve(ctx context.Context, descriptors []descriptor.Descriptor) (*graph.Graph, error) {
	if !e.registry.Frozen() {
		return nil, ErrRegistryNotFrozen
	}
	ec, ok := execctx.FromContext(ctx)
	if !ok {
		ec = execctx.New(execctx.WithOperation("resolve"))
		ctx = ctxlog.WithExecution(ctx, ec)
	}
	logger := ctxlog.FromContext(ctx)
	version := e.version.Add(1)
	logger.Debug("Resolve: starting pass.", "version", version, "descriptors", len(descriptors))

	descs := make([]descriptor.Descriptor, len(descriptors))
	for i, d := range descriptors {
		descs[i] = d.Clone()
	}

	if err := checkIdentities(descs); err != nil {
		logger.Debug("Resolve: identity check failed.", "error", err)
		return nil, err
	}

	plan, err := e.validate(ec, descs)
	if err != nil {
		logger.Debug("Resolve: validation failed.", "error", err)
		return nil, err
	}
	logger.Debug("Resolve: validation passed.")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store := inmemorytopology.New()
	for _, p := range plan {
		if err := store.AddNode(ctx, p.desc); err != nil {
			return nil, fmt.Errorf("resolve: %w", err)
		}
	}
	if err := resolveReferences(ctx, store, plan); err != nil {
		logger.Debug("Resolve: reference resolution failed.", "error", err)
		return nil, err
	}
	logger.Debug("Resolve: references resolved.")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	specs := make([]graph.Spec, len(plan))
	var serializeErrs []error
	for i, p := range plan {
		data, err := descriptor.Serialize(p.handler, p.desc)
		if err != nil {
			serializeErrs = append(serializeErrs, fmt.Errorf("serialize %s: %w", p.desc.ID, err))
		}
		specs[i] = graph.Spec{
			Descriptor: p.desc,
			References: p.refs,
			Warnings:   p.warnings,
			Owner:      p.owner,
			Serialized: data,
		}
	}
	if len(serializeErrs) > 0 {
		return nil, errors.Join(serializeErrs...)
	}

	g, err := graph.New(graph.Metadata{
		Version:       version,
		CorrelationID: ec.CorrelationID(),
		ResolvedAt:    ec.Now(),
	}, specs)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	if e.publish(g) {
		logger.Info("Resolution graph published.", "version", version, "resources", g.Len())
	} else {
		logger.Warn("Resolution graph superseded by a newer pass; not published.", "version", version)
	}
	return g, nil
}

// publish swaps g in as the current graph unless a newer one is already there.
func (e *Engine) publish(g *graph.Graph) bool {
	for {
		cur := e.current.Load()
		if cur != nil && cur.Version() >= g.Version() {
			return false
		}
		if e.current.CompareAndSwap(cur, g) {
			return true
		}
	}
}

// checkIdentities reports malformed IDs as a ValidationError and repeated
// (type, name) pairs as one DuplicateResourceError.
func checkIdentities(descs []descriptor.Descriptor) error {
	var invalid []DescriptorViolation
	for _, d := range descs {
		if err := d.ID.Validate(); err != nil {
			invalid = append(invalid, DescriptorViolation{
				ID:        d.ID,
				Source:    d.Source,
				Violation: descriptor.Violation{Field: "id", Message: err.Error()},
			})
		}
	}
	if len(invalid) > 0 {
		return ValidationError{Violations: invalid}
	}

	counts := make(map[nodeid.ID]int, len(descs))
	var order []nodeid.ID
	for _, d := range descs {
		if counts[d.ID] == 0 {
			order = append(order, d.ID)
		}
		counts[d.ID]++
	}
	var dups []Duplicate
	for _, id := range order {
		if counts[id] > 1 {
			dups = append(dups, Duplicate{ID: id, Count: counts[id]})
		}
	}
	if len(dups) > 0 {
		return DuplicateResourceError{Duplicates: dups}
	}
	return nil
}

// validate looks up every handler first, so an unknown type aborts before any
// handler code runs, then validates every descriptor.
func (e *Engine) validate(ec execctx.Context, descs []descriptor.Descriptor) ([]*planned, error) {
	plan := make([]*planned, len(descs))
	for i, d := range descs {
		h, err := e.registry.HandlerFor(d.Type())
		if err != nil {
			return nil, fmt.Errorf("descriptor %s: %w", d.Location(), err)
		}
		owner, _ := e.registry.Owner(d.Type())
		plan[i] = &planned{desc: d, handler: h, owner: owner}
	}

	var violations []DescriptorViolation
	for _, p := range plan {
		res := p.handler.Validate(ec, p.desc)
		for _, v := range res.Violations {
			if v.Severity == descriptor.SeverityWarning {
				p.warnings = append(p.warnings, v)
				continue
			}
			violations = append(violations, DescriptorViolation{ID: p.desc.ID, Source: p.desc.Source, Violation: v})
		}
	}
	if len(violations) > 0 {
		return nil, ValidationError{Violations: violations}
	}
	return plan, nil
}

// resolveReferences asks every handler for its references, records the edges
// that land inside the batch and reports everything else in one joined error.
func resolveReferences(ctx context.Context, store topologystore.Store, plan []*planned) error {
	var errs []error
	for _, p := range plan {
		refs, err := p.handler.ResolveReferences(p.desc, store)
		if err != nil {
			errs = append(errs, ReferenceError{ID: p.desc.ID, Err: err})
			continue
		}
		seen := make(map[nodeid.ID]struct{}, len(refs))
		for _, ref := range refs {
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			if _, ok := store.Lookup(ref); !ok {
				errs = append(errs, UnresolvedReferenceError{Source: p.desc.ID, Target: ref})
				continue
			}
			if err := store.AddDependency(ctx, p.desc.ID, ref); err != nil {
				return fmt.Errorf("resolve: %w", err)
			}
			p.refs = append(p.refs, ref)
		}
	}
	for _, cycle := range store.Cycles(ctx) {
		errs = append(errs, CyclicReferenceError{Path: cycle})
	}
	return errors.Join(errs...)
}
