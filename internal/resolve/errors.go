package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/nodeid"
)

// ErrRegistryNotFrozen is returned when Resolve runs before registry.Freeze.
var ErrRegistryNotFrozen = errors.New("registry is not frozen: resolution requires a frozen registry")

// Duplicate is one (type, name) pair submitted more than once.
type Duplicate struct {
	ID    nodeid.ID
	Count int
}

// DuplicateResourceError names every (type, name) pair submitted more than once.
type DuplicateResourceError struct {
	Duplicates []Duplicate
}

func (e DuplicateResourceError) Error() string {
	parts := make([]string, len(e.Duplicates))
	for i, d := range e.Duplicates {
		parts[i] = fmt.Sprintf("%s (x%d)", d.ID, d.Count)
	}
	return "duplicate resource descriptors: " + strings.Join(parts, ", ")
}

// IDs returns the duplicated identities.
func (e DuplicateResourceError) IDs() []nodeid.ID {
	ids := make([]nodeid.ID, len(e.Duplicates))
	for i, d := range e.Duplicates {
		ids[i] = d.ID
	}
	return ids
}

// DescriptorViolation ties a violation to the descriptor it was found in.
type DescriptorViolation struct {
	ID        nodeid.ID
	Source    string
	Violation descriptor.Violation
}

func (v DescriptorViolation) String() string {
	loc := v.ID.String()
	if v.Source != "" {
		loc += " (" + v.Source + ")"
	}
	return loc + ": " + v.Violation.String()
}

// ValidationError lists every error-severity violation of a pass.
type ValidationError struct {
	Violations []DescriptorViolation
}

func (e ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation error(s):", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v.String())
	}
	return b.String()
}

// UnresolvedReferenceError means a descriptor refers to one that was not submitted.
type UnresolvedReferenceError struct {
	Source nodeid.ID
	Target nodeid.ID
}

func (e UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference: %s refers to missing %s", e.Source, e.Target)
}

// CyclicReferenceError reports one reference cycle, members in traversal order.
type CyclicReferenceError struct {
	Path []nodeid.ID
}

func (e CyclicReferenceError) Error() string {
	parts := nodeid.Strings(e.Path)
	if len(parts) > 0 {
		parts = append(parts, parts[0])
	}
	return "reference cycle detected: " + strings.Join(parts, " -> ")
}

// ReferenceError wraps a failure of a handler's ResolveReferences.
type ReferenceError struct {
	ID  nodeid.ID
	Err error
}

func (e ReferenceError) Error() string {
	return fmt.Sprintf("resolve references of %s: %v", e.ID, e.Err)
}

func (e ReferenceError) Unwrap() error { return e.Err }
