// internal/nodeid/address.go
package nodeid

import (
	"cmp"
	"fmt"
	"sort"
)

// String serializes the ID into its canonical `type:name` representation.
func (id ID) String() string {
	return id.Type + Separator + id.Name
}

// Validate checks both segments against the identifier schema.
func (id ID) Validate() error {
	if id.Type == "" {
		return fmt.Errorf("identifier type cannot be empty")
	}
	if id.Name == "" {
		return fmt.Errorf("identifier name cannot be empty (type %q)", id.Type)
	}
	if !isValidSegment(id.Type) {
		return fmt.Errorf("invalid identifier type: %q", id.Type)
	}
	if !isValidSegment(id.Name) {
		return fmt.Errorf("invalid identifier name: %q", id.Name)
	}
	return nil
}

// Compare orders IDs by type, then by name.
func Compare(a, b ID) int {
	if c := cmp.Compare(a.Type, b.Type); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

// Sort orders a slice of IDs in place using Compare.
func Sort(ids []ID) {
	sort.Slice(ids, func(i, j int) bool {
		return Compare(ids[i], ids[j]) < 0
	})
}

// Strings renders a slice of IDs in their canonical form.
func Strings(ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
