// internal/nodeid/types.go
package nodeid

// Separator splits the type and name segments in the canonical string form.
const Separator = ":"

// ID is the structured representation of a resource identifier.
type ID struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

// New creates an ID from its two segments without validating them.
func New(typ, name string) ID {
	return ID{Type: typ, Name: name}
}

// IsZero reports whether both segments are empty.
func (id ID) IsZero() bool {
	return id.Type == "" && id.Name == ""
}
