package graph

import (
	"fmt"

	"github.com/specialistvlad/extreg/internal/nodeid"
)

// NotFoundError means the graph has no resource with the given identity.
type NotFoundError struct {
	ID nodeid.ID
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("resource %q not found", e.ID)
}
