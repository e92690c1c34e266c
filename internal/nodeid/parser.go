// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches a single identifier segment.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// isValidSegment checks the allowed alphabet and rejects undesirable but
// technically valid names.
func isValidSegment(s string) bool {
	if s == "." || s == ".." || s == "-" {
		return false
	}
	return segmentRegex.MatchString(s)
}

// Parse creates a new ID by parsing its canonical string representation.
func Parse(raw string) (ID, error) {
	if raw == "" {
		return ID{}, fmt.Errorf("identifier cannot be empty")
	}

	typ, name, ok := strings.Cut(raw, Separator)
	if !ok {
		return ID{}, fmt.Errorf("identifier %q is missing the %q separator", raw, Separator)
	}

	id := ID{Type: typ, Name: name}
	if err := id.Validate(); err != nil {
		return ID{}, fmt.Errorf("invalid identifier %q: %w", raw, err)
	}
	return id, nil
}

// ParseRelative parses raw as a canonical ID when it contains a separator,
// otherwise it treats raw as a bare name of defaultType.
func ParseRelative(raw, defaultType string) (ID, error) {
	if strings.Contains(raw, Separator) {
		return Parse(raw)
	}
	id := ID{Type: defaultType, Name: raw}
	if err := id.Validate(); err != nil {
		return ID{}, fmt.Errorf("invalid reference %q: %w", raw, err)
	}
	return id, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static declarations.
func MustParse(raw string) ID {
	id, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return id
}
