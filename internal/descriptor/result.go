package descriptor

import (
	"fmt"
	"strings"
)

// Severity classifies a violation.
type Severity int

const (
	// SeverityError fails the resolution pass.
	SeverityError Severity = iota
	// SeverityWarning is reported but does not fail the pass.
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Violation is one problem found in a descriptor payload.
type Violation struct {
	// Field is the dotted path of the offending attribute, empty for the payload itself.
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// MarshalText renders the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

// Result is the outcome of validating one descriptor.
type Result struct {
	Violations []Violation
}

// Errorf records an error-severity violation on field.
func (r *Result) Errorf(field, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
	})
}

// Warnf records a warning on field.
func (r *Result) Warnf(field, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityWarning,
	})
}

// Merge appends all violations of other.
func (r *Result) Merge(other Result) {
	r.Violations = append(r.Violations, other.Violations...)
}

// OK reports whether the result has no error-severity violations.
func (r Result) OK() bool {
	return len(r.Errors()) == 0
}

// Errors returns the error-severity violations.
func (r Result) Errors() []Violation {
	return r.filter(SeverityError)
}

// Warnings returns the warning-severity violations.
func (r Result) Warnings() []Violation {
	return r.filter(SeverityWarning)
}

func (r Result) filter(s Severity) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == s {
			out = append(out, v)
		}
	}
	return out
}

func (r Result) String() string {
	parts := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}
