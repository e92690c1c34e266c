package integration_tests

import (
	"testing"

	"github.com/specialistvlad/extreg/internal/nodeid"
	"github.com/specialistvlad/extreg/internal/registry"
	"github.com/specialistvlad/extreg/internal/resolve"
	"github.com/specialistvlad/extreg/internal/testutil/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandling_DuplicateAcrossFiles(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"a.hcl":  `resource "topic" "orders" {}`,
		"b.yaml": "resources:\n  - type: topic\n    name: orders\n",
	}

	// --- Act ---
	result := harness.Run(t, files)

	// --- Assert ---
	var dup resolve.DuplicateResourceError
	require.ErrorAs(t, result.Err, &dup)
	assert.Equal(t, []nodeid.ID{nodeid.New("topic", "orders")}, dup.IDs())
	assert.Nil(t, result.App.Current(), "nothing is published after a failed first pass")
}

func TestErrorHandling_UnknownType(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"main.hcl": `resource "queue" "jobs" {}`,
	}

	result := harness.Run(t, files)

	var unknown registry.UnknownTypeError
	require.ErrorAs(t, result.Err, &unknown)
	assert.Equal(t, "queue", unknown.Type)
}

// TestErrorHandling_ValidationErrorsAreAggregated validates that every
// invalid descriptor is reported in one pass, with the file it came from.
func TestErrorHandling_ValidationErrorsAreAggregated(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"topics.hcl": `
resource "topic" "orders" {
  partitions     = 0
  cleanup_policy = "shred"
}
`,
		"services.yaml": `
resources:
  - type: service
    name: billing
    spec:
      owner: ""
`,
	}

	// --- Act ---
	result := harness.Run(t, files)

	// --- Assert ---
	var verr resolve.ValidationError
	require.ErrorAs(t, result.Err, &verr)
	require.Len(t, verr.Violations, 3)

	msg := verr.Error()
	assert.Contains(t, msg, "3 validation error(s)")
	assert.Contains(t, msg, "partitions: must be at least 1, got 0")
	assert.Contains(t, msg, `cleanup_policy: unknown policy "shred"`)
	assert.Contains(t, msg, "topics.hcl:2")
	assert.Contains(t, msg, "services.yaml:3")
}

// TestErrorHandling_UnresolvedReferencesAreAllReported validates that every
// dangling reference is reported, not just the first.
func TestErrorHandling_UnresolvedReferencesAreAllReported(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"main.hcl": `
resource "topic" "mirror" {
  upstream = [topic.orders, topic.payments]
}
`,
	}

	result := harness.Run(t, files)

	require.Error(t, result.Err)
	var targets []string
	for _, err := range unwrapAll(result.Err) {
		var unresolved resolve.UnresolvedReferenceError
		if assert.ErrorAs(t, err, &unresolved) {
			assert.Equal(t, "topic:mirror", unresolved.Source.String())
			targets = append(targets, unresolved.Target.String())
		}
	}
	assert.ElementsMatch(t, []string{"topic:orders", "topic:payments"}, targets)
}

func unwrapAll(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
