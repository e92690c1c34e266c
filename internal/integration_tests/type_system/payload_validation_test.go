package integration_tests

import (
	"testing"

	"github.com/specialistvlad/extreg/internal/graph"
	"github.com/specialistvlad/extreg/internal/resolve"
	"github.com/specialistvlad/extreg/internal/testutil/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeSystem_PayloadMismatches(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		hcl      string
		contains string
	}{
		{
			name:     "string where number expected",
			hcl:      `resource "topic" "t" { partitions = "many" }`,
			contains: "partitions: must be number",
		},
		{
			name:     "unsupported attribute",
			hcl:      `resource "topic" "t" { colour = "blue" }`,
			contains: "colour: unsupported attribute",
		},
		{
			name:     "missing required attribute",
			hcl:      `resource "service" "s" { produces = [] }`,
			contains: "owner: attribute is required",
		},
		{
			name: "invalid json schema definition",
			hcl: `
resource "schema" "s" {
  format     = "json"
  definition = "{"
}
`,
			contains: "definition: is not valid JSON",
		},
		{
			name: "reference to the wrong type",
			hcl: `
resource "schema" "order" {
  format     = "avro"
  definition = "{}"
}

resource "topic" "t" {
  upstream = ["schema:order"]
}
`,
			contains: "upstream[0]: must reference a topic, got schema:order",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Act ---
			result := harness.Run(t, map[string]string{"main.hcl": tc.hcl})

			// --- Assert ---
			var verr resolve.ValidationError
			require.ErrorAs(t, result.Err, &verr)
			assert.Contains(t, verr.Error(), tc.contains)
		})
	}
}

// TestTypeSystem_WarningsDoNotFailThePass validates that warning-level
// findings are published on the resource instead of failing resolution.
func TestTypeSystem_WarningsDoNotFailThePass(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"main.hcl": `
resource "topic" "legacy" {
  mirror_of = "orders"
}

resource "schema" "draft" {
  format = "avro"
}
`,
	}

	result := harness.Run(t, files)

	require.NoError(t, result.Err)
	for _, id := range []string{"legacy", "draft"} {
		typ := "topic"
		if id == "draft" {
			typ = "schema"
		}
		res, err := result.Graph.Get(typ, id)
		require.NoError(t, err)
		assert.Equal(t, graph.StatusValidWithWarnings, res.Status(), "%s:%s", typ, id)
		assert.NotEmpty(t, res.Warnings())
	}

	legacy, err := result.Graph.Get("topic", "legacy")
	require.NoError(t, err)
	assert.Equal(t, "mirror_of", legacy.Warnings()[0].Field)
	assert.Contains(t, legacy.Warnings()[0].Message, "use upstream")
}
