package integration_tests

import (
	"testing"

	"github.com/specialistvlad/extreg/internal/nodeid"
	"github.com/specialistvlad/extreg/internal/testutil/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoader_MergesEveryFormat validates that descriptors spread over nested
// directories and all supported formats end up in one graph.
func TestLoader_MergesEveryFormat(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"kafka/topics.hcl": `
resource "topic" "orders" {}
`,
		"kafka/more/topics.yaml": `
resources:
  - type: topic
    name: payments
`,
		"schemas.toml": `
[[resources]]
type = "schema"
name = "order"

[resources.spec]
format = "json"
definition = '{"type":"object"}'
`,
		"schemas.json": `{"resources": [{"type": "schema", "name": "payment", "spec": {"format": "avro", "definition": "{}"}}]}`,
		"services.cue": `
resources: [{
	type: "service"
	name: "checkout"
	spec: {
		owner:    "shop"
		produces: ["orders", "payments"]
		schemas:  ["order", "payment"]
	}
}]
`,
		"README.md": "not a descriptor",
	}

	// --- Act ---
	result := harness.Run(t, files)

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, []string{
		"schema:order", "schema:payment", "service:checkout", "topic:orders", "topic:payments",
	}, nodeid.Strings(resourceIDs(result)))

	deps, err := result.Graph.DependenciesOf(nodeid.New("service", "checkout"))
	require.NoError(t, err)
	assert.Len(t, deps, 4)
}

// TestLoader_EmptyDirectoryGivesEmptyGraph validates that a directory without
// descriptors resolves to an empty, published graph.
func TestLoader_EmptyDirectoryGivesEmptyGraph(t *testing.T) {
	t.Parallel()

	result := harness.Run(t, map[string]string{"notes.txt": "nothing here"})

	require.NoError(t, result.Err)
	assert.Equal(t, 0, result.Graph.Len())
	assert.Same(t, result.Graph, result.App.Current())
}

// TestLoader_ExtensionOptionsFromDescriptorFiles validates that an extension
// block configures the module before it registers.
func TestLoader_ExtensionOptionsFromDescriptorFiles(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"topics.hcl": `
extension "kafka" {
  default_partitions  = 12
  default_replication = 3
}

resource "topic" "orders" {}
`,
	}

	result := harness.Run(t, files)

	require.NoError(t, result.Err)
	res, err := result.Graph.Get("topic", "orders")
	require.NoError(t, err)
	assert.JSONEq(t, `{"partitions":12,"replication":3,"cleanup_policy":"delete"}`, string(res.Serialized()))
}

// TestLoader_UnusedExtensionOptionsOnlyWarn validates that options for an
// extension that is not installed do not stop the app.
func TestLoader_UnusedExtensionOptionsOnlyWarn(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"main.hcl": `
extension "rabbitmq" {
  vhost = "/"
}
`,
	}

	result := harness.Run(t, files)

	require.NoError(t, result.Err)
	assert.Contains(t, result.LogOutput, "Options given for extensions that are not installed.")
	assert.Contains(t, result.LogOutput, "rabbitmq")
}

func resourceIDs(r *harness.Result) []nodeid.ID {
	ids := make([]nodeid.ID, 0, r.Graph.Len())
	for _, res := range r.Graph.Resources() {
		ids = append(ids, res.ID())
	}
	return ids
}
