package integration_tests

import (
	"testing"

	"github.com/specialistvlad/extreg/internal/app"
	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/registry"
	"github.com/specialistvlad/extreg/internal/testutil"
	"github.com/specialistvlad/extreg/internal/testutil/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestModuleContract_CustomModuleBesideCoreModules validates that a third
// party extension registers next to the built-in ones and that its
// resources take part in the same graph.
func TestModuleContract_CustomModuleBesideCoreModules(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	jobs := testutil.StubModule{
		Ident:    registry.Identity{Name: "batch", Version: "2.0.0"},
		Handlers: []descriptor.Handler{testutil.StubHandler{TypeName: "job"}},
	}
	modules := append(app.Modules(), jobs)
	files := map[string]string{
		"jobs.yaml": `
resources:
  - type: job
    name: nightly
    spec:
      refs: [cleanup]
      warnings: [runs for hours]
  - type: job
    name: cleanup
`,
		"topics.hcl": `resource "topic" "orders" {}`,
	}

	// --- Act ---
	result := harness.Run(t, files, modules...)

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, []string{"job", "schema", "service", "topic"}, result.App.Registry().Types())

	nightly, err := result.Graph.Get("job", "nightly")
	require.NoError(t, err)
	assert.Equal(t, "batch@2.0.0", nightly.Owner().String())
	assert.Len(t, nightly.References(), 1)
	assert.Equal(t, "runs for hours", nightly.Warnings()[0].Message)
	assert.Equal(t, 3, result.Graph.Len())
}

// TestModuleContract_DuplicateTypeStopsStartup validates that two extensions
// claiming the same type tag keep the app from starting.
func TestModuleContract_DuplicateTypeStopsStartup(t *testing.T) {
	t.Parallel()

	rogue := testutil.StubModule{
		Ident:    registry.Identity{Name: "rogue-kafka", Version: "0.1.0"},
		Handlers: []descriptor.Handler{testutil.StubHandler{TypeName: "topic"}},
	}

	result := harness.Run(t, map[string]string{}, append(app.Modules(), rogue)...)

	var dup registry.DuplicateTypeError
	require.ErrorAs(t, result.Err, &dup)
	assert.Equal(t, "topic", dup.Type)
	assert.Equal(t, "kafka", dup.Existing.Name)
	assert.Equal(t, "rogue-kafka", dup.Incoming.Name)
	assert.Nil(t, result.App)
}
