package integration_tests

import (
	"slices"
	"testing"

	"github.com/specialistvlad/extreg/internal/nodeid"
	"github.com/specialistvlad/extreg/internal/testutil/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fanHCL = `
resource "topic" "raw" {}

resource "topic" "cleaned" {
  upstream = [topic.raw]
}

resource "topic" "enriched" {
  upstream = [topic.raw]
}

resource "topic" "joined" {
  upstream = [topic.cleaned, topic.enriched]
}
`

// TestDAG_FanOutAndFanIn validates dependency and dependent queries and the
// topological order of a diamond.
func TestDAG_FanOutAndFanIn(t *testing.T) {
	t.Parallel()

	// --- Act ---
	result := harness.Run(t, map[string]string{"main.hcl": fanHCL})

	// --- Assert ---
	require.NoError(t, result.Err)
	g := result.Graph

	raw := nodeid.New("topic", "raw")
	joined := nodeid.New("topic", "joined")

	dependents, err := g.DependentsOf(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"topic:cleaned", "topic:enriched"}, nodeid.Strings(dependents))

	deps, err := g.DependenciesOf(joined)
	require.NoError(t, err)
	assert.Equal(t, []string{"topic:cleaned", "topic:enriched"}, nodeid.Strings(deps))

	order := g.TopoOrder()
	require.Len(t, order, 4)
	pos := func(id nodeid.ID) int { return slices.Index(order, id) }
	assert.Equal(t, 0, pos(raw))
	assert.Equal(t, 3, pos(joined))
	for _, e := range g.Edges() {
		assert.Less(t, pos(e.To), pos(e.From), "%s must come after %s", e.From, e.To)
	}
}
