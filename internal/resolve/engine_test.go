package resolve

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/graph"
	"github.com/specialistvlad/extreg/internal/nodeid"
	"github.com/specialistvlad/extreg/internal/registry"
	"github.com/specialistvlad/extreg/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type P = testutil.StubPayload

func stub(name string, refs ...string) descriptor.Descriptor {
	return testutil.Stub("topic", name, P{Refs: refs})
}

func TestResolve_EndToEnd(t *testing.T) {
	ctx, logs := testutil.NewContext(t)
	e := New(testutil.FrozenRegistry(t, "topic"))

	g, err := e.Resolve(ctx, []descriptor.Descriptor{stub("A"), stub("B", "A")})
	require.NoError(t, err)

	b, err := g.Get("topic", "B")
	require.NoError(t, err)
	assert.Equal(t, []string{"topic:A"}, nodeid.Strings(b.References()))
	assert.Equal(t, registry.Identity{Name: "test", Version: "0.0.0"}, b.Owner())

	assert.Same(t, g, e.Current())
	assert.Equal(t, uint64(1), g.Version())
	assert.Equal(t, "test-TestResolve_EndToEnd", g.CorrelationID())
	assert.Equal(t, testutil.FixedTime, g.ResolvedAt())
	assert.Contains(t, logs.String(), `"correlation_id":"test-TestResolve_EndToEnd"`)
	assert.Contains(t, logs.String(), "Resolution graph published.")
}

func TestResolve_UnresolvedReference(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	e := New(testutil.FrozenRegistry(t, "topic"))

	_, err := e.Resolve(ctx, []descriptor.Descriptor{stub("A", "B")})

	var unresolved UnresolvedReferenceError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "topic:A", unresolved.Source.String())
	assert.Equal(t, "topic:B", unresolved.Target.String())
	assert.Nil(t, e.Current(), "failed passes never publish")
}

func TestResolve_RequiresFrozenRegistry(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(context.Background(), registry.Identity{Name: "x"}, testutil.StubHandler{TypeName: "topic"}))

	_, err := New(r).Resolve(context.Background(), []descriptor.Descriptor{stub("A")})
	assert.ErrorIs(t, err, ErrRegistryNotFrozen)
}

func TestResolve_Duplicates(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	e := New(testutil.FrozenRegistry(t, "topic", "schema"))

	_, err := e.Resolve(ctx, []descriptor.Descriptor{
		stub("A"), stub("B"), stub("A"), stub("A"), stub("B"),
		testutil.Stub("schema", "A", P{}),
	})

	var dupErr DuplicateResourceError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, []Duplicate{
		{ID: nodeid.New("topic", "A"), Count: 3},
		{ID: nodeid.New("topic", "B"), Count: 2},
	}, dupErr.Duplicates)
	assert.EqualError(t, err, "duplicate resource descriptors: topic:A (x3), topic:B (x2)")
}

func TestResolve_InvalidIdentity(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	e := New(testutil.FrozenRegistry(t, "topic"))

	_, err := e.Resolve(ctx, []descriptor.Descriptor{descriptor.New("topic", "", nil)})
	var valErr ValidationError
	require.True(t, errors.As(err, &valErr))
	require.Len(t, valErr.Violations, 1)
	assert.Equal(t, "id", valErr.Violations[0].Violation.Field)
}

func TestResolve_UnknownTypeShortCircuits(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	calls := 0
	r := registry.New()
	require.NoError(t, r.Register(ctx, registry.Identity{Name: "x"}, testutil.StubHandler{TypeName: "topic", Calls: &calls}))
	require.NoError(t, r.Freeze(ctx))

	_, err := New(r).Resolve(ctx, []descriptor.Descriptor{
		stub("A"),
		testutil.Stub("queue", "Q", P{}),
	})

	var unknown registry.UnknownTypeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "queue", unknown.Type)
	assert.Zero(t, calls, "no handler runs once an unknown type is found")
}

func TestResolve_BatchValidation(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	e := New(testutil.FrozenRegistry(t, "topic"))

	_, err := e.Resolve(ctx, []descriptor.Descriptor{
		testutil.Stub("topic", "A", P{Errors: []string{"partitions must be positive", "name too long"}}),
		testutil.Stub("topic", "B", P{Warnings: []string{"no retention"}}),
		testutil.Stub("topic", "C", P{Errors: []string{"bad cleanup policy"}, Refs: []string{"missing"}}),
	})

	var valErr ValidationError
	require.True(t, errors.As(err, &valErr))
	require.Len(t, valErr.Violations, 3)
	assert.Equal(t, "topic:A", valErr.Violations[0].ID.String())
	assert.Equal(t, "topic:A", valErr.Violations[1].ID.String())
	assert.Equal(t, "topic:C", valErr.Violations[2].ID.String())
	assert.False(t, errors.As(err, new(UnresolvedReferenceError)), "references are not resolved when validation fails")
	assert.Contains(t, err.Error(), "3 validation error(s)")
}

func TestResolve_WarningsDoNotFail(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	e := New(testutil.FrozenRegistry(t, "topic"))

	g, err := e.Resolve(ctx, []descriptor.Descriptor{
		testutil.Stub("topic", "A", P{Warnings: []string{"no retention"}}),
	})
	require.NoError(t, err)
	a, err := g.Get("topic", "A")
	require.NoError(t, err)
	assert.Equal(t, graph.StatusValidWithWarnings, a.Status())
	require.Len(t, a.Warnings(), 1)
	assert.Equal(t, "no retention", a.Warnings()[0].Message)
}

func TestResolve_Cycles(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	e := New(testutil.FrozenRegistry(t, "topic"))

	t.Run("two members", func(t *testing.T) {
		_, err := e.Resolve(ctx, []descriptor.Descriptor{stub("A", "B"), stub("B", "A")})
		var cycleErr CyclicReferenceError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, []string{"topic:A", "topic:B"}, nodeid.Strings(cycleErr.Path))
		assert.Contains(t, err.Error(), "topic:A -> topic:B -> topic:A")
	})

	t.Run("self reference", func(t *testing.T) {
		_, err := e.Resolve(ctx, []descriptor.Descriptor{stub("A", "A")})
		var cycleErr CyclicReferenceError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, []string{"topic:A"}, nodeid.Strings(cycleErr.Path))
	})

	t.Run("cycles and dangling references reported together", func(t *testing.T) {
		_, err := e.Resolve(ctx, []descriptor.Descriptor{
			stub("A", "B"), stub("B", "C"), stub("C", "A"),
			stub("D", "ghost"),
			stub("E", "F"), stub("F", "E"),
		})
		require.Error(t, err)

		var unresolved UnresolvedReferenceError
		require.True(t, errors.As(err, &unresolved))
		assert.Equal(t, "topic:ghost", unresolved.Target.String())

		joined, ok := err.(interface{ Unwrap() []error })
		require.True(t, ok)
		var paths [][]string
		for _, e := range joined.Unwrap() {
			var c CyclicReferenceError
			if errors.As(e, &c) {
				paths = append(paths, nodeid.Strings(c.Path))
			}
		}
		assert.Equal(t, [][]string{
			{"topic:A", "topic:B", "topic:C"},
			{"topic:E", "topic:F"},
		}, paths)
	})

	assert.Nil(t, e.Current())
}

func TestResolve_DuplicateReferencesCollapse(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	e := New(testutil.FrozenRegistry(t, "topic"))

	g, err := e.Resolve(ctx, []descriptor.Descriptor{stub("A"), stub("B", "A", "topic:A")})
	require.NoError(t, err)
	b, err := g.Get("topic", "B")
	require.NoError(t, err)
	assert.Len(t, b.References(), 1)
}

func TestResolve_DescriptorsAreCopied(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	e := New(testutil.FrozenRegistry(t, "topic"))

	d := testutil.Stub("topic", "A", P{Warnings: []string{"w"}})
	g, err := e.Resolve(ctx, []descriptor.Descriptor{d})
	require.NoError(t, err)
	for i := range d.Payload {
		d.Payload[i] = ' '
	}
	a, err := g.Get("topic", "A")
	require.NoError(t, err)
	assert.JSONEq(t, `{"warnings":["w"]}`, string(a.Payload()))
}

func TestResolve_CreatesExecutionContext(t *testing.T) {
	e := New(testutil.FrozenRegistry(t, "topic"))
	g, err := e.Resolve(context.Background(), []descriptor.Descriptor{stub("A")})
	require.NoError(t, err)
	assert.NotEmpty(t, g.CorrelationID())
}

func TestResolve_CanceledContext(t *testing.T) {
	e := New(testutil.FrozenRegistry(t, "topic"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Resolve(ctx, []descriptor.Descriptor{stub("A")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_Concurrent(t *testing.T) {
	e := New(testutil.FrozenRegistry(t, "topic"))
	batch := []descriptor.Descriptor{stub("A"), stub("B", "A"), stub("C", "A", "B")}

	var wg sync.WaitGroup
	results := make([]*graph.Graph, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := e.Resolve(context.Background(), batch)
			assert.NoError(t, err)
			results[i] = g
		}(i)
	}
	wg.Wait()

	cur := e.Current()
	require.NotNil(t, cur)
	assert.Equal(t, uint64(len(results)), cur.Version(), "the newest pass wins")
	for _, g := range results {
		assert.True(t, cur.Equal(g))
	}
}

func TestPublish_KeepsNewest(t *testing.T) {
	e := New(testutil.FrozenRegistry(t, "topic"))
	older, err := graph.New(graph.Metadata{Version: 1}, nil)
	require.NoError(t, err)
	newer, err := graph.New(graph.Metadata{Version: 2}, nil)
	require.NoError(t, err)

	assert.True(t, e.publish(newer))
	assert.False(t, e.publish(older))
	assert.Same(t, newer, e.Current())
}
