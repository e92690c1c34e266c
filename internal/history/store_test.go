package history

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/graph"
	"github.com/specialistvlad/extreg/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(t *testing.T, version uint64, partitions string) *graph.Graph {
	t.Helper()
	g, err := graph.New(graph.Metadata{
		Version:       version,
		CorrelationID: "corr-" + partitions,
		ResolvedAt:    time.Date(2024, 5, 1, 12, 0, int(version), 0, time.UTC),
	}, []graph.Spec{{
		Descriptor: descriptor.New("topic", "orders", json.RawMessage(`{"partitions":`+partitions+`}`)),
		Owner:      registry.Identity{Name: "kafka", Version: "1.0.0"},
	}})
	require.NoError(t, err)
	return g
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.Latest(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	first, inserted, err := s.Record(ctx, buildGraph(t, 1, "3"))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(1), first.ID)

	same, inserted, err := s.Record(ctx, buildGraph(t, 2, "3"))
	require.NoError(t, err)
	assert.False(t, inserted, "unchanged graph is not stored again")
	assert.Equal(t, first.ID, same.ID)

	second, inserted, err := s.Record(ctx, buildGraph(t, 3, "6"))
	require.NoError(t, err)
	assert.True(t, inserted)

	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, uint64(3), records[0].Version)
	assert.Equal(t, "corr-6", records[0].CorrelationID)
	assert.Equal(t, 1, records[0].Resources)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 3, 0, time.UTC), records[0].ResolvedAt)

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	g := buildGraph(t, 1, "3")
	rec, _, err := s.Record(ctx, g)
	require.NoError(t, err)

	snap, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Text(), snap.Listing)
	assert.Equal(t, g.Fingerprint(), snap.Fingerprint)

	want, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(snap.Graph))

	_, err = s.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, _, err = s.Record(ctx, buildGraph(t, 1, "3"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	records, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
