package topic

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/execctx"
	"github.com/specialistvlad/extreg/internal/nodeid"
	"github.com/specialistvlad/extreg/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(vs []descriptor.Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Field
	}
	return out
}

func TestValidate(t *testing.T) {
	h := Handler(Options{DefaultPartitions: 1, DefaultReplication: 1})

	tests := []struct {
		name     string
		payload  string
		errors   []string
		warnings []string
	}{
		{name: "defaults", payload: `{}`},
		{name: "full", payload: `{"partitions":6,"replication":3,"retention_ms":-1,"cleanup_policy":"compact","upstream":["raw","topic:audit"]}`},
		{name: "schema errors are all reported", payload: `{"partitions":"many","upstream":"raw","color":"red"}`, errors: []string{"partitions", "upstream", "color"}},
		{name: "range errors", payload: `{"partitions":0,"replication":0,"retention_ms":-5,"cleanup_policy":"archive"}`, errors: []string{"partitions", "replication", "retention_ms", "cleanup_policy"}},
		{name: "upstream of another type", payload: `{"upstream":["schema:order"]}`, errors: []string{"upstream[0]"}},
		{name: "deprecated attribute", payload: `{"mirror_of":"raw"}`, warnings: []string{"mirror_of"}},
		{name: "high replication", payload: `{"partitions":1,"replication":4}`, warnings: []string{"replication"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := h.Validate(execctx.New(), descriptor.New(Type, "orders", json.RawMessage(tc.payload)))
			assert.ElementsMatch(t, tc.errors, fields(r.Errors()))
			assert.ElementsMatch(t, tc.warnings, fields(r.Warnings()))
		})
	}
}

func TestResolveReferences(t *testing.T) {
	h := Handler(Options{DefaultPartitions: 1, DefaultReplication: 1})
	d := descriptor.New(Type, "enriched", json.RawMessage(`{"upstream":["orders","topic:audit"]}`))
	refs, err := h.ResolveReferences(d, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"topic:orders", "topic:audit"}, nodeid.Strings(refs))
}

func TestSerialize_AppliesDefaults(t *testing.T) {
	h := Handler(Options{DefaultPartitions: 3, DefaultReplication: 2})
	out, err := descriptor.Serialize(h, descriptor.New(Type, "orders", json.RawMessage(`{"upstream":["raw"]}`)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"partitions":3,"replication":2,"cleanup_policy":"delete","upstream":["raw"]}`, string(out))
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("options are applied", func(t *testing.T) {
		r := registry.NewWithOptions(registry.NewOptions(map[string]map[string]any{
			"kafka": {"default_partitions": 12},
		}))
		require.NoError(t, registry.Install(ctx, r, &Module{}))
		require.NoError(t, r.Freeze(ctx))

		h, err := r.HandlerFor(Type)
		require.NoError(t, err)
		out, err := descriptor.Serialize(h, descriptor.New(Type, "orders", nil))
		require.NoError(t, err)
		assert.JSONEq(t, `{"partitions":12,"replication":1,"cleanup_policy":"delete"}`, string(out))
	})

	t.Run("invalid options", func(t *testing.T) {
		r := registry.NewWithOptions(registry.NewOptions(map[string]map[string]any{
			"kafka": {"default_partitions": 0},
		}))
		err := registry.Install(ctx, r, &Module{})
		assert.ErrorContains(t, err, "install extension kafka@1.0.0")
		assert.Empty(t, r.Types())
	})

	t.Run("unknown option", func(t *testing.T) {
		r := registry.NewWithOptions(registry.NewOptions(map[string]map[string]any{
			"kafka": {"partitions": 3},
		}))
		assert.ErrorContains(t, registry.Install(ctx, r, &Module{}), "partitions")
	})
}
