package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/specialistvlad/extreg/internal/descriptor"
	"github.com/specialistvlad/extreg/internal/nodeid"
	"github.com/specialistvlad/extreg/internal/testutil"
	"pgregory.net/rapid"
)

// acyclicBatch draws n distinct topics where topic i may only reference
// topics with a smaller index.
func acyclicBatch(t *rapid.T) []descriptor.Descriptor {
	n := rapid.IntRange(0, 20).Draw(t, "n")
	descs := make([]descriptor.Descriptor, n)
	for i := 0; i < n; i++ {
		var refs []string
		for j := 0; j < i; j++ {
			if rapid.Bool().Draw(t, fmt.Sprintf("ref-%d-%d", i, j)) {
				refs = append(refs, fmt.Sprintf("t%d", j))
			}
		}
		descs[i] = stub(fmt.Sprintf("t%d", i), refs...)
	}
	perm := rapid.Permutation(descs).Draw(t, "order")
	return perm
}

func TestProperty_ValidBatchResolves(t *testing.T) {
	e := New(testutil.FrozenRegistry(t, "topic"))
	rapid.Check(t, func(t *rapid.T) {
		batch := acyclicBatch(t)
		g, err := e.Resolve(context.Background(), batch)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if g.Len() != len(batch) {
			t.Fatalf("graph has %d resources, batch has %d", g.Len(), len(batch))
		}
		for _, d := range batch {
			if _, err := g.Get(d.Type(), d.Name()); err != nil {
				t.Fatalf("missing %s: %v", d.ID, err)
			}
		}
	})
}

func TestProperty_Idempotent(t *testing.T) {
	e := New(testutil.FrozenRegistry(t, "topic"))
	rapid.Check(t, func(t *rapid.T) {
		batch := acyclicBatch(t)
		first, err := e.Resolve(context.Background(), batch)
		if err != nil {
			t.Fatal(err)
		}
		second, err := e.Resolve(context.Background(), batch)
		if err != nil {
			t.Fatal(err)
		}
		if !first.Equal(second) || first.Fingerprint() != second.Fingerprint() {
			t.Fatal("resolving the same batch twice produced different graphs")
		}
	})
}

func TestProperty_DuplicatesAreAllNamed(t *testing.T) {
	e := New(testutil.FrozenRegistry(t, "topic"))
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfN(rapid.SampledFrom([]string{"a", "b", "c", "d", "e"}), 1, 12).Draw(t, "names")
		counts := map[string]int{}
		var batch []descriptor.Descriptor
		for _, n := range names {
			counts[n]++
			batch = append(batch, stub(n))
		}
		// Force at least one duplicate.
		batch = append(batch, stub(names[0]))
		counts[names[0]]++

		_, err := e.Resolve(context.Background(), batch)
		var dupErr DuplicateResourceError
		if !errors.As(err, &dupErr) {
			t.Fatalf("expected DuplicateResourceError, got %v", err)
		}
		named := map[string]int{}
		for _, d := range dupErr.Duplicates {
			named[d.ID.Name] = d.Count
		}
		for n, c := range counts {
			if c > 1 && named[n] != c {
				t.Fatalf("duplicate %s (x%d) not reported correctly: %v", n, c, dupErr.Duplicates)
			}
			if c == 1 && named[n] != 0 {
				t.Fatalf("unique %s reported as duplicate", n)
			}
		}
	})
}

func TestProperty_CyclePathIsTraversalOrder(t *testing.T) {
	e := New(testutil.FrozenRegistry(t, "topic"))
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")
		batch := make([]descriptor.Descriptor, n)
		for i := 0; i < n; i++ {
			batch[i] = stub(fmt.Sprintf("c%d", i), fmt.Sprintf("c%d", (i+1)%n))
		}
		_, err := e.Resolve(context.Background(), batch)
		var cycleErr CyclicReferenceError
		if !errors.As(err, &cycleErr) {
			t.Fatalf("expected CyclicReferenceError, got %v", err)
		}
		if len(cycleErr.Path) != n {
			t.Fatalf("cycle path %v, want %d members", cycleErr.Path, n)
		}
		for i, id := range cycleErr.Path {
			if id != nodeid.New("topic", fmt.Sprintf("c%d", i)) {
				t.Fatalf("cycle path not in traversal order: %v", nodeid.Strings(cycleErr.Path))
			}
		}
	})
}
