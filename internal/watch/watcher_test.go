package watch_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/extreg/internal/watch"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T, cfg watch.Config) <-chan struct{} {
	t.Helper()
	w, err := watch.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	ch, err := w.Start(context.Background())
	require.NoError(t, err)
	return ch
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "topics.hcl")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	onChange := start(t, watch.Config{Paths: []string{dir}, Extensions: []string{".hcl"}, Debounce: 50 * time.Millisecond})

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(file, []byte(fmt.Sprintf("x%d", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-onChange:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}
	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("a"), 0o644))

	onChange := start(t, watch.Config{Paths: []string{dir}, Extensions: []string{".hcl"}, Debounce: 20 * time.Millisecond})
	require.NoError(t, os.WriteFile(other, []byte("b"), 0o644))

	select {
	case <-onChange:
		t.Fatal("unexpected notification for unrelated file")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_SingleFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "extreg.conf")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o644))

	onChange := start(t, watch.Config{Paths: []string{file}, Extensions: []string{".hcl"}, Debounce: 20 * time.Millisecond})
	require.NoError(t, os.WriteFile(file, []byte("b"), 0o644))

	select {
	case <-onChange:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for explicitly watched file")
	}
}

func TestWatcher_MissingPath(t *testing.T) {
	w, err := watch.New(watch.Config{Paths: []string{filepath.Join(t.TempDir(), "absent")}})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()
	_, err = w.Start(context.Background())
	require.Error(t, err)
}
