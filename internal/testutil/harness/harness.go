// Package harness runs the whole application against a set of descriptor
// files for integration tests.
package harness

import (
	"context"
	"os"
	"testing"

	"github.com/specialistvlad/extreg/internal/app"
	"github.com/specialistvlad/extreg/internal/graph"
	"github.com/specialistvlad/extreg/internal/registry"
	"github.com/specialistvlad/extreg/internal/testutil"
	"github.com/stretchr/testify/require"
)

// Result holds the outcome of an integration run.
type Result struct {
	App       *app.App
	Graph     *graph.Graph
	Err       error
	LogOutput string
}

// Run writes files into a temporary directory, builds the app over it with
// the given modules (the core set when none are given) and resolves once.
// Startup and resolution errors both end up in Result.Err.
func Run(t *testing.T, files map[string]string, modules ...registry.Module) *Result {
	t.Helper()
	return RunWithContext(context.Background(), t, files, modules...)
}

// RunWithContext is Run with a caller supplied context.
func RunWithContext(ctx context.Context, t *testing.T, files map[string]string, modules ...registry.Module) *Result {
	t.Helper()

	dir := testutil.WriteFiles(t, files)
	cfg, err := app.NewConfig(app.Config{
		Paths:     []string{dir},
		LogLevel:  "debug",
		LogFormat: "text",
	})
	require.NoError(t, err)

	logBuffer := &testutil.SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("EXTREG_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	a, err := app.NewApp(ctx, logBuffer, cfg, nil, modules...)
	if err != nil {
		return &Result{Err: err, LogOutput: logBuffer.String()}
	}
	t.Cleanup(func() { _ = a.Close() })

	g, err := a.Resolve(ctx)
	return &Result{App: a, Graph: g, Err: err, LogOutput: logBuffer.String()}
}
