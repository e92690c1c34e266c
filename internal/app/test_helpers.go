package app

import (
	"context"
	"os"
	"testing"

	"github.com/specialistvlad/extreg/internal/registry"
	"github.com/specialistvlad/extreg/internal/testutil"
	"github.com/stretchr/testify/require"
)

// SetupAppTest creates a new app instance for system testing, with debug
// logs captured in the returned buffer. Setting EXTREG_TEST_LOGS=true dumps
// them after the test.
func SetupAppTest(t *testing.T, cfg Config, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	validated, err := NewConfig(cfg)
	require.NoError(t, err)

	testApp, err := NewApp(context.Background(), logBuffer, validated, nil, modules...)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = testApp.Close()
		if os.Getenv("EXTREG_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return testApp, logBuffer
}
