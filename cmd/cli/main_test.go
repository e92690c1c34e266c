package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/extreg/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Help(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	err := run(context.Background(), out, &bytes.Buffer{}, []string{"--help"})

	require.NoError(t, err, "help should not be an error")
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "resolve")
}

func TestRun_ParseFailureExitCode(t *testing.T) {
	t.Parallel()
	invalidHCL := `
resource "topic" "orders" {
  partitions = 3
// Missing closing brace here
`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.hcl"), []byte(invalidHCL), 0o600))

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"resolve", dir})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, exitErr.Message, "failed to parse")
}

func TestRun_Resolve(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "topics.hcl"), []byte(`resource "topic" "orders" {}`+"\n"), 0o600))
	out := &bytes.Buffer{}

	err := run(context.Background(), out, &bytes.Buffer{}, []string{"resolve", "--log-level", "error", dir})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Resolved 1 resource(s)")
}
