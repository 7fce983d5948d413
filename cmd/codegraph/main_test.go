package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMainGo = `package sample

func Helper() int { return 1 }

func Caller() int { return Helper() }
`

// runCLI resets the global project-root flag to dir, executes rootCmd with
// args, and returns whatever the command tree wrote to stdout. Subcommands
// print via fmt.Printf directly rather than cmd.OutOrStdout(), so stdout
// itself is captured rather than cobra's output writer.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	prev := projectRoot
	projectRoot = dir
	t.Cleanup(func() { projectRoot = prev })

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	rootCmd.SetArgs(args)
	runErr := rootCmd.Execute()

	require.NoError(t, w.Close())
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String(), runErr
}

func TestInitIndexStatus_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.go"), []byte(sampleMainGo), 0o644))

	_, err := runCLI(t, dir, "init")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "index")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Files:")
	assert.Contains(t, out, "Nodes:")
}

func TestInit_FailsWhenAlreadyInitialized(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "init")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "init")
	assert.Error(t, err)
}

func TestQuerySearch_FindsIndexedNode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.go"), []byte(sampleMainGo), 0o644))

	_, err := runCLI(t, dir, "init")
	require.NoError(t, err)
	_, err = runCLI(t, dir, "index")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "query", "search", "Helper")
	require.NoError(t, err)
	assert.Contains(t, out, "Helper")
}

func TestPrintSortedCounts_OrdersKeysAlphabetically(t *testing.T) {
	var buf bytes.Buffer
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	printSortedCounts(map[string]uint64{"function": 2, "class": 1})

	require.NoError(t, w.Close())
	os.Stdout = old
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)

	out := buf.String()
	assert.Less(t, indexOf(out, "class"), indexOf(out, "function"))
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
