package codegraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/codegraph/internal/extract"
	"github.com/ternarybob/codegraph/internal/extract/goext"
)

func newTestRegistry() *extract.Registry {
	r := extract.NewRegistry()
	r.Register(goext.New())
	return r
}

const sampleSource = `package sample

func Helper() int {
	return 1
}

func Caller() int {
	return Helper()
}
`

func writeSampleProject(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.go"), []byte(sampleSource), 0o644))
}

func TestIndexAll_ExtractsNodesAndEdges(t *testing.T) {
	dir := t.TempDir()
	writeSampleProject(t, dir)

	cg, err := Init(dir, newTestRegistry())
	require.NoError(t, err)
	defer cg.Close()

	var seenDone, seenTotal int
	result, err := cg.IndexAll(func(done, total int) {
		seenDone, seenTotal = done, total
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FileCount)
	assert.GreaterOrEqual(t, result.NodeCount, 2)
	assert.Equal(t, seenTotal, seenDone)
	assert.Equal(t, 1, seenTotal)

	stats, err := cg.GetStats()
	require.NoError(t, err)
	assert.EqualValues(t, result.NodeCount, stats.NodeCount)
}

func TestSync_PicksUpModifiedAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeSampleProject(t, dir)

	cg, err := Init(dir, newTestRegistry())
	require.NoError(t, err)
	defer cg.Close()

	_, err = cg.IndexAll()
	require.NoError(t, err)

	// Unchanged: a sync with no filesystem changes should touch nothing.
	result, err := cg.Sync()
	require.NoError(t, err)
	assert.Equal(t, 0, result.FilesAdded)
	assert.Equal(t, 0, result.FilesModified)
	assert.Equal(t, 0, result.FilesRemoved)

	// New file appears.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "second.go"), []byte("package sample\n\nfunc Other() {}\n"), 0o644))
	result, err = cg.Sync()
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesAdded)

	// Existing file modified.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.go"), []byte(sampleSource+"\nfunc Extra() {}\n"), 0o644))
	result, err = cg.Sync()
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesModified)

	// File removed.
	require.NoError(t, os.Remove(filepath.Join(dir, "second.go")))
	result, err = cg.Sync()
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesRemoved)
}

func TestOpen_FailsWithoutInit(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir, newTestRegistry())
	assert.Error(t, err)
}

func TestGetCallers_FindsCallerAcrossIndexedFile(t *testing.T) {
	dir := t.TempDir()
	writeSampleProject(t, dir)

	cg, err := Init(dir, newTestRegistry())
	require.NoError(t, err)
	defer cg.Close()

	_, err = cg.IndexAll()
	require.NoError(t, err)

	results, err := cg.Search("Helper", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	var helperID string
	for _, r := range results {
		if r.Node.Name == "Helper" {
			helperID = r.Node.ID
		}
	}
	require.NotEmpty(t, helperID)

	callers, err := cg.GetCallers(helperID, 3)
	require.NoError(t, err)
	var callerNames []string
	for _, p := range callers {
		callerNames = append(callerNames, p.Node.Name)
	}
	assert.Contains(t, callerNames, "Caller")
}
