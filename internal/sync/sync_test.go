package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/codegraph/internal/model"
)

func TestContentHash_Deterministic(t *testing.T) {
	a := ContentHash([]byte("package main"))
	b := ContentHash([]byte("package main"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, ContentHash([]byte("package other")))
}

func TestFindStaleNewRemovedFiles(t *testing.T) {
	onDisk := map[string][]byte{
		"a.go": []byte("changed"),
		"b.go": []byte("unchanged"),
		"c.go": []byte("brand new"),
	}
	known := map[string]model.FileRecord{
		"a.go": {Path: "a.go", ContentHash: ContentHash([]byte("original"))},
		"b.go": {Path: "b.go", ContentHash: ContentHash([]byte("unchanged"))},
		"d.go": {Path: "d.go", ContentHash: "whatever"},
	}

	assert.ElementsMatch(t, []string{"a.go"}, FindStaleFiles(onDisk, known))
	assert.ElementsMatch(t, []string{"c.go"}, FindNewFiles(onDisk, known))
	assert.ElementsMatch(t, []string{"d.go"}, FindRemovedFiles(onDisk, known))
}
