// Package sync implements incremental re-indexing: content hashing and
// stale/new/removed file diffing, grounded on the original implementation's
// src/sync.rs.
package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/minio/highwayhash"

	"github.com/ternarybob/codegraph/internal/model"
)

// ContentHash returns the lowercase-hex SHA-256 digest of content, per
// spec.md §4.7's content_hash(source) definition.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// fastHashKey is a fixed 32-byte HighwayHash key; FastHash is a
// change-detection pre-check, not a security boundary, so a static key is
// fine (mirrors the pack's own fixed-key HighwayHash usage).
var fastHashKey = []byte("codegraph-fast-hash-key-32bytes!")

// FastHash returns a cheap HighwayHash-64 digest of content, used to gate
// whether the more expensive ContentHash comparison is worth running
// during Sync.
func FastHash(content []byte) string {
	h, err := highwayhash.New64(fastHashKey)
	if err != nil {
		return ""
	}
	_, _ = h.Write(content)
	return strconv.FormatUint(h.Sum64(), 16)
}

// FindStaleFiles returns the paths present in both onDisk and known whose
// current content hash differs from the stored one.
func FindStaleFiles(onDisk map[string][]byte, known map[string]model.FileRecord) []string {
	var stale []string
	for path, content := range onDisk {
		record, ok := known[path]
		if !ok {
			continue
		}
		if ContentHash(content) != record.ContentHash {
			stale = append(stale, path)
		}
	}
	return stale
}

// FindNewFiles returns paths present in onDisk but not yet known.
func FindNewFiles(onDisk map[string][]byte, known map[string]model.FileRecord) []string {
	var fresh []string
	for path := range onDisk {
		if _, ok := known[path]; !ok {
			fresh = append(fresh, path)
		}
	}
	return fresh
}

// FindRemovedFiles returns paths that are known but no longer present on
// disk.
func FindRemovedFiles(onDisk map[string][]byte, known map[string]model.FileRecord) []string {
	var removed []string
	for path := range known {
		if _, ok := onDisk[path]; !ok {
			removed = append(removed, path)
		}
	}
	return removed
}
