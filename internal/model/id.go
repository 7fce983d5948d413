package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateNodeID computes the deterministic node ID for a declaration:
// "<kind>:<32 leading hex chars of SHA-256("file:kind:name:line")>". The
// same declaration re-extracted from unchanged source always yields the
// same ID (spec.md §3, §8 invariant 1).
func GenerateNodeID(filePath string, kind NodeKind, name string, startLine uint32) string {
	input := fmt.Sprintf("%s:%s:%s:%d", filePath, kind, name, startLine)
	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%s:%s", kind, hex.EncodeToString(sum[:])[:32])
}
