package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateNodeID_DeterministicAndKindPrefixed(t *testing.T) {
	id1 := GenerateNodeID("a.go", NodeFunction, "DoThing", 10)
	id2 := GenerateNodeID("a.go", NodeFunction, "DoThing", 10)
	assert.Equal(t, id1, id2)
	assert.Equal(t, "function:", id1[:len("function:")])
}

func TestGenerateNodeID_DiffersOnAnyInputChange(t *testing.T) {
	base := GenerateNodeID("a.go", NodeFunction, "DoThing", 10)
	assert.NotEqual(t, base, GenerateNodeID("b.go", NodeFunction, "DoThing", 10))
	assert.NotEqual(t, base, GenerateNodeID("a.go", NodeMethod, "DoThing", 10))
	assert.NotEqual(t, base, GenerateNodeID("a.go", NodeFunction, "OtherThing", 10))
	assert.NotEqual(t, base, GenerateNodeID("a.go", NodeFunction, "DoThing", 11))
}

func TestParseNodeKind_FallsBackToFunction(t *testing.T) {
	assert.Equal(t, NodeStruct, ParseNodeKind("struct"))
	assert.Equal(t, NodeFunction, ParseNodeKind("not_a_real_kind"))
}

func TestParseEdgeKind_FallsBackToUses(t *testing.T) {
	assert.Equal(t, EdgeCalls, ParseEdgeKind("calls"))
	assert.Equal(t, EdgeUses, ParseEdgeKind("bogus"))
}

func TestParseVisibility_FallsBackToPrivate(t *testing.T) {
	assert.Equal(t, VisibilityPub, ParseVisibility("public"))
	assert.Equal(t, VisibilityPub, ParseVisibility("pub"))
	assert.Equal(t, VisibilityPrivate, ParseVisibility("whatever"))
}

func TestNodeKind_IsCallable(t *testing.T) {
	assert.True(t, NodeFunction.IsCallable())
	assert.True(t, NodeMethod.IsCallable())
	assert.False(t, NodeStruct.IsCallable())
	assert.False(t, NodeField.IsCallable())
}

func TestDBError_UnwrapsUnderlyingError(t *testing.T) {
	inner := errors.New("disk full")
	err := &DBError{Op: "upsert_file", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "upsert_file")
}

func TestParseError_FormatsLineWhenKnown(t *testing.T) {
	withLine := &ParseError{Path: "a.go", Line: 5, Err: errors.New("bad token")}
	assert.Contains(t, withLine.Error(), "a.go:5")

	withoutLine := &ParseError{Path: "a.go", Line: -1, Err: errors.New("bad token")}
	assert.NotContains(t, withoutLine.Error(), ":-1")
}

func TestDefaultTraversalOptions(t *testing.T) {
	opts := DefaultTraversalOptions()
	assert.Equal(t, uint32(3), opts.MaxDepth)
	assert.Equal(t, DirOutgoing, opts.Direction)
	assert.True(t, opts.IncludeStart)
}

func TestDefaultBuildContextOptions(t *testing.T) {
	opts := DefaultBuildContextOptions()
	assert.Equal(t, 20, opts.MaxNodes)
	assert.True(t, opts.IncludeCode)
	assert.Equal(t, FormatMarkdown, opts.Format)
}
