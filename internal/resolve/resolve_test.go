package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/codegraph/internal/model"
)

func TestResolveOne_QualifiedSuffixMatch(t *testing.T) {
	nodes := []model.Node{
		{ID: "fn:1", Name: "Node", QualifiedName: "crate::types::Node", FilePath: "types.rs"},
	}
	r := New(nodes)

	resolved, ok := r.ResolveOne(model.UnresolvedRef{ReferenceName: "types::Node", FilePath: "other.rs"})
	require.True(t, ok)
	assert.Equal(t, "fn:1", resolved.TargetNodeID)
	assert.InDelta(t, confidenceQualified, resolved.Confidence, 0.0001)
	assert.Equal(t, tagQualifiedMatch, resolved.ResolvedBy)
}

func TestResolveOne_ExactSingleCandidate(t *testing.T) {
	nodes := []model.Node{
		{ID: "fn:1", Name: "doWork", QualifiedName: "a.go::doWork", FilePath: "a.go"},
	}
	r := New(nodes)

	resolved, ok := r.ResolveOne(model.UnresolvedRef{ReferenceName: "doWork", FilePath: "b.go"})
	require.True(t, ok)
	assert.Equal(t, "fn:1", resolved.TargetNodeID)
	assert.InDelta(t, confidenceExactOne, resolved.Confidence, 0.0001)
}

func TestResolveOne_ScoredDisambiguation_PrefersSameFile(t *testing.T) {
	nodes := []model.Node{
		{ID: "fn:far", Name: "run", QualifiedName: "far.go::run", FilePath: "far.go", StartLine: 10, Visibility: model.VisibilityPub},
		{ID: "fn:near", Name: "run", QualifiedName: "near.go::run", FilePath: "caller.go", StartLine: 12, Visibility: model.VisibilityPrivate},
	}
	r := New(nodes)

	resolved, ok := r.ResolveOne(model.UnresolvedRef{
		ReferenceName: "run", FilePath: "caller.go", Line: 10, ReferenceKind: model.EdgeCalls,
	})
	require.True(t, ok)
	assert.Equal(t, "fn:near", resolved.TargetNodeID)
	assert.InDelta(t, confidenceScored, resolved.Confidence, 0.0001)
}

func TestResolveOne_NoCandidates(t *testing.T) {
	r := New(nil)
	_, ok := r.ResolveOne(model.UnresolvedRef{ReferenceName: "missing"})
	assert.False(t, ok)
}

func TestResolveAll_CountsAndCreateEdges(t *testing.T) {
	nodes := []model.Node{{ID: "fn:1", Name: "a", FilePath: "x.go"}}
	r := New(nodes)
	refs := []model.UnresolvedRef{
		{FromNodeID: "fn:2", ReferenceName: "a", ReferenceKind: model.EdgeCalls, Line: 3},
		{FromNodeID: "fn:3", ReferenceName: "nope", ReferenceKind: model.EdgeUses},
	}

	result := r.ResolveAll(refs)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.ResolvedCount)
	require.Len(t, result.Unresolved, 1)

	edges := CreateEdges(result.Resolved)
	require.Len(t, edges, 1)
	assert.Equal(t, "fn:2", edges[0].Source)
	assert.Equal(t, "fn:1", edges[0].Target)
	assert.True(t, edges[0].HasLine)
}
