// Package resolve implements tiered cross-file reference resolution,
// grounded directly on the original implementation's
// src/resolution/resolver.rs: build in-memory name/qualified-name caches
// once, then resolve each unresolved reference via qualified-name match,
// exact single-candidate match, or scored multi-candidate disambiguation.
package resolve

import (
	"strings"

	"github.com/ternarybob/codegraph/internal/model"
)

const (
	tagQualifiedMatch = "qualified-match"
	tagExactMatch     = "exact-match"

	confidenceQualified = 0.95
	confidenceExactOne  = 0.9
	confidenceScored    = 0.7
)

// Resolver resolves unresolved references against a fixed snapshot of known
// nodes, loaded once at construction time (resolver.rs's ReferenceResolver).
type Resolver struct {
	byName          map[string][]model.Node
	byQualifiedName map[string][]model.Node
}

// New builds a Resolver from the full current set of nodes. Callers
// (internal/codegraph) are responsible for loading that set from the
// store before constructing one.
func New(allNodes []model.Node) *Resolver {
	r := &Resolver{
		byName:          make(map[string][]model.Node),
		byQualifiedName: make(map[string][]model.Node),
	}
	for _, n := range allNodes {
		r.byName[n.Name] = append(r.byName[n.Name], n)
		r.byQualifiedName[n.QualifiedName] = append(r.byQualifiedName[n.QualifiedName], n)
	}
	return r
}

// ResolveOne attempts to resolve a single unresolved reference, trying
// strategies in order: qualified-name match (only when the reference name
// contains "::"), then exact name match.
func (r *Resolver) ResolveOne(uref model.UnresolvedRef) (model.ResolvedRef, bool) {
	if strings.Contains(uref.ReferenceName, "::") {
		if resolved, ok := r.tryQualifiedMatch(uref); ok {
			return resolved, true
		}
	}
	return r.tryExactNameMatch(uref)
}

// ResolveAll resolves a batch, returning a summary matching
// model.ResolutionResult.
func (r *Resolver) ResolveAll(refs []model.UnresolvedRef) model.ResolutionResult {
	result := model.ResolutionResult{Total: len(refs)}
	for _, uref := range refs {
		if resolved, ok := r.ResolveOne(uref); ok {
			result.Resolved = append(result.Resolved, resolved)
		} else {
			result.Unresolved = append(result.Unresolved, uref)
		}
	}
	result.ResolvedCount = len(result.Resolved)
	return result
}

// CreateEdges converts resolved references into graph edges.
func CreateEdges(resolved []model.ResolvedRef) []model.Edge {
	edges := make([]model.Edge, 0, len(resolved))
	for _, r := range resolved {
		edges = append(edges, model.Edge{
			Source: r.Original.FromNodeID, Target: r.TargetNodeID,
			Kind: r.Original.ReferenceKind, Line: r.Original.Line, HasLine: true,
		})
	}
	return edges
}

func (r *Resolver) tryQualifiedMatch(uref model.UnresolvedRef) (model.ResolvedRef, bool) {
	if candidates, ok := r.byQualifiedName[uref.ReferenceName]; ok && len(candidates) > 0 {
		return resolvedRef(uref, candidates[0].ID, confidenceQualified, tagQualifiedMatch), true
	}
	// Suffix match: a qualified name ending with the reference name, e.g.
	// reference "types::Node" matching "crate::types::Node".
	for qname, candidates := range r.byQualifiedName {
		if len(candidates) == 0 {
			continue
		}
		if strings.HasSuffix(qname, uref.ReferenceName) {
			return resolvedRef(uref, candidates[0].ID, confidenceQualified, tagQualifiedMatch), true
		}
	}
	return model.ResolvedRef{}, false
}

func (r *Resolver) tryExactNameMatch(uref model.UnresolvedRef) (model.ResolvedRef, bool) {
	candidates, ok := r.byName[uref.ReferenceName]
	if !ok || len(candidates) == 0 {
		return model.ResolvedRef{}, false
	}
	if len(candidates) == 1 {
		return resolvedRef(uref, candidates[0].ID, confidenceExactOne, tagExactMatch), true
	}
	best, ok := findBestMatch(uref, candidates)
	if !ok {
		return model.ResolvedRef{}, false
	}
	return resolvedRef(uref, best.ID, confidenceScored, tagExactMatch), true
}

// findBestMatch scores candidates per resolver.rs's find_best_match:
// same-file +100 plus line-proximity bonus max(0, 20 - distance/10);
// Pub visibility +10; callable kind when the ref is a Calls reference +25.
func findBestMatch(uref model.UnresolvedRef, candidates []model.Node) (model.Node, bool) {
	if len(candidates) == 0 {
		return model.Node{}, false
	}
	bestScore := int64(-1 << 62)
	var best model.Node
	found := false

	for _, n := range candidates {
		var score int64

		if n.FilePath == uref.FilePath {
			score += 100
			distance := absDiff(n.StartLine, uref.Line)
			proximity := int64(20) - int64(distance)/10
			if proximity > 0 {
				score += proximity
			}
		}

		if n.Visibility == model.VisibilityPub {
			score += 10
		}

		if uref.ReferenceKind == model.EdgeCalls && n.Kind.IsCallable() {
			score += 25
		}

		if score > bestScore {
			bestScore = score
			best = n
			found = true
		}
	}
	return best, found
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

func resolvedRef(uref model.UnresolvedRef, targetID string, confidence float64, tag string) model.ResolvedRef {
	return model.ResolvedRef{
		Original: uref, TargetNodeID: targetID, Confidence: confidence, ResolvedBy: tag,
	}
}
