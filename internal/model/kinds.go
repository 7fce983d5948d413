// Package model holds the shared, language-neutral record types that flow
// through every other package: node and edge kinds, the node/edge/file/ref
// records themselves, and the deterministic ID scheme that ties them
// together.
package model

// NodeKind tags the kind of code entity a Node represents. The set is
// closed: extractors never invent new kinds, and callers may safely switch
// exhaustively over it.
type NodeKind string

const (
	NodeFile            NodeKind = "file"
	NodeModule          NodeKind = "module"
	NodeClass           NodeKind = "class"
	NodeInnerClass      NodeKind = "inner_class"
	NodeStruct          NodeKind = "struct"
	NodeEnum            NodeKind = "enum"
	NodeEnumVariant     NodeKind = "enum_variant"
	NodeTrait           NodeKind = "trait"
	NodeInterface       NodeKind = "interface"
	NodeInterfaceType   NodeKind = "interface_type"
	NodeAnnotation      NodeKind = "annotation"
	NodeAnnotationUsage NodeKind = "annotation_usage"
	NodeFunction        NodeKind = "function"
	NodeMethod          NodeKind = "method"
	NodeStructMethod    NodeKind = "struct_method"
	NodeAbstractMethod  NodeKind = "abstract_method"
	NodeConstructor     NodeKind = "constructor"
	NodeImpl            NodeKind = "impl"
	NodeField           NodeKind = "field"
	NodeConst           NodeKind = "const"
	NodeStatic          NodeKind = "static"
	NodeTypeAlias       NodeKind = "type_alias"
	NodeGenericParam    NodeKind = "generic_param"
	NodeInitBlock       NodeKind = "init_block"
	NodeStructTag       NodeKind = "struct_tag"
	NodeMacro           NodeKind = "macro"
	NodeUse             NodeKind = "use"
	NodeGoPackage       NodeKind = "go_package"
)

// String returns the wire/storage representation of the kind.
func (k NodeKind) String() string { return string(k) }

// ParseNodeKind parses the storage representation of a NodeKind, falling
// back to NodeFunction for unrecognized values — mirroring the teacher's
// and the original implementation's tolerant `unwrap_or(NodeKind::Function)`
// row-mapping behavior rather than failing a whole query over one bad row.
func ParseNodeKind(s string) NodeKind {
	switch NodeKind(s) {
	case NodeFile, NodeModule, NodeClass, NodeInnerClass, NodeStruct, NodeEnum,
		NodeEnumVariant, NodeTrait, NodeInterface, NodeInterfaceType, NodeAnnotation,
		NodeAnnotationUsage, NodeFunction, NodeMethod, NodeStructMethod,
		NodeAbstractMethod, NodeConstructor, NodeImpl, NodeField, NodeConst,
		NodeStatic, NodeTypeAlias, NodeGenericParam, NodeInitBlock, NodeStructTag,
		NodeMacro, NodeUse, NodeGoPackage:
		return NodeKind(s)
	default:
		return NodeFunction
	}
}

// IsCallable reports whether a node of this kind can be the target of a
// Calls edge — used by the resolver's scoring heuristic.
func (k NodeKind) IsCallable() bool {
	switch k {
	case NodeFunction, NodeMethod, NodeStructMethod, NodeConstructor, NodeAbstractMethod:
		return true
	default:
		return false
	}
}

// EdgeKind tags the kind of relationship an Edge represents.
type EdgeKind string

const (
	EdgeContains     EdgeKind = "contains"
	EdgeCalls        EdgeKind = "calls"
	EdgeUses         EdgeKind = "uses"
	EdgeImplements   EdgeKind = "implements"
	EdgeExtends      EdgeKind = "extends"
	EdgeTypeOf       EdgeKind = "type_of"
	EdgeReturns      EdgeKind = "returns"
	EdgeDerivesMacro EdgeKind = "derives_macro"
	EdgeAnnotates    EdgeKind = "annotates"
	EdgeReceives     EdgeKind = "receives"
)

func (k EdgeKind) String() string { return string(k) }

// ParseEdgeKind parses the storage representation of an EdgeKind, falling
// back to EdgeUses for unrecognized values (same tolerant-row-mapping
// rationale as ParseNodeKind).
func ParseEdgeKind(s string) EdgeKind {
	switch EdgeKind(s) {
	case EdgeContains, EdgeCalls, EdgeUses, EdgeImplements, EdgeExtends,
		EdgeTypeOf, EdgeReturns, EdgeDerivesMacro, EdgeAnnotates, EdgeReceives:
		return EdgeKind(s)
	default:
		return EdgeUses
	}
}

// Visibility describes the accessibility of a declaration.
type Visibility string

const (
	VisibilityPub      Visibility = "public"
	VisibilityPubCrate Visibility = "pub_crate"
	VisibilityPubSuper Visibility = "pub_super"
	VisibilityPrivate  Visibility = "private"
)

func (v Visibility) String() string { return string(v) }

// ParseVisibility parses the storage representation of a Visibility,
// defaulting to Private for unrecognized input.
func ParseVisibility(s string) Visibility {
	switch s {
	case "public", "pub":
		return VisibilityPub
	case "pub_crate":
		return VisibilityPubCrate
	case "pub_super":
		return VisibilityPubSuper
	default:
		return VisibilityPrivate
	}
}

// TraversalDirection selects which edges a traversal follows relative to
// the current node.
type TraversalDirection string

const (
	DirOutgoing TraversalDirection = "outgoing"
	DirIncoming TraversalDirection = "incoming"
	DirBoth     TraversalDirection = "both"
)

// OutputFormat selects how a TaskContext is rendered for a caller.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatJSON     OutputFormat = "json"
)
