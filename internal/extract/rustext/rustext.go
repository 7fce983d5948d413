// Package rustext is the language extractor for the impl/trait-based
// language family (spec.md §4.2's Rust-shaped policy), grounded in the same
// tree-sitter query idiom as goext but driving impl/trait/derive semantics
// instead of Go's package/struct semantics.
package rustext

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/ternarybob/codegraph/internal/extract"
	"github.com/ternarybob/codegraph/internal/model"
)

// Extractor implements extract.LanguageExtractor for Rust-like source.
type Extractor struct{}

func New() *Extractor { return &Extractor{} }

func (e *Extractor) Extensions() []string { return []string{"rs"} }

func (e *Extractor) LanguageName() string { return "rust" }

func (e *Extractor) Extract(filePath string, source []byte) model.ExtractionResult {
	st := extract.NewState(filePath, source)

	fileID := model.GenerateNodeID(filePath, model.NodeFile, filePath, 0)
	st.AddNode(model.Node{
		ID: fileID, Kind: model.NodeFile, Name: filePath, QualifiedName: filePath,
		FilePath: filePath, Visibility: model.VisibilityPub, UpdatedAt: st.StartedAt.Unix(),
	})
	st.Push(filePath, fileID)

	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		st.AddError(&model.ParseError{Path: filePath, Line: -1, Err: errNilTree})
		return st.Result()
	}
	root := tree.RootNode()
	lang := rust.GetLanguage()

	walkFreeFunctions(st, root, source, lang)
	walkStructs(st, root, source, lang)
	walkEnums(st, root, source, lang)
	walkTraits(st, root, source, lang)
	walkImpls(st, root, source, lang)

	st.Pop()
	return st.Result()
}

var errNilTree = &nilTreeError{}

type nilTreeError struct{}

func (*nilTreeError) Error() string { return "tree-sitter returned no tree" }

func queryAll(node *sitter.Node, source []byte, lang *sitter.Language, q string) []*sitter.QueryMatch {
	query, err := sitter.NewQuery([]byte(q), lang)
	if err != nil {
		return nil
	}
	defer query.Close()
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, node)

	var out []*sitter.QueryMatch
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		out = append(out, m)
	}
	return out
}

func text(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(source) || start > end {
		return ""
	}
	return string(source[start:end])
}

// isDirectChildOf reports whether n's immediate parent is parent, used so
// direct (non-query-filtered) structural walks don't descend into
// impl/trait bodies a dedicated walker already handles.
func isDirectChildOf(n, parent *sitter.Node) bool {
	p := n.Parent()
	return p != nil && p.Equal(parent)
}

func walkFreeFunctions(st *extract.State, root *sitter.Node, source []byte, lang *sitter.Language) {
	matches := queryAll(root, source, lang, `(function_item name: (identifier) @name body: (block) @body) @fn`)
	for _, m := range matches {
		var nameNode, bodyNode, fnNode *sitter.Node
		for i := range m.Captures {
			c := m.Captures[i]
			switch c.Node.Type() {
			case "identifier":
				nameNode = c.Node
			case "block":
				bodyNode = c.Node
			default:
				fnNode = c.Node
			}
		}
		if nameNode == nil || fnNode == nil {
			continue
		}
		if !isDirectChildOf(fnNode, root) {
			continue // methods inside impl/trait bodies are handled separately
		}
		addFunctionLike(st, nameNode, bodyNode, fnNode, source, model.NodeFunction)
	}
}

func addFunctionLike(st *extract.State, nameNode, bodyNode, declNode *sitter.Node, source []byte, kind model.NodeKind) string {
	name := text(nameNode, source)
	line := nameNode.StartPoint().Row
	endLine := line
	if bodyNode != nil {
		endLine = bodyNode.EndPoint().Row
	}
	id := model.GenerateNodeID(st.FilePath, kind, name, line)
	isAsync := strings.Contains(signaturePrefix(declNode, source), "async ")
	st.AddNode(model.Node{
		ID: id, Kind: kind, Name: name, QualifiedName: st.QualifiedName(name),
		FilePath: st.FilePath, StartLine: line, EndLine: endLine,
		Signature: signaturePrefix(declNode, source), Visibility: visibilityOf(declNode, source),
		IsAsync: isAsync, Docstring: docstringAbove(declNode, source), UpdatedAt: st.StartedAt.Unix(),
	})
	if bodyNode != nil {
		extractCallSites(st, bodyNode, source, id)
	}
	return id
}

func signaturePrefix(decl *sitter.Node, source []byte) string {
	body := decl.ChildByFieldName("body")
	start := decl.StartByte()
	var end uint32
	if body != nil {
		end = body.StartByte()
	} else {
		end = decl.EndByte()
	}
	if int(end) > len(source) || start > end {
		return ""
	}
	return strings.TrimSpace(string(source[start:end]))
}

func visibilityOf(decl *sitter.Node, source []byte) model.Visibility {
	sig := signaturePrefix(decl, source)
	switch {
	case strings.HasPrefix(sig, "pub(crate)"):
		return model.VisibilityPubCrate
	case strings.HasPrefix(sig, "pub"):
		return model.VisibilityPub
	default:
		return model.VisibilityPrivate
	}
}

func walkStructs(st *extract.State, root *sitter.Node, source []byte, lang *sitter.Language) {
	matches := queryAll(root, source, lang, `(struct_item name: (type_identifier) @name) @decl`)
	for _, m := range matches {
		var nameNode, declNode *sitter.Node
		for i := range m.Captures {
			c := m.Captures[i]
			if c.Node.Type() == "type_identifier" {
				nameNode = c.Node
			} else {
				declNode = c.Node
			}
		}
		if nameNode == nil || declNode == nil {
			continue
		}
		name := text(nameNode, source)
		line := nameNode.StartPoint().Row
		id := model.GenerateNodeID(st.FilePath, model.NodeStruct, name, line)
		st.AddNode(model.Node{
			ID: id, Kind: model.NodeStruct, Name: name, QualifiedName: st.QualifiedName(name),
			FilePath: st.FilePath, StartLine: line, EndLine: declNode.EndPoint().Row,
			Visibility: visibilityOf(declNode, source), Docstring: docstringAbove(declNode, source),
			UpdatedAt: st.StartedAt.Unix(),
		})
		extractDerives(st, declNode, source, id)
	}
}

func walkEnums(st *extract.State, root *sitter.Node, source []byte, lang *sitter.Language) {
	matches := queryAll(root, source, lang, `
		(enum_item name: (type_identifier) @name body: (enum_variant_list) @body) @decl
	`)
	for _, m := range matches {
		var nameNode, bodyNode, declNode *sitter.Node
		for i := range m.Captures {
			c := m.Captures[i]
			switch c.Node.Type() {
			case "type_identifier":
				nameNode = c.Node
			case "enum_variant_list":
				bodyNode = c.Node
			default:
				declNode = c.Node
			}
		}
		if nameNode == nil || declNode == nil {
			continue
		}
		name := text(nameNode, source)
		line := nameNode.StartPoint().Row
		id := model.GenerateNodeID(st.FilePath, model.NodeEnum, name, line)
		st.AddNode(model.Node{
			ID: id, Kind: model.NodeEnum, Name: name, QualifiedName: st.QualifiedName(name),
			FilePath: st.FilePath, StartLine: line, EndLine: declNode.EndPoint().Row,
			Visibility: visibilityOf(declNode, source), Docstring: docstringAbove(declNode, source),
			UpdatedAt: st.StartedAt.Unix(),
		})
		extractDerives(st, declNode, source, id)
		if bodyNode != nil {
			st.Push(name, id)
			walkEnumVariants(st, bodyNode, source, lang)
			st.Pop()
		}
	}
}

func walkEnumVariants(st *extract.State, body *sitter.Node, source []byte, lang *sitter.Language) {
	matches := queryAll(body, source, lang, `(enum_variant name: (identifier) @vname)`)
	for _, m := range matches {
		for _, c := range m.Captures {
			name := text(c.Node, source)
			line := c.Node.StartPoint().Row
			id := model.GenerateNodeID(st.FilePath, model.NodeEnumVariant, name, line)
			st.AddNode(model.Node{
				ID: id, Kind: model.NodeEnumVariant, Name: name, QualifiedName: st.QualifiedName(name),
				FilePath: st.FilePath, StartLine: line, EndLine: line,
				Visibility: model.VisibilityPub, UpdatedAt: st.StartedAt.Unix(),
			})
		}
	}
}

func walkTraits(st *extract.State, root *sitter.Node, source []byte, lang *sitter.Language) {
	matches := queryAll(root, source, lang, `
		(trait_item name: (type_identifier) @name body: (declaration_list) @body) @decl
	`)
	for _, m := range matches {
		var nameNode, bodyNode, declNode *sitter.Node
		for i := range m.Captures {
			c := m.Captures[i]
			switch c.Node.Type() {
			case "type_identifier":
				nameNode = c.Node
			case "declaration_list":
				bodyNode = c.Node
			default:
				declNode = c.Node
			}
		}
		if nameNode == nil || bodyNode == nil {
			continue
		}
		name := text(nameNode, source)
		line := nameNode.StartPoint().Row
		id := model.GenerateNodeID(st.FilePath, model.NodeTrait, name, line)
		st.AddNode(model.Node{
			ID: id, Kind: model.NodeTrait, Name: name, QualifiedName: st.QualifiedName(name),
			FilePath: st.FilePath, StartLine: line, EndLine: bodyNode.EndPoint().Row,
			Visibility: visibilityOf(declNode, source), Docstring: docstringAbove(declNode, source),
			UpdatedAt: st.StartedAt.Unix(),
		})
		st.Push(name, id)
		walkMethodsIn(st, bodyNode, source, lang)
		st.Pop()
	}
}

func walkImpls(st *extract.State, root *sitter.Node, source []byte, lang *sitter.Language) {
	matches := queryAll(root, source, lang, `
		(impl_item type: (type_identifier) @type body: (declaration_list) @body) @decl
	`)
	for _, m := range matches {
		var typeNode, bodyNode, declNode *sitter.Node
		for i := range m.Captures {
			c := m.Captures[i]
			switch c.Node.Type() {
			case "type_identifier":
				typeNode = c.Node
			case "declaration_list":
				bodyNode = c.Node
			default:
				declNode = c.Node
			}
		}
		if typeNode == nil || bodyNode == nil {
			continue
		}
		typeName := text(typeNode, source)
		traitNode := declNode.ChildByFieldName("trait")
		name := typeName
		if traitNode != nil {
			name = text(traitNode, source) + " for " + typeName
		}
		line := declNode.StartPoint().Row
		id := model.GenerateNodeID(st.FilePath, model.NodeImpl, name, line)
		st.AddNode(model.Node{
			ID: id, Kind: model.NodeImpl, Name: name, QualifiedName: st.QualifiedName(name),
			FilePath: st.FilePath, StartLine: line, EndLine: bodyNode.EndPoint().Row,
			Visibility: model.VisibilityPub, UpdatedAt: st.StartedAt.Unix(),
		})
		if traitNode != nil {
			st.AddUnresolvedRef(model.UnresolvedRef{
				FromNodeID: id, ReferenceName: text(traitNode, source),
				ReferenceKind: model.EdgeImplements, Line: line, FilePath: st.FilePath,
			})
		}
		st.Push(typeName, id)
		walkMethodsIn(st, bodyNode, source, lang)
		st.Pop()
	}
}

func walkMethodsIn(st *extract.State, body *sitter.Node, source []byte, lang *sitter.Language) {
	matches := queryAll(body, source, lang, `
		(function_item name: (identifier) @name body: (block) @body) @fn
		(function_signature_item name: (identifier) @signame) @sigdecl
	`)
	for _, m := range matches {
		var nameNode, bodyNode, declNode *sitter.Node
		for i := range m.Captures {
			c := m.Captures[i]
			switch c.Node.Type() {
			case "identifier":
				nameNode = c.Node
			case "block":
				bodyNode = c.Node
			default:
				declNode = c.Node
			}
		}
		if nameNode == nil || declNode == nil {
			continue
		}
		if !isDirectChildOf(declNode, body) {
			continue
		}
		addFunctionLike(st, nameNode, bodyNode, declNode, source, model.NodeMethod)
	}
}

func extractDerives(st *extract.State, decl *sitter.Node, source []byte, fromID string) {
	cur := decl.PrevSibling()
	for cur != nil {
		if cur.Type() != "attribute_item" {
			break
		}
		attrText := text(cur, source)
		if strings.Contains(attrText, "derive") {
			inner := attrText
			if start := strings.Index(inner, "("); start >= 0 {
				if end := strings.LastIndex(inner, ")"); end > start {
					inner = inner[start+1 : end]
				}
			}
			for _, name := range strings.Split(inner, ",") {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				st.AddUnresolvedRef(model.UnresolvedRef{
					FromNodeID: fromID, ReferenceName: name, ReferenceKind: model.EdgeDerivesMacro,
					Line: cur.StartPoint().Row, FilePath: st.FilePath,
				})
			}
		}
		cur = cur.PrevSibling()
	}
}

func extractCallSites(st *extract.State, body *sitter.Node, source []byte, fromID string) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "closure_expression" {
			return
		}
		switch n.Type() {
		case "call_expression":
			if fn := n.ChildByFieldName("function"); fn != nil {
				if name := calleeName(fn, source); name != "" {
					st.AddUnresolvedRef(model.UnresolvedRef{
						FromNodeID: fromID, ReferenceName: name, ReferenceKind: model.EdgeCalls,
						Line: n.StartPoint().Row, FilePath: st.FilePath,
					})
				}
			}
		case "macro_invocation":
			if m := n.ChildByFieldName("macro"); m != nil {
				st.AddUnresolvedRef(model.UnresolvedRef{
					FromNodeID: fromID, ReferenceName: text(m, source), ReferenceKind: model.EdgeCalls,
					Line: n.StartPoint().Row, FilePath: st.FilePath,
				})
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
}

func calleeName(fn *sitter.Node, source []byte) string {
	switch fn.Type() {
	case "identifier":
		return text(fn, source)
	case "field_expression":
		if field := fn.ChildByFieldName("field"); field != nil {
			return text(field, source)
		}
	case "scoped_identifier":
		if name := fn.ChildByFieldName("name"); name != nil {
			return text(name, source)
		}
	}
	return ""
}

func docstringAbove(n *sitter.Node, source []byte) string {
	var lines []string
	cur := n.PrevSibling()
	for cur != nil && (cur.Type() == "line_comment" || cur.Type() == "block_comment" || cur.Type() == "attribute_item") {
		if cur.Type() == "attribute_item" {
			cur = cur.PrevSibling()
			continue
		}
		lines = append([]string{cleanComment(text(cur, source))}, lines...)
		cur = cur.PrevSibling()
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func cleanComment(s string) string {
	s = strings.TrimPrefix(s, "///")
	s = strings.TrimPrefix(s, "//!")
	s = strings.TrimPrefix(s, "//")
	s = strings.TrimPrefix(s, "/**")
	s = strings.TrimPrefix(s, "/*")
	s = strings.TrimSuffix(s, "*/")
	return strings.TrimSpace(s)
}
