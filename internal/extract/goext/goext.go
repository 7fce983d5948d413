// Package goext is the language extractor for the package-based,
// uppercase-exported-convention language family (spec.md §4.2's "package-based
// language with uppercase-exported convention" policy), grounded in the
// teacher's tree-sitter query idiom (internal/ingest/sitter_walker.go,
// internal/ingest/engine.go's extractGoPackageName) but driving the
// SPEC_FULL node/edge/unresolved-ref schema instead of the teacher's
// arbitrary JSON-schema-driven ingestion.
package goext

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/ternarybob/codegraph/internal/extract"
	"github.com/ternarybob/codegraph/internal/model"
)

// Extractor implements extract.LanguageExtractor for Go-like source.
type Extractor struct{}

// New returns a ready-to-register Go extractor.
func New() *Extractor { return &Extractor{} }

func (e *Extractor) Extensions() []string { return []string{"go"} }

func (e *Extractor) LanguageName() string { return "go" }

func (e *Extractor) Extract(filePath string, source []byte) model.ExtractionResult {
	st := extract.NewState(filePath, source)

	fileID := model.GenerateNodeID(filePath, model.NodeFile, filePath, 0)
	st.AddNode(model.Node{
		ID: fileID, Kind: model.NodeFile, Name: filePath, QualifiedName: filePath,
		FilePath: filePath, Visibility: model.VisibilityPub, UpdatedAt: st.StartedAt.Unix(),
	})
	st.Push(filePath, fileID)

	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		st.AddError(&model.ParseError{Path: filePath, Line: -1, Err: errOrDefault(err)})
		return st.Result()
	}
	root := tree.RootNode()
	lang := golang.GetLanguage()

	walkPackageClause(st, root, source, lang)
	walkImports(st, root, source, lang)
	walkTypeDecls(st, root, source, lang)
	walkFunctions(st, root, source, lang)

	st.Pop()
	return st.Result()
}

func errOrDefault(err error) error {
	if err != nil {
		return err
	}
	return errNilTree
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

func captureText(c sitter.QueryCapture, source []byte) string {
	start, end := c.Node.StartByte(), c.Node.EndByte()
	if int(end) > len(source) || start > end {
		return ""
	}
	return string(source[start:end])
}

func walkPackageClause(st *extract.State, root *sitter.Node, source []byte, lang *sitter.Language) {
	matches := queryAll(root, source, lang, `(package_clause (package_identifier) @pkg)`)
	for _, m := range matches {
		for _, c := range m.Captures {
			name := captureText(c, source)
			line := c.Node.StartPoint().Row
			id := model.GenerateNodeID(st.FilePath, model.NodeGoPackage, name, line)
			st.AddNode(model.Node{
				ID: id, Kind: model.NodeGoPackage, Name: name,
				QualifiedName: st.QualifiedName(name), FilePath: st.FilePath,
				StartLine: line, EndLine: line, Visibility: model.VisibilityPub,
				UpdatedAt: st.StartedAt.Unix(),
			})
		}
	}
}

func walkImports(st *extract.State, root *sitter.Node, source []byte, lang *sitter.Language) {
	matches := queryAll(root, source, lang, `(import_spec path: (interpreted_string_literal) @path)`)
	for _, m := range matches {
		for _, c := range m.Captures {
			pathLit := strings.Trim(captureText(c, source), `"`)
			line := c.Node.StartPoint().Row
			id := model.GenerateNodeID(st.FilePath, model.NodeUse, pathLit, line)
			st.AddNode(model.Node{
				ID: id, Kind: model.NodeUse, Name: pathLit,
				QualifiedName: st.QualifiedName(pathLit), FilePath: st.FilePath,
				StartLine: line, EndLine: line, Visibility: model.VisibilityPrivate,
				UpdatedAt: st.StartedAt.Unix(),
			})
			st.AddUnresolvedRef(model.UnresolvedRef{
				FromNodeID: id, ReferenceName: pathLit, ReferenceKind: model.EdgeUses,
				Line: line, FilePath: st.FilePath,
			})
		}
	}
}

func walkTypeDecls(st *extract.State, root *sitter.Node, source []byte, lang *sitter.Language) {
	matches := queryAll(root, source, lang, `
		(type_declaration (type_spec name: (type_identifier) @name type: (struct_type) @struct))
		(type_declaration (type_spec name: (type_identifier) @iname type: (interface_type) @iface))
	`)
	for _, m := range matches {
		var nameCap, bodyCap *sitter.QueryCapture
		var isInterface bool
		for i := range m.Captures {
			c := &m.Captures[i]
			switch query(c, m) {
			case "name", "iname":
				nameCap = c
			case "struct":
				bodyCap = c
			case "iface":
				bodyCap = c
				isInterface = true
			}
		}
		if nameCap == nil || bodyCap == nil {
			continue
		}
		name := captureText(*nameCap, source)
		line := nameCap.Node.StartPoint().Row
		endLine := bodyCap.Node.EndPoint().Row
		kind := model.NodeStruct
		if isInterface {
			kind = model.NodeInterfaceType
		}
		id := model.GenerateNodeID(st.FilePath, kind, name, line)
		st.AddNode(model.Node{
			ID: id, Kind: kind, Name: name, QualifiedName: st.QualifiedName(name),
			FilePath: st.FilePath, StartLine: line, EndLine: endLine,
			Visibility: visibilityOf(name), Docstring: docstringAbove(nameCap.Node, source),
			UpdatedAt: st.StartedAt.Unix(),
		})
		st.Push(name, id)
		if isInterface {
			walkInterfaceEmbeds(st, bodyCap.Node, source, lang, id)
		} else {
			walkStructFields(st, bodyCap.Node, source, lang)
		}
		st.Pop()
	}
}

// query is a small helper resolving which named capture in m a given
// capture corresponds to, by capture index position parity with Captures
// ordering — go-tree-sitter exposes capture names via the originating
// Query, not the match, so callers that need names pass the query text's
// capture order implicitly. Here we recover it structurally instead: the
// two query alternatives above only ever produce the pairs (name,struct)
// or (iname,iface), in that order, so capture index within the match is
// sufficient.
func query(c *sitter.QueryCapture, m *sitter.QueryMatch) string {
	idx := -1
	for i := range m.Captures {
		if &m.Captures[i] == c {
			idx = i
			break
		}
	}
	if idx == 0 {
		if m.Captures[0].Node.Type() == "type_identifier" {
			// Disambiguate name vs iname by checking the sibling body kind.
			if len(m.Captures) > 1 && m.Captures[1].Node.Type() == "interface_type" {
				return "iname"
			}
			return "name"
		}
	}
	if idx == 1 {
		if m.Captures[1].Node.Type() == "interface_type" {
			return "iface"
		}
		return "struct"
	}
	return ""
}

func walkStructFields(st *extract.State, body *sitter.Node, source []byte, lang *sitter.Language) {
	matches := queryAll(body, source, lang, `
		(field_declaration name: (field_identifier) @fname tag: (raw_string_literal)? @tag)
	`)
	for _, m := range matches {
		var nameCap, tagCap *sitter.QueryCapture
		for i := range m.Captures {
			c := &m.Captures[i]
			if c.Node.Type() == "raw_string_literal" {
				tagCap = c
			} else {
				nameCap = c
			}
		}
		if nameCap == nil {
			continue
		}
		name := captureText(*nameCap, source)
		line := nameCap.Node.StartPoint().Row
		id := model.GenerateNodeID(st.FilePath, model.NodeField, name, line)
		st.AddNode(model.Node{
			ID: id, Kind: model.NodeField, Name: name, QualifiedName: st.QualifiedName(name),
			FilePath: st.FilePath, StartLine: line, EndLine: line,
			Visibility: visibilityOf(name), UpdatedAt: st.StartedAt.Unix(),
		})
		if tagCap != nil {
			tagText := captureText(*tagCap, source)
			tagLine := tagCap.Node.StartPoint().Row
			tagID := model.GenerateNodeID(st.FilePath, model.NodeStructTag, tagText, tagLine)
			st.Push(name, id)
			st.AddNode(model.Node{
				ID: tagID, Kind: model.NodeStructTag, Name: tagText,
				QualifiedName: st.QualifiedName(tagText), FilePath: st.FilePath,
				StartLine: tagLine, EndLine: tagLine, Visibility: model.VisibilityPrivate,
				UpdatedAt: st.StartedAt.Unix(),
			})
			st.Pop()
		}
	}
}

func walkInterfaceEmbeds(st *extract.State, body *sitter.Node, source []byte, lang *sitter.Language, ifaceID string) {
	matches := queryAll(body, source, lang, `(interface_type (type_identifier) @embed)`)
	for _, m := range matches {
		for _, c := range m.Captures {
			name := captureText(c, source)
			line := c.Node.StartPoint().Row
			st.AddUnresolvedRef(model.UnresolvedRef{
				FromNodeID: ifaceID, ReferenceName: name, ReferenceKind: model.EdgeExtends,
				Line: line, FilePath: st.FilePath,
			})
		}
	}
}

func walkFunctions(st *extract.State, root *sitter.Node, source []byte, lang *sitter.Language) {
	matches := queryAll(root, source, lang, `
		(function_declaration name: (identifier) @fname body: (block) @body) @decl
		(method_declaration
			receiver: (parameter_list (parameter_declaration type: (_) @rtype))
			name: (field_identifier) @mname body: (block) @mbody) @mdecl
	`)
	for _, m := range matches {
		var nameCap, bodyCap, declCap, receiverCap *sitter.QueryCapture
		isMethod := false
		for i := range m.Captures {
			c := &m.Captures[i]
			switch c.Node.Type() {
			case "identifier":
				nameCap = c
			case "field_identifier":
				nameCap = c
				isMethod = true
			case "block":
				bodyCap = c
			case "function_declaration", "method_declaration":
				declCap = c
			}
			if c.Node.Type() == "pointer_type" || c.Node.Type() == "type_identifier" {
				receiverCap = c
			}
		}
		if nameCap == nil {
			continue
		}
		name := captureText(*nameCap, source)
		line := nameCap.Node.StartPoint().Row
		endLine := line
		if bodyCap != nil {
			endLine = bodyCap.Node.EndPoint().Row
		}
		kind := model.NodeFunction
		if isMethod {
			kind = model.NodeStructMethod
		}
		id := model.GenerateNodeID(st.FilePath, kind, name, line)
		sig := signatureUpTo(nameCap.Node, bodyCap, source)
		docNode := nameCap.Node
		if declCap != nil {
			docNode = declCap.Node
		}
		st.AddNode(model.Node{
			ID: id, Kind: kind, Name: name, QualifiedName: st.QualifiedName(name),
			FilePath: st.FilePath, StartLine: line, EndLine: endLine,
			Signature: sig, Visibility: visibilityOf(name),
			Docstring: docstringAbove(docNode, source), UpdatedAt: st.StartedAt.Unix(),
		})
		if isMethod && receiverCap != nil {
			recvName := strings.TrimPrefix(captureText(*receiverCap, source), "*")
			st.AddUnresolvedRef(model.UnresolvedRef{
				FromNodeID: id, ReferenceName: recvName, ReferenceKind: model.EdgeReceives,
				Line: line, FilePath: st.FilePath,
			})
		}
		if bodyCap != nil {
			extractCallSites(st, bodyCap.Node, source, lang, id)
		}
	}
}

// extractCallSites walks call_expression nodes inside body, recording each
// as an unresolved Calls ref, but does not descend into nested function
// literals (spec.md §4.2's universal call-site-extraction rule).
func extractCallSites(st *extract.State, body *sitter.Node, source []byte, lang *sitter.Language, fromID string) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "func_literal" {
			return // do not contaminate the outer function's call set
		}
		if n.Type() == "call_expression" {
			if fn := n.ChildByFieldName("function"); fn != nil {
				name := calleeName(fn, source)
				if name != "" {
					st.AddUnresolvedRef(model.UnresolvedRef{
						FromNodeID: fromID, ReferenceName: name, ReferenceKind: model.EdgeCalls,
						Line: n.StartPoint().Row, FilePath: st.FilePath,
					})
				}
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
		return string(source[fn.StartByte():fn.EndByte()])
	case "selector_expression":
		if field := fn.ChildByFieldName("field"); field != nil {
			return string(source[field.StartByte():field.EndByte()])
		}
	}
	return ""
}

func visibilityOf(name string) model.Visibility {
	if name == "" {
		return model.VisibilityPrivate
	}
	r := rune(name[0])
	if r >= 'A' && r <= 'Z' {
		return model.VisibilityPub
	}
	return model.VisibilityPrivate
}

func signatureUpTo(nameNode *sitter.Node, body *sitter.QueryCapture, source []byte) string {
	start := nameNode.StartByte()
	var end uint32
	if body != nil {
		end = body.Node.StartByte()
	} else {
		end = nameNode.EndByte()
	}
	if int(end) > len(source) || start > end {
		return ""
	}
	return strings.TrimSpace(string(source[start:end]))
}

// docstringAbove walks backwards over immediately-preceding comment
// siblings of n, stripping comment markers, and joins the cleaned lines
// (spec.md §4.2's docstring-extraction rule).
func docstringAbove(n *sitter.Node, source []byte) string {
	var lines []string
	cur := n.PrevSibling()
	for cur != nil && cur.Type() == "comment" {
		text := string(source[cur.StartByte():cur.EndByte()])
		lines = append([]string{cleanComment(text)}, lines...)
		cur = cur.PrevSibling()
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func cleanComment(s string) string {
	s = strings.TrimPrefix(s, "///")
	s = strings.TrimPrefix(s, "//")
	s = strings.TrimPrefix(s, "/**")
	s = strings.TrimPrefix(s, "/*")
	s = strings.TrimSuffix(s, "*/")
	s = strings.TrimPrefix(s, "*")
	return strings.TrimSpace(s)
}
