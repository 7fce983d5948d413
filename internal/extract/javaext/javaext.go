// Package javaext is the language extractor for the class/interface-based,
// explicit-modifier-visibility language family (spec.md §4.2's Java-shaped
// policy), grounded in the same tree-sitter query idiom as goext/rustext.
package javaext

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/ternarybob/codegraph/internal/extract"
	"github.com/ternarybob/codegraph/internal/model"
)

// Extractor implements extract.LanguageExtractor for Java-like source.
type Extractor struct{}

func New() *Extractor { return &Extractor{} }

func (e *Extractor) Extensions() []string { return []string{"java"} }

func (e *Extractor) LanguageName() string { return "java" }

func (e *Extractor) Extract(filePath string, source []byte) model.ExtractionResult {
	st := extract.NewState(filePath, source)

	fileID := model.GenerateNodeID(filePath, model.NodeFile, filePath, 0)
	st.AddNode(model.Node{
		ID: fileID, Kind: model.NodeFile, Name: filePath, QualifiedName: filePath,
		FilePath: filePath, Visibility: model.VisibilityPub, UpdatedAt: st.StartedAt.Unix(),
	})
	st.Push(filePath, fileID)

	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		st.AddError(&model.ParseError{Path: filePath, Line: -1, Err: errNilTree})
		return st.Result()
	}
	lang := java.GetLanguage()
	walkTypeBody(st, tree.RootNode(), source, lang, 0)

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

// walkTypeBody recurses over class/interface/enum declarations, choosing
// NodeClass/NodeInnerClass by depth (spec.md §4.2: depth-0 classes are
// Class, nested ones are InnerClass).
func walkTypeBody(st *extract.State, scope *sitter.Node, source []byte, lang *sitter.Language, depth int) {
	matches := queryAll(scope, source, lang, `
		(class_declaration name: (identifier) @cname body: (class_body) @cbody) @cdecl
		(interface_declaration name: (identifier) @iname body: (interface_body) @ibody) @idecl
		(enum_declaration name: (identifier) @ename body: (enum_body) @ebody) @edecl
	`)
	for _, m := range matches {
		var nameNode, bodyNode, declNode *sitter.Node
		kindTag := ""
		for i := range m.Captures {
			c := m.Captures[i]
			switch c.Node.Type() {
			case "identifier":
				nameNode = c.Node
			case "class_body":
				bodyNode = c.Node
				kindTag = "class"
			case "interface_body":
				bodyNode = c.Node
				kindTag = "interface"
			case "enum_body":
				bodyNode = c.Node
				kindTag = "enum"
			default:
				declNode = c.Node
			}
		}
		if nameNode == nil || bodyNode == nil || declNode == nil {
			continue
		}
		if !isDirectChildScope(declNode, scope) {
			continue
		}
		name := text(nameNode, source)
		line := nameNode.StartPoint().Row
		var kind model.NodeKind
		switch kindTag {
		case "interface":
			kind = model.NodeInterface
		case "enum":
			kind = model.NodeEnum
		default:
			if depth == 0 {
				kind = model.NodeClass
			} else {
				kind = model.NodeInnerClass
			}
		}
		id := model.GenerateNodeID(st.FilePath, kind, name, line)
		st.AddNode(model.Node{
			ID: id, Kind: kind, Name: name, QualifiedName: st.QualifiedName(name),
			FilePath: st.FilePath, StartLine: line, EndLine: bodyNode.EndPoint().Row,
			Visibility: visibilityOf(declNode, source), Docstring: docstringAbove(declNode, source),
			UpdatedAt: st.StartedAt.Unix(),
		})
		extractSupers(st, declNode, source, id)
		extractAnnotations(st, declNode, source, id)

		st.Push(name, id)
		walkMembers(st, bodyNode, source, lang)
		walkTypeBody(st, bodyNode, source, lang, depth+1)
		if kindTag == "enum" {
			walkEnumConstants(st, bodyNode, source, lang)
		}
		st.Pop()
	}
}

func isDirectChildScope(decl, scope *sitter.Node) bool {
	p := decl.Parent()
	if p == nil {
		return false
	}
	if p.Equal(scope) {
		return true
	}
	// class_body/interface_body wrap declarations one level inside scope
	// when scope itself is the body; Parent() already is that body node
	// in the common case, but declaration_list style wrappers differ per
	// construct, so also accept scope as grandparent.
	gp := p.Parent()
	return gp != nil && gp.Equal(scope)
}

func walkMembers(st *extract.State, body *sitter.Node, source []byte, lang *sitter.Language) {
	matches := queryAll(body, source, lang, `
		(method_declaration name: (identifier) @mname body: (block)? @mbody) @mdecl
		(constructor_declaration name: (identifier) @ctorname body: (constructor_body) @ctorbody) @ctordecl
		(field_declaration declarator: (variable_declarator name: (identifier) @fname)) @fdecl
		(static_initializer) @sinit
	`)
	for _, m := range matches {
		var nameNode, bodyNode, declNode *sitter.Node
		tag := ""
		for i := range m.Captures {
			c := m.Captures[i]
			switch c.Node.Type() {
			case "identifier":
				nameNode = c.Node
			case "block", "constructor_body":
				bodyNode = c.Node
			case "static_initializer":
				declNode = c.Node
				tag = "static_init"
			default:
				if declNode == nil {
					declNode = c.Node
				}
			}
		}
		if tag == "static_init" {
			line := declNode.StartPoint().Row
			id := model.GenerateNodeID(st.FilePath, model.NodeInitBlock, "static{}", line)
			st.AddNode(model.Node{
				ID: id, Kind: model.NodeInitBlock, Name: "static{}",
				QualifiedName: st.QualifiedName("static{}"), FilePath: st.FilePath,
				StartLine: line, EndLine: declNode.EndPoint().Row,
				Visibility: model.VisibilityPrivate, UpdatedAt: st.StartedAt.Unix(),
			})
			continue
		}
		if nameNode == nil || declNode == nil || !isDirectChildScope(declNode, body) {
			continue
		}
		switch declNode.Type() {
		case "method_declaration":
			addMethod(st, nameNode, bodyNode, declNode, source)
		case "constructor_declaration":
			addConstructor(st, nameNode, bodyNode, declNode, source)
		case "field_declaration":
			addField(st, nameNode, declNode, source)
		}
	}
}

func addMethod(st *extract.State, nameNode, bodyNode, decl *sitter.Node, source []byte) {
	name := text(nameNode, source)
	line := nameNode.StartPoint().Row
	endLine := line
	kind := model.NodeAbstractMethod
	if bodyNode != nil {
		endLine = bodyNode.EndPoint().Row
		kind = model.NodeMethod
	}
	id := model.GenerateNodeID(st.FilePath, kind, name, line)
	st.AddNode(model.Node{
		ID: id, Kind: kind, Name: name, QualifiedName: st.QualifiedName(name),
		FilePath: st.FilePath, StartLine: line, EndLine: endLine,
		Signature: signaturePrefix(decl, source), Visibility: visibilityOf(decl, source),
		Docstring: docstringAbove(decl, source), UpdatedAt: st.StartedAt.Unix(),
	})
	extractAnnotations(st, decl, source, id)
	if bodyNode != nil {
		extractCallSites(st, bodyNode, source, id)
	}
}

func addConstructor(st *extract.State, nameNode, bodyNode, decl *sitter.Node, source []byte) {
	name := text(nameNode, source)
	line := nameNode.StartPoint().Row
	id := model.GenerateNodeID(st.FilePath, model.NodeConstructor, name, line)
	st.AddNode(model.Node{
		ID: id, Kind: model.NodeConstructor, Name: name, QualifiedName: st.QualifiedName(name),
		FilePath: st.FilePath, StartLine: line, EndLine: bodyNode.EndPoint().Row,
		Signature: signaturePrefix(decl, source), Visibility: visibilityOf(decl, source),
		Docstring: docstringAbove(decl, source), UpdatedAt: st.StartedAt.Unix(),
	})
	extractCallSites(st, bodyNode, source, id)
}

func addField(st *extract.State, nameNode, decl *sitter.Node, source []byte) {
	name := text(nameNode, source)
	line := nameNode.StartPoint().Row
	id := model.GenerateNodeID(st.FilePath, model.NodeField, name, line)
	st.AddNode(model.Node{
		ID: id, Kind: model.NodeField, Name: name, QualifiedName: st.QualifiedName(name),
		FilePath: st.FilePath, StartLine: line, EndLine: line,
		Visibility: visibilityOf(decl, source), UpdatedAt: st.StartedAt.Unix(),
	})
}

func walkEnumConstants(st *extract.State, body *sitter.Node, source []byte, lang *sitter.Language) {
	matches := queryAll(body, source, lang, `(enum_constant name: (identifier) @cname)`)
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

// visibilityOf maps Java's explicit access modifiers onto the shared
// Visibility enum: public -> Pub, protected -> PubCrate (package+subclass
// reach, the closest existing tier), private and package-default -> Private.
func visibilityOf(decl *sitter.Node, source []byte) model.Visibility {
	mods := decl.ChildByFieldName("modifiers")
	if mods == nil {
		// modifiers is not a named field on every declaration type; scan
		// the first child instead.
		if decl.ChildCount() > 0 && decl.Child(0).Type() == "modifiers" {
			mods = decl.Child(0)
		}
	}
	modText := text(mods, source)
	switch {
	case strings.Contains(modText, "public"):
		return model.VisibilityPub
	case strings.Contains(modText, "protected"):
		return model.VisibilityPubCrate
	case strings.Contains(modText, "private"):
		return model.VisibilityPrivate
	default:
		return model.VisibilityPrivate // package-default access
	}
}

func extractSupers(st *extract.State, decl *sitter.Node, source []byte, fromID string) {
	if superclass := decl.ChildByFieldName("superclass"); superclass != nil {
		st.AddUnresolvedRef(model.UnresolvedRef{
			FromNodeID: fromID, ReferenceName: strings.TrimSpace(text(superclass, source)),
			ReferenceKind: model.EdgeExtends, Line: superclass.StartPoint().Row, FilePath: st.FilePath,
		})
	}
	if interfaces := decl.ChildByFieldName("interfaces"); interfaces != nil {
		for i := 0; i < int(interfaces.ChildCount()); i++ {
			c := interfaces.Child(i)
			if c.Type() == "type_identifier" || c.Type() == "generic_type" {
				st.AddUnresolvedRef(model.UnresolvedRef{
					FromNodeID: fromID, ReferenceName: text(c, source),
					ReferenceKind: model.EdgeImplements, Line: c.StartPoint().Row, FilePath: st.FilePath,
				})
			}
		}
	}
}

func extractAnnotations(st *extract.State, decl *sitter.Node, source []byte, fromID string) {
	mods := decl.Child(0)
	if mods == nil || mods.Type() != "modifiers" {
		return
	}
	for i := 0; i < int(mods.ChildCount()); i++ {
		c := mods.Child(i)
		if c.Type() != "annotation" && c.Type() != "marker_annotation" {
			continue
		}
		nameNode := c.ChildByFieldName("name")
		name := text(nameNode, source)
		if name == "" {
			continue
		}
		line := c.StartPoint().Row
		annID := model.GenerateNodeID(st.FilePath, model.NodeAnnotationUsage, name, line)
		st.AddNode(model.Node{
			ID: annID, Kind: model.NodeAnnotationUsage, Name: name,
			QualifiedName: st.QualifiedName(name), FilePath: st.FilePath,
			StartLine: line, EndLine: line, Visibility: model.VisibilityPrivate,
			UpdatedAt: st.StartedAt.Unix(),
		})
		st.Edges = append(st.Edges, model.Edge{Source: annID, Target: fromID, Kind: model.EdgeAnnotates})
		st.AddUnresolvedRef(model.UnresolvedRef{
			FromNodeID: annID, ReferenceName: name, ReferenceKind: model.EdgeAnnotates,
			Line: line, FilePath: st.FilePath,
		})
	}
}

func extractCallSites(st *extract.State, body *sitter.Node, source []byte, fromID string) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "lambda_expression" {
			return
		}
		if n.Type() == "method_invocation" {
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				st.AddUnresolvedRef(model.UnresolvedRef{
					FromNodeID: fromID, ReferenceName: text(nameNode, source), ReferenceKind: model.EdgeCalls,
					Line: n.StartPoint().Row, FilePath: st.FilePath,
				})
			}
		}
		if n.Type() == "object_creation_expression" {
			typeNode := n.ChildByFieldName("type")
			if typeNode != nil {
				st.AddUnresolvedRef(model.UnresolvedRef{
					FromNodeID: fromID, ReferenceName: text(typeNode, source), ReferenceKind: model.EdgeCalls,
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

func docstringAbove(n *sitter.Node, source []byte) string {
	cur := n.PrevSibling()
	for cur != nil && cur.Type() == "modifiers" {
		cur = cur.PrevSibling()
	}
	var lines []string
	for cur != nil && (cur.Type() == "block_comment" || cur.Type() == "line_comment") {
		txt := text(cur, source)
		if strings.HasPrefix(txt, "/**") {
			lines = append([]string{cleanComment(txt)}, lines...)
		}
		cur = cur.PrevSibling()
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func cleanComment(s string) string {
	s = strings.TrimPrefix(s, "/**")
	s = strings.TrimPrefix(s, "/*")
	s = strings.TrimSuffix(s, "*/")
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		out = append(out, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
