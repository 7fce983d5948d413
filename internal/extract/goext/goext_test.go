package goext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/codegraph/internal/model"
)

const sample = `package sample

import "fmt"

// Greeter says hello.
type Greeter struct {
	Name string ` + "`json:\"name\"`" + `
}

// Hello returns a greeting for g.
func (g *Greeter) Hello() string {
	return fmt.Sprintf("hello %s", g.Name)
}

func Caller() string {
	g := &Greeter{Name: "a"}
	return g.Hello()
}
`

func TestExtract_FindsPackageStructMethodAndCallSite(t *testing.T) {
	e := Extractor{}
	result := e.Extract("sample.go", []byte(sample))
	require.Empty(t, result.Errors)

	var names []string
	for _, n := range result.Nodes {
		names = append(names, n.Name)
	}
	assert.Contains(t, names, "sample")   // package clause
	assert.Contains(t, names, "Greeter")  // struct
	assert.Contains(t, names, "Name")     // field
	assert.Contains(t, names, "Hello")    // method
	assert.Contains(t, names, "Caller")   // function

	var helloDoc string
	for _, n := range result.Nodes {
		if n.Name == "Hello" {
			helloDoc = n.Docstring
			assert.Equal(t, model.NodeStructMethod, n.Kind)
			assert.Equal(t, model.VisibilityPub, n.Visibility)
		}
	}
	assert.Contains(t, helloDoc, "Hello returns a greeting")

	var callNames []string
	for _, ref := range result.UnresolvedRefs {
		if ref.ReferenceKind == model.EdgeCalls {
			callNames = append(callNames, ref.ReferenceName)
		}
	}
	assert.Contains(t, callNames, "Sprintf")
	assert.Contains(t, callNames, "Hello")
}

func TestExtract_UnparsableSource_DoesNotPanic(t *testing.T) {
	e := Extractor{}
	result := e.Extract("broken.go", []byte("func ("))
	// tree-sitter is error-tolerant and still returns a partial tree for Go,
	// so this only asserts the extractor never panics on malformed input.
	assert.NotNil(t, result)
}

func TestExtensions_ReportsGo(t *testing.T) {
	e := Extractor{}
	assert.Equal(t, []string{"go"}, e.Extensions())
	assert.Equal(t, "go", e.LanguageName())
}
