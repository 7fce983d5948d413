package javaext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/codegraph/internal/model"
)

const sample = `
package com.example;

/** Represents a greeting service. */
public class Greeter {
    private String name;

    public Greeter(String name) {
        this.name = name;
    }

    /** Returns a greeting string. */
    public String hello() {
        return String.format("hello %s", name);
    }

    protected class Inner {
        void noop() {}
    }
}

interface Named {
    String name();
}
`

func TestExtract_FindsClassConstructorMethodAndField(t *testing.T) {
	e := Extractor{}
	result := e.Extract("Greeter.java", []byte(sample))
	require.Empty(t, result.Errors)

	// Keep the first node of each name: the constructor shares the class's
	// name and Named.name() shares the field's, and both come later.
	byName := map[string]model.Node{}
	for _, n := range result.Nodes {
		if _, seen := byName[n.Name]; !seen {
			byName[n.Name] = n
		}
	}

	require.Contains(t, byName, "Greeter")
	assert.Equal(t, model.NodeClass, byName["Greeter"].Kind)
	assert.Equal(t, model.VisibilityPub, byName["Greeter"].Visibility)
	assert.Contains(t, byName["Greeter"].Docstring, "Represents a greeting service")

	require.Contains(t, byName, "name")
	assert.Equal(t, model.NodeField, byName["name"].Kind)
	assert.Equal(t, model.VisibilityPrivate, byName["name"].Visibility)

	require.Contains(t, byName, "hello")
	assert.Equal(t, model.NodeMethod, byName["hello"].Kind)
	assert.Equal(t, model.VisibilityPub, byName["hello"].Visibility)

	require.Contains(t, byName, "Inner")
	assert.Equal(t, model.NodeInnerClass, byName["Inner"].Kind)
	assert.Equal(t, model.VisibilityPubCrate, byName["Inner"].Visibility)

	require.Contains(t, byName, "Named")
	assert.Equal(t, model.NodeInterface, byName["Named"].Kind)

	var callNames []string
	for _, ref := range result.UnresolvedRefs {
		if ref.ReferenceKind == model.EdgeCalls {
			callNames = append(callNames, ref.ReferenceName)
		}
	}
	assert.Contains(t, callNames, "format")
}

func TestExtensions_ReportsJava(t *testing.T) {
	e := Extractor{}
	assert.Equal(t, []string{"java"}, e.Extensions())
	assert.Equal(t, "java", e.LanguageName())
}
