package main

import (
	"github.com/ternarybob/codegraph/internal/codegraph"
)

func openProject() (*codegraph.CodeGraph, error) {
	return codegraph.Open(projectRoot, newRegistry())
}
