package main

import (
	"github.com/ternarybob/codegraph/internal/extract"
	"github.com/ternarybob/codegraph/internal/extract/goext"
	"github.com/ternarybob/codegraph/internal/extract/javaext"
	"github.com/ternarybob/codegraph/internal/extract/rustext"
)

func newRegistry() *extract.Registry {
	r := extract.NewRegistry()
	r.Register(goext.New())
	r.Register(rustext.New())
	r.Register(javaext.New())
	return r
}
