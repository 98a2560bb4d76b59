package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Serve builds the CLI and runs the HTTP/MCP server with metrics and the
// call log enabled.
func Serve() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath, "serve", "--metrics", "--calllog", filepath.Join("data", "calls.db"))
}

// Search builds the CLI and runs one aggregated search, saving the query
// and results under output/searches/.
func Search(query string) error {
	mg.Deps(Build, Init)
	out := filepath.Join("output", "searches", fmt.Sprintf("search-%s.yaml", time.Now().UTC().Format("20060102-150405")))
	return sh.RunV(binPath, "search", "--save", out, query)
}

// Tools lists the tool catalogue.
func Tools() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "tools")
}
