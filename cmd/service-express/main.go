// Package main is the entry point for the service-express CLI.
//
// This binary scaffolds a TypeScript Express service into a new directory.
// All functionality lives in the internal/cli package.
//
// Build-time variables (version, commit, date) are injected via ldflags.
// During development, they default to "dev", "none", and "unknown".
package main

import (
	"github.com/shinji-kodama/service-express/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
