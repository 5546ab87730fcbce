// Package main is the entry point for the nutrition command line tool.
package main

import (
	"fmt"
	"os"
)

// Build information injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	c := newCLI(fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))
	if err := c.Execute(); err != nil {
		os.Exit(1)
	}
}
