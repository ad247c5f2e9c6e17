// Package main is the entry point for the wglob CLI tool.
package main

import (
	"os"

	"github.com/watchglob/watchglob/internal/buildinfo"
	"github.com/watchglob/watchglob/internal/cli"
)

// Build-time metadata injected via ldflags, forwarded into
// internal/buildinfo so the rest of the program never imports main.
var (
	version   = "dev"
	commit    = "none"
	date      = "unknown"
	goVersion = "unknown"
)

func main() {
	buildinfo.Version = version
	buildinfo.Commit = commit
	buildinfo.Date = date
	buildinfo.GoVersion = goVersion

	os.Exit(cli.Execute())
}
