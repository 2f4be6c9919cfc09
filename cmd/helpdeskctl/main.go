package main

import "github.com/lorrc/helpdesk/internal/cli"

// Set by ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
