// Package main provides the entry point for sasmint-cli, the
// command-line management tool for sasmint-server.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/sasmint-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
