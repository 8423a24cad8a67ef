// Package main provides the mcp-panther command.
package main

import (
	"os"

	"github.com/leapstack-labs/mcp-panther/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
