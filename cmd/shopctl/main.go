// Package main is the entry point for the shopctl CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/shopctl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
