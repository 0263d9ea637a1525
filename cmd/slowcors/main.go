// Package main provides the entry point for the slowcors server.
package main

import (
	"fmt"
	"os"

	"github.com/slowcors/slowcors/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
