// Package main is the entry point for the adlens CLI binary.
package main

import (
	"os"

	cli "adlens/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
