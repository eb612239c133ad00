// Package main is the entry point for themesd.
package main

import (
	"os"

	"github.com/jmylchreest/themesd/cmd/themesd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
