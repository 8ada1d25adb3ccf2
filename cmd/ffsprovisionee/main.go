// Package main is the entry point for the ffsprovisionee CLI.
package main

import (
	"os"

	"github.com/ffs-wifi/provisionee/internal/cli"
	"github.com/ffs-wifi/provisionee/internal/iostreams"
)

func main() {
	if err := cli.Execute(); err != nil {
		iostreams.Error("%v", err)
		os.Exit(1)
	}
}
