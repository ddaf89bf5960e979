// Command arousa is the entry point for the basin data pipeline.
package main

import (
	"os"

	"github.com/mbouzas/arousa-etl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
