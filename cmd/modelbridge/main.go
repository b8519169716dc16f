// Package main provides the modelbridge command.
package main

import (
	"os"

	"github.com/leapstack-labs/modelbridge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
