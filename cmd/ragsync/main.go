// Command ragsync keeps a retrieval index in sync with local and Google
// Drive documents.
package main

import (
	"os"

	"github.com/custodia-labs/ragsync/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
