// Command flowgen generates Playwright page objects and data-driven tests
// from recorded UI flows.
package main

import (
	"os"

	"github.com/roach88/flowgen/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
