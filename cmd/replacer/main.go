// Command replacer runs and inspects the live text-substitution engine.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/replacer/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
