// Command rosterctl generates, checks and exports duty rosters from the
// command line.
package main

import (
	"fmt"
	"os"

	"github.com/warp/roster-engine/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
