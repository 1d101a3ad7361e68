// Command georeplay reconstructs and plays back geospatial audit logs.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/georeplay/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
