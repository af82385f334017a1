// Command sheetview reads memoized character sheet views and manages the
// mutation journal behind them.
package main

import (
	"os"

	"github.com/roach88/sheetview/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		format, _ := cmd.PersistentFlags().GetString("format")
		f := &cli.OutputFormatter{Format: format, Writer: os.Stdout, ErrWriter: os.Stderr}
		f.ReportError(err)
		os.Exit(cli.GetExitCode(err))
	}
}
