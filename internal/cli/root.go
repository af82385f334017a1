package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/sheetview/internal/config"
	"github.com/roach88/sheetview/internal/ir"
)

// RootOptions carries the persistent flags and the loaded configuration
// to every subcommand.
type RootOptions struct {
	Verbose bool
	Format  string

	// Config is loaded from SHEETVIEW_* variables before any subcommand
	// runs. Flags take precedence over it.
	Config config.Config
}

// ValidFormats lists the values --format accepts.
var ValidFormats = []string{"text", "json"}

// NewRootCommand builds the sheetview command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "sheetview",
		Version: fmt.Sprintf("%s (entity schema v%s)", ir.EngineVersion, ir.SchemaVersion),
		Short:   "sheetview - memoized character sheet views",
		Long:    `Derived views over a character sheet entity store.

Views such as charms.all or charms.abilities are computed from the store
and cached until one of their inputs changes. Mutations are recorded in a
SQLite journal that can be replayed to rebuild the store.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			opts.Config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(
		NewViewsCommand(opts),
		NewViewCommand(opts),
		NewImportCommand(opts),
		NewApplyCommand(opts),
		NewReplayCommand(opts),
		NewTestCommand(opts),
	)

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
