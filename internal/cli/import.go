package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sheetview/internal/journal"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
}

// ImportResult describes the snapshot written by import.
type ImportResult struct {
	Database string `json:"database"`
	Revision int64  `json:"revision"`
	Entities int    `json:"entities"`
	Digest   string `json:"digest"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <fixture>",
		Short: "Seed a journal from a fixture",
		Long: `Validate a CUE or JSON fixture and store it as the journal's starting
snapshot. The journal is created if it does not exist. A journal that
already holds mutations is left untouched.

Exit codes:
  0 - Snapshot written
  2 - Command error (invalid fixture, journal not empty, etc.)

Examples:
  sheetview import ./sheet.cue --db ./sheetview.db
  SHEETVIEW_DB=./sheetview.db sheetview import ./sheet.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal to write (default $SHEETVIEW_DB)")

	return cmd
}

func runImport(opts *ImportOptions, fixturePath string, cmd *cobra.Command) error {
	ctx := context.Background()

	state, err := loadFixtureState(fixturePath)
	if err != nil {
		return err
	}

	path, err := opts.databasePath(opts.Database)
	if err != nil {
		return err
	}
	j, err := journal.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer j.Close()

	head, err := j.Head(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	if head > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("journal %s already holds mutations through seq %d", path, head))
	}

	if err := j.SaveSnapshot(ctx, state); err != nil {
		return WrapExitError(ExitCommandError, "failed to save snapshot", err)
	}
	digest, err := state.Digest()
	if err != nil {
		return err
	}

	result := ImportResult{
		Database: path,
		Revision: state.Revision,
		Entities: len(state.Entities()),
		Digest:   digest,
	}
	opts.logger(cmd.ErrOrStderr()).Debug("snapshot saved", "database", path, "revision", result.Revision)

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Imported %d entities into %s\n", result.Entities, result.Database)
	fmt.Fprintf(w, "  Revision: %d\n", result.Revision)
	fmt.Fprintf(w, "  Digest: %s\n", result.Digest)
	return nil
}
