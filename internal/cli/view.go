package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sheetview/internal/catalog"
	"github.com/roach88/sheetview/internal/engine"
	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
)

// ViewOptions holds flags for the view command.
type ViewOptions struct {
	*RootOptions
	Character int64
	Fixture   string
	Database  string
}

// ViewValue is one view read for one character.
type ViewValue struct {
	View   string `json:"view"`
	Value  any    `json:"value"`
	Digest string `json:"digest"`
}

// ViewResult holds every view read by the command.
type ViewResult struct {
	Character int64       `json:"character"`
	Revision  int64       `json:"revision"`
	Views     []ViewValue `json:"views"`
}

// NewViewCommand creates the view command.
func NewViewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ViewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "view [name...]",
		Short: "Read views for a character",
		Long: `Read one or more views for a character from a fixture or a journal.

With no view names every registered view is read. Text output shows entity
lists as id lists; JSON output carries the full records and a digest of
each value.

Exit codes:
  0 - Views read
  2 - Command error (unknown view, fixture or database not found, etc.)

Examples:
  sheetview view charms.all --character 1 --fixture ./sheet.cue
  sheetview view --character 2 --db ./sheetview.db
  sheetview view charms.by_type --character 1 --fixture ./sheet.cue --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(opts, args, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Character, "character", 0, "character id (required)")
	_ = cmd.MarkFlagRequired("character")
	cmd.Flags().StringVar(&opts.Fixture, "fixture", "", "CUE or JSON fixture to read from")
	cmd.Flags().StringVar(&opts.Database, "db", "", "journal to read from (default $SHEETVIEW_DB)")
	cmd.MarkFlagsMutuallyExclusive("fixture", "db")

	return cmd
}

func runView(opts *ViewOptions, names []string, cmd *cobra.Command) error {
	e, err := openViewEngine(opts, cmd)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		names = e.Views()
	}

	result := ViewResult{
		Character: opts.Character,
		Revision:  e.State().Revision,
		Views:     make([]ViewValue, 0, len(names)),
	}
	for _, name := range names {
		v, err := e.RequestView(name, ir.ID(opts.Character))
		if err != nil {
			if errors.Is(err, engine.ErrUnknownView) {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown view %q (see 'sheetview views')", name))
			}
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read view %s", name), err)
		}
		digest, err := ir.Digest(ir.DomainView, v)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to digest view %s", name), err)
		}
		result.Views = append(result.Views, ViewValue{View: name, Value: v, Digest: digest})
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}

	return outputViewText(cmd, result)
}

// openViewEngine builds an engine from --fixture, or else from the journal.
func openViewEngine(opts *ViewOptions, cmd *cobra.Command) (*engine.Engine, error) {
	logger := opts.logger(cmd.ErrOrStderr())

	if opts.Fixture != "" {
		state, err := loadFixtureState(opts.Fixture)
		if err != nil {
			return nil, err
		}
		return engine.New(store.New(state), opts.engineOptions(logger, nil)...), nil
	}

	path, err := opts.databasePath(opts.Database)
	if err != nil {
		return nil, err
	}
	j, err := openExistingJournal(path)
	if err != nil {
		return nil, err
	}
	defer j.Close()

	r, err := restore(context.Background(), j, opts.engineOptions(logger, nil)...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to restore store", err)
	}
	return r.Engine, nil
}

func outputViewText(cmd *cobra.Command, result ViewResult) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Character %d at revision %d\n", result.Character, result.Revision)
	for _, v := range result.Views {
		data, err := ir.MarshalCanonical(catalog.Compact(v.Value))
		if err != nil {
			return fmt.Errorf("encode %s: %w", v.View, err)
		}
		fmt.Fprintf(w, "  %s: %s\n", v.View, data)
	}
	return nil
}
