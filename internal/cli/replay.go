package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sheetview/internal/journal"
	"github.com/roach88/sheetview/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Compact  bool // save a snapshot at the head and drop the replayed mutations
}

// ReplayResult holds the replay result.
type ReplayResult struct {
	SnapshotRevision int64  `json:"snapshot_revision"`
	Applied          int    `json:"applied"`
	Revision         int64  `json:"revision"`
	Digest           string `json:"digest"`
	Deterministic    bool   `json:"deterministic"`
	Compacted        bool   `json:"compacted"`
	Truncated        int64  `json:"truncated"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the journal and verify determinism",
		Long: `Rebuild the store from the latest snapshot and the mutations recorded
after it. The journal is replayed twice into independent stores and the
two content digests are compared.

With --compact a new snapshot is saved at the replayed revision and the
mutations it covers are removed from the journal.

Exit codes:
  0 - Replay is deterministic
  1 - Determinism verification failed (digests differ)
  2 - Command error (database not found, replay failed, etc.)

Examples:
  sheetview replay --db ./sheetview.db
  sheetview replay --db ./sheetview.db --compact
  sheetview replay --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal to replay (default $SHEETVIEW_DB)")
	cmd.Flags().BoolVar(&opts.Compact, "compact", false, "snapshot the replayed state and truncate the journal")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	path, err := opts.databasePath(opts.Database)
	if err != nil {
		return err
	}
	j, err := openExistingJournal(path)
	if err != nil {
		return err
	}
	defer j.Close()

	result, state, err := replayAndVerify(ctx, opts, j, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay journal", err)
	}
	opts.formatter(cmd).VerboseLog("replayed %s: snapshot %d + %d mutation(s)", path, result.SnapshotRevision, result.Applied)

	if opts.Compact && result.Deterministic {
		if err := compactJournal(ctx, j, state, &result); err != nil {
			return WrapExitError(ExitCommandError, "failed to compact journal", err)
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(opts.formatter(cmd), result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replayAndVerify replays the journal twice and compares the digests. It
// returns the state of the first replay.
func replayAndVerify(ctx context.Context, opts *ReplayOptions, j *journal.Journal, cmd *cobra.Command) (ReplayResult, *store.State, error) {
	logger := opts.logger(cmd.ErrOrStderr())

	first, err := restore(ctx, j, opts.engineOptions(logger, nil)...)
	if err != nil {
		return ReplayResult{}, nil, fmt.Errorf("first replay failed: %w", err)
	}
	second, err := restore(ctx, j, opts.engineOptions(logger, nil)...)
	if err != nil {
		return ReplayResult{}, nil, fmt.Errorf("second replay failed: %w", err)
	}

	d1, err := first.Engine.State().Digest()
	if err != nil {
		return ReplayResult{}, nil, err
	}
	d2, err := second.Engine.State().Digest()
	if err != nil {
		return ReplayResult{}, nil, err
	}

	return ReplayResult{
		SnapshotRevision: first.SnapshotRevision,
		Applied:          first.Applied,
		Revision:         first.Engine.State().Revision,
		Digest:           d1,
		Deterministic: d1 == d2 &&
			first.Applied == second.Applied &&
			first.Engine.State().Revision == second.Engine.State().Revision,
	}, first.Engine.State(), nil
}

// compactJournal saves state as a snapshot and removes the mutations it
// covers.
func compactJournal(ctx context.Context, j *journal.Journal, state *store.State, result *ReplayResult) error {
	if err := j.SaveSnapshot(ctx, state); err != nil {
		return err
	}
	n, err := j.TruncateThrough(ctx, state.Revision)
	if err != nil {
		return err
	}
	result.Compacted = true
	result.Truncated = n
	return nil
}

func outputReplayJSON(f *OutputFormatter, result ReplayResult) error {
	var failure *CLIError
	if !result.Deterministic {
		failure = &CLIError{Code: "E_DETERMINISM", Message: "determinism verification failed"}
	}
	return f.Report(result, failure)
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d mutation(s) after snapshot %d\n", result.Applied, result.SnapshotRevision)
	fmt.Fprintf(w, "  Revision: %d\n", result.Revision)
	if verbose {
		fmt.Fprintf(w, "  Digest: %s\n", result.Digest)
	}
	if result.Compacted {
		fmt.Fprintf(w, "  Compacted: snapshot at %d, %d mutation(s) truncated\n", result.Revision, result.Truncated)
	}
	fmt.Fprintln(w)

	if result.Deterministic {
		fmt.Fprintln(w, "✓ Replay verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
