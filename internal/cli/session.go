package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sheetview/internal/engine"
	"github.com/roach88/sheetview/internal/fixture"
	"github.com/roach88/sheetview/internal/journal"
	"github.com/roach88/sheetview/internal/metrics"
	"github.com/roach88/sheetview/internal/store"
	"github.com/roach88/sheetview/internal/view"
)

// logger returns the diagnostic logger for a command. --verbose lowers the
// level to debug.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	cfg := o.Config
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg.NewLogger(w)
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// databasePath resolves the journal path from the --db flag, falling back
// to SHEETVIEW_DB.
func (o *RootOptions) databasePath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if o.Config.DBPath != "" {
		return o.Config.DBPath, nil
	}
	return "", NewExitError(ExitCommandError, "no database: pass --db or set SHEETVIEW_DB")
}

// engineOptions builds the options shared by every command that runs an
// engine. m may be nil.
func (o *RootOptions) engineOptions(logger *slog.Logger, m *metrics.Metrics) []engine.EngineOption {
	cacheOpts := []view.CacheOption{view.WithMaxEntries(o.Config.CacheMaxEntries)}
	opts := []engine.EngineOption{engine.WithLogger(logger)}
	if m != nil {
		cacheOpts = append(cacheOpts, view.WithObserver(m))
		opts = append(opts, engine.WithMutationObserver(m))
	}
	return append(opts, engine.WithCacheOptions(cacheOpts...))
}

// openExistingJournal opens a journal that must already exist.
func openExistingJournal(path string) (*journal.Journal, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return j, nil
}

// restored is an engine rebuilt from a journal.
type restored struct {
	Engine           *engine.Engine
	SnapshotRevision int64
	Applied          int
}

// restore rebuilds the store from the latest snapshot in j and replays the
// mutations recorded after it. Without a snapshot it starts from an empty
// store.
func restore(ctx context.Context, j *journal.Journal, opts ...engine.EngineOption) (*restored, error) {
	state, err := j.LoadSnapshot(ctx)
	switch {
	case errors.Is(err, journal.ErrNoSnapshot):
		state = store.NewState()
	case err != nil:
		return nil, err
	}

	e := engine.New(store.New(state), opts...)
	n, err := e.Replay(ctx, j)
	if err != nil {
		return nil, err
	}
	return &restored{Engine: e, SnapshotRevision: state.Revision, Applied: n}, nil
}

// loadFixtureState reads a CUE or JSON fixture into a store state.
func loadFixtureState(path string) (*store.State, error) {
	doc, err := fixture.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load fixture", err)
	}
	state, err := doc.State()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid fixture", err)
	}
	return state, nil
}
