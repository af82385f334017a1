package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sheetview/internal/engine"
	"github.com/roach88/sheetview/internal/harness"
	"github.com/roach88/sheetview/internal/metrics"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Database string
	Metrics  bool
}

// MutationFile is the YAML document read by apply.
type MutationFile struct {
	Mutations []harness.MutateStep `yaml:"mutations"`
}

// MutationOutcome reports one mutation handled by apply.
type MutationOutcome struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Seq   int64  `json:"seq"`
	Op    string `json:"op"`
	Kind  string `json:"kind"`
	Error string `json:"error,omitempty"`
}

// ApplyResult holds the overall apply result.
type ApplyResult struct {
	Mutations []MutationOutcome `json:"mutations"`
	Applied   int               `json:"applied"`
	Failed    int               `json:"failed"`
	Revision  int64             `json:"revision"`
	Digest    string            `json:"digest"`
	Metrics   string            `json:"metrics,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <mutations.yaml>",
		Short: "Apply mutations and record them in the journal",
		Long: `Restore the store from the journal, apply each mutation in the file in
order and record the ones that succeed. A rejected mutation is reported and
the rest still run.

The file holds a list of mutations in the scenario mutate format:

  mutations:
    - op: sort
      kind: charm
      id: 5
      sorting: 0

Exit codes:
  0 - Every mutation applied
  1 - One or more mutations were rejected
  2 - Command error (database not found, unreadable file, etc.)

Examples:
  sheetview apply ./edits.yaml --db ./sheetview.db
  sheetview apply ./edits.yaml --metrics`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal to apply to (default $SHEETVIEW_DB)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics for the run")

	return cmd
}

// LoadMutationFile reads and decodes a mutation file. Unknown fields are
// rejected.
func LoadMutationFile(path string) (*MutationFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mutation file: %w", err)
	}

	var f MutationFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse mutation file: %w", err)
	}
	return &f, nil
}

func runApply(opts *ApplyOptions, path string, cmd *cobra.Command) error {
	ctx := context.Background()

	file, err := LoadMutationFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid mutation file", err)
	}

	dbPath, err := opts.databasePath(opts.Database)
	if err != nil {
		return err
	}
	j, err := openExistingJournal(dbPath)
	if err != nil {
		return err
	}
	defer j.Close()

	var (
		m   *metrics.Metrics
		reg *prometheus.Registry
	)
	if opts.Metrics {
		m = metrics.New(opts.Config.MetricsNamespace)
		reg = prometheus.NewRegistry()
		if err := m.Register(reg); err != nil {
			return err
		}
	}

	engineOpts := append(opts.engineOptions(opts.logger(cmd.ErrOrStderr()), m), engine.WithJournal(j))
	r, err := restore(ctx, j, engineOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to restore store", err)
	}

	result := applyMutations(ctx, r.Engine, file.Mutations)
	result.Revision = r.Engine.State().Revision
	if result.Digest, err = r.Engine.State().Digest(); err != nil {
		return err
	}
	if reg != nil {
		var buf bytes.Buffer
		if err := metrics.WriteText(&buf, reg); err != nil {
			return err
		}
		result.Metrics = buf.String()
	}

	if opts.Format == "json" {
		return outputApplyJSON(opts.formatter(cmd), result)
	}
	return outputApplyText(cmd, result)
}

// applyMutations applies steps in order. A step that cannot be decoded is
// rejected without consuming a seq.
func applyMutations(ctx context.Context, e *engine.Engine, steps []harness.MutateStep) ApplyResult {
	result := ApplyResult{Mutations: make([]MutationOutcome, 0, len(steps))}
	for i := range steps {
		step := &steps[i]
		outcome := MutationOutcome{Index: i, Op: step.Op, Kind: step.Kind}

		mu, err := step.Mutation()
		if err == nil {
			_, err = e.Apply(ctx, mu)
			outcome.Seq = e.Clock().Current()
		}
		if me, ok := engine.AsMutationError(err); ok {
			outcome.ID = me.MutationID
		}
		if err != nil {
			outcome.Error = err.Error()
			result.Failed++
		} else {
			result.Applied++
		}
		result.Mutations = append(result.Mutations, outcome)
	}
	return result
}

func outputApplyJSON(f *OutputFormatter, result ApplyResult) error {
	var failure *CLIError
	if result.Failed > 0 {
		failure = &CLIError{Code: "E_MUTATION_REJECTED", Message: fmt.Sprintf("%d mutation(s) rejected", result.Failed)}
	}
	return f.Report(result, failure)
}

func outputApplyText(cmd *cobra.Command, result ApplyResult) error {
	w := cmd.OutOrStdout()

	for _, m := range result.Mutations {
		if m.Error != "" {
			fmt.Fprintf(w, "✗ [%d] %s %s: %s\n", m.Index, m.Op, m.Kind, m.Error)
			continue
		}
		fmt.Fprintf(w, "✓ [%d] %s %s (seq %d)\n", m.Index, m.Op, m.Kind, m.Seq)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Apply Summary: %d applied, %d rejected, revision %d\n", result.Applied, result.Failed, result.Revision)

	if result.Metrics != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, result.Metrics)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d mutation(s) rejected", result.Failed))
	}
	return nil
}
