package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sheetview/internal/catalog"
)

// ViewInfo describes one registered view.
type ViewInfo struct {
	Name string   `json:"name"`
	Deps []string `json:"deps"`
}

// NewViewsCommand creates the views command.
func NewViewsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List registered views",
		Long: `List every registered view in dependency order, each with the views
it reads.

Examples:
  sheetview views
  sheetview views --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViews(rootOpts, cmd)
		},
	}
}

func runViews(opts *RootOptions, cmd *cobra.Command) error {
	reg := catalog.Registry()
	infos := make([]ViewInfo, 0, len(reg.Names()))
	for _, name := range reg.Order() {
		deps := reg.Graph().Deps(name)
		if deps == nil {
			deps = []string{}
		}
		infos = append(infos, ViewInfo{Name: name, Deps: deps})
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(infos)
	}

	w := cmd.OutOrStdout()
	for _, info := range infos {
		if len(info.Deps) == 0 {
			fmt.Fprintln(w, info.Name)
			continue
		}
		fmt.Fprintf(w, "%s <- %s\n", info.Name, strings.Join(info.Deps, ", "))
	}
	return nil
}
