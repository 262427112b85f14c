package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/scaffold/internal/compliance"
	"github.com/roach88/scaffold/internal/graph"
)

// CheckResult is the output of the check command.
type CheckResult struct {
	compliance.Result
	Violations []graph.Violation `json:"violations"`
}

// WriteText renders the verdict and its issues.
func (r CheckResult) WriteText(w io.Writer) error {
	if r.Pass && len(r.Violations) == 0 {
		_, err := fmt.Fprintln(w, "✓ Graph passes compliance")
		return err
	}
	fmt.Fprintln(w, "✗ Graph fails compliance")
	for _, issue := range r.Issues {
		fmt.Fprintf(w, "  - %s\n", issue)
	}
	for _, v := range r.Violations {
		fmt.Fprintf(w, "  - %s\n", v)
	}
	return nil
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var graphPath string
	var dims *dimFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run compliance rules against a graph",
		Long: `Check a scaffold graph against the configured compliance gate and the
structural graph invariants. The graph is read from --graph (as written by
generate --out) or generated from dimension flags.

Exit codes:
  0 - Graph passes
  1 - Graph fails (issues are listed)
  2 - Command error (unreadable graph, invalid dimensions, bad rule set)

Examples:
  scaffold check --length 10 --height 6 --lift 2
  scaffold check --graph graph.json --config site.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, dims, graphPath, cmd)
		},
	}

	dims = addDimFlags(cmd)
	cmd.Flags().StringVar(&graphPath, "graph", "", "path to a graph JSON file")

	return cmd
}

func runCheck(opts *RootOptions, dims *dimFlags, graphPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var g *graph.Graph
	if graphPath != "" {
		loaded, err := readGraph(graphPath)
		if err != nil {
			return reportCode(formatter, ErrCodeBadInput, ExitCommandError, err)
		}
		g = loaded
	} else {
		generated, err := graph.Generate(dims.dims(opts))
		if err != nil {
			return report(formatter, err)
		}
		g = generated
	}

	checker, err := opts.Config.Checker()
	if err != nil {
		return reportCode(formatter, ErrCodeBadInput, ExitCommandError, err)
	}

	result := CheckResult{
		Result:     checker.Check(g),
		Violations: graph.Check(g),
	}
	if result.Violations == nil {
		result.Violations = []graph.Violation{}
	}
	if err := formatter.Success(result); err != nil {
		return err
	}
	if !result.Pass || len(result.Violations) > 0 {
		return NewExitError(ExitFailure, "graph fails compliance")
	}
	return nil
}

func readGraph(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	var g graph.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse graph %s: %w", path, err)
	}
	return &g, nil
}
