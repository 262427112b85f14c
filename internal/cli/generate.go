package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scaffold/internal/graph"
	"github.com/roach88/scaffold/internal/loadclass"
	"github.com/roach88/scaffold/internal/takeoff"
)

// GenerateResult is the output of the generate command.
type GenerateResult struct {
	Graph       *graph.Graph           `json:"graph"`
	Members     map[graph.NodeKind]int `json:"members"`
	LoadClass   string                 `json:"load_class"`
	Takeoff     []takeoff.Line         `json:"takeoff"`
	Fingerprint string                 `json:"fingerprint"`
}

// WriteText renders a summary of the graph and its takeoff.
func (r GenerateResult) WriteText(w io.Writer) error {
	g := r.Graph
	fmt.Fprintf(w, "Bays:        %d (%.2f m)\n", g.BayCount(), g.TotalLength())
	fmt.Fprintf(w, "Lifts:       %d (%.2f m)\n", g.LiftCount(), g.MaxHeight())
	fmt.Fprintf(w, "Nodes:       %d\n", len(g.Nodes))
	fmt.Fprintf(w, "Edges:       %d\n", len(g.Edges))
	fmt.Fprintf(w, "Members:     %s\n", formatMembers(r.Members))
	fmt.Fprintf(w, "Load class:  %s\n", r.LoadClass)
	fmt.Fprintf(w, "Fingerprint: %s\n", r.Fingerprint)
	fmt.Fprintln(w)
	return writeTakeoff(w, r.Takeoff)
}

// formatMembers lists non-zero member counts in node kind order.
func formatMembers(counts map[graph.NodeKind]int) string {
	var parts []string
	for _, k := range graph.NodeKinds {
		if n := counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", k, n))
		}
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, ", ")
}

func writeTakeoff(w io.Writer, lines []takeoff.Line) error {
	fmt.Fprintln(w, "Takeoff:")
	if len(lines) == 0 {
		_, err := fmt.Fprintln(w, "  (none)")
		return err
	}
	for _, l := range lines {
		fmt.Fprintf(w, "  %-4s %-10s %6d\n", l.ItemCode, l.Name, l.Qty)
	}
	_, err := fmt.Fprintf(w, "  %-15s %6d\n", "total", takeoff.Total(lines))
	return err
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	var out string
	var dims *dimFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a scaffold graph from dimensions",
		Long: `Generate the scaffold structure graph for a building, estimate its load
class and derive the material takeoff. Nothing is stored.

With --out the canonical graph JSON is written to a file, which check
accepts with --graph.

Examples:
  scaffold generate --length 10 --height 6 --lift 2
  scaffold generate --length 10 --height 6 --lift 2 --out graph.json --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(rootOpts, dims, out, cmd)
		},
	}

	dims = addDimFlags(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "write canonical graph JSON to this file")

	return cmd
}

func runGenerate(opts *RootOptions, dims *dimFlags, out string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	g, err := graph.Generate(dims.dims(opts))
	if err != nil {
		return report(formatter, err)
	}
	fp, err := graph.Fingerprint(g)
	if err != nil {
		return report(formatter, err)
	}

	if out != "" {
		data, err := graph.MarshalCanonical(g)
		if err != nil {
			return report(formatter, err)
		}
		if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
			return reportCode(formatter, ErrCodeGeneric, ExitCommandError, fmt.Errorf("write %s: %w", out, err))
		}
		formatter.VerboseLog("Wrote graph to %s", out)
	}

	return formatter.Success(GenerateResult{
		Graph:       g,
		Members:     g.CountKinds(),
		LoadClass:   loadclass.Estimate(g),
		Takeoff:     takeoff.FromGraph(g),
		Fingerprint: fp,
	})
}
