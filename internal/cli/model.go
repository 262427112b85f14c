package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/scaffold/internal/domain"
	"github.com/roach88/scaffold/internal/graph"
	"github.com/roach88/scaffold/internal/takeoff"
)

// ModelView is the text rendering of a model.
type ModelView domain.Model

// WriteText renders the model summary.
func (m ModelView) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Model:       %s\n", m.ID)
	fmt.Fprintf(w, "Job:         %s\n", m.JobID)
	fmt.Fprintf(w, "Version:     %s\n", m.Version)
	fmt.Fprintf(w, "Load class:  %s\n", m.LoadClass)
	fmt.Fprintf(w, "Published:   %s\n", publishedLabel(m.Published))
	if m.Graph != nil {
		fmt.Fprintf(w, "Bays/lifts:  %d/%d\n", m.Graph.BayCount(), m.Graph.LiftCount())
	}
	fmt.Fprintf(w, "Created:     %s\n", m.CreatedAt.Format("2006-01-02 15:04:05Z07:00"))
	if m.PublishedAt != nil {
		fmt.Fprintf(w, "Published at: %s\n", m.PublishedAt.Format("2006-01-02 15:04:05Z07:00"))
	}
	_, err := fmt.Fprintf(w, "Hash:        %s\n", m.GraphHash)
	return err
}

// ModelList is the output of model list.
type ModelList []domain.Model

// WriteText renders one model per line, newest first.
func (l ModelList) WriteText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "No models found.")
		return err
	}
	for _, m := range l {
		fmt.Fprintf(w, "%-6s %s  %-7s  %s\n", m.Version, m.ID, m.LoadClass, publishedLabel(m.Published))
	}
	return nil
}

// MaterialList is the output of model materials.
type MaterialList []domain.Material

// WriteText renders the stored takeoff.
func (l MaterialList) WriteText(w io.Writer) error {
	lines := make([]takeoff.Line, len(l))
	for i, m := range l {
		lines[i] = takeoff.Line{ItemCode: m.ItemCode, Name: m.Name, Qty: m.Qty}
	}
	return writeTakeoff(w, lines)
}

// TakeoffView is the output of model retakeoff.
type TakeoffView []takeoff.Line

// WriteText renders the recomputed takeoff.
func (t TakeoffView) WriteText(w io.Writer) error {
	return writeTakeoff(w, t)
}

func publishedLabel(published bool) string {
	if published {
		return "published"
	}
	return "draft"
}

// NewModelCommand creates the model command group.
func NewModelCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage scaffold model revisions",
	}

	cmd.AddCommand(newModelRevisionCommand(rootOpts, "draft", "Generate and store the next revision for a job", false))
	cmd.AddCommand(newModelRevisionCommand(rootOpts, "supersede", "Generate a revision that supersedes the latest one", true))
	cmd.AddCommand(newModelPublishCommand(rootOpts))
	cmd.AddCommand(newModelListCommand(rootOpts))
	cmd.AddCommand(newModelShowCommand(rootOpts))
	cmd.AddCommand(newModelMaterialsCommand(rootOpts))
	cmd.AddCommand(newModelRetakeoffCommand(rootOpts))

	return cmd
}

func newModelRevisionCommand(rootOpts *RootOptions, use, short string, supersede bool) *cobra.Command {
	var dims *dimFlags

	cmd := &cobra.Command{
		Use:   use + " <job-id>",
		Short: short,
		Long: short + `.

Dimension flags override the job's recorded dimensions; without them the
recorded dimensions are used. The revision label is "Rev A" for the first
model and the next letter afterwards.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			jobID := args[0]
			if _, err := a.store.GetJob(ctx, jobID); err != nil {
				return report(formatter, err)
			}

			var d graph.Dimensions
			if dims.set() {
				d = dims.dims(rootOpts)
			} else {
				stored, err := a.store.GetDimensions(ctx, jobID)
				if err != nil {
					return report(formatter, fmt.Errorf("no dimension flags given and %w", err))
				}
				d = rootOpts.Config.ApplyDefaults(stored.Dimensions)
			}

			op := a.models.Draft
			if supersede {
				op = a.models.Revise
			}
			m, err := op(ctx, jobID, d)
			if err != nil {
				return report(formatter, err)
			}
			return formatter.Success(ModelView(m))
		},
	}

	dims = addDimFlags(cmd)
	return cmd
}

func newModelPublishCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <model-id>",
		Short: "Run the compliance gate and publish a model",
		Long: `Publish a model after the configured compliance gate accepts its graph.
Publishing is one-way; publishing a published model changes nothing.

Exit codes:
  0 - Model published
  1 - Compliance failed (issues are listed, model stays unpublished)
  2 - Command error (model not found, database errors)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.models.Publish(context.Background(), args[0])
			if err != nil {
				return report(formatter, err)
			}
			return formatter.Success(ModelView(m))
		},
	}
}

func newModelListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list <job-id>",
		Short:         "List a job's models, newest first",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			models, err := a.models.List(context.Background(), args[0])
			if err != nil {
				return report(formatter, err)
			}
			return formatter.Success(ModelList(models))
		},
	}
}

func newModelShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <model-id>",
		Short:         "Show a model",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.models.Get(context.Background(), args[0])
			if err != nil {
				return report(formatter, err)
			}
			return formatter.Success(ModelView(m))
		},
	}
}

func newModelMaterialsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "materials <model-id>",
		Short:         "List a model's stored takeoff",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			materials, err := a.models.Materials(context.Background(), args[0])
			if err != nil {
				return report(formatter, err)
			}
			return formatter.Success(MaterialList(materials))
		},
	}
}

func newModelRetakeoffCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "retakeoff <model-id>",
		Short:         "Recompute and replace a model's takeoff",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			lines, err := a.models.Retakeoff(context.Background(), args[0])
			if err != nil {
				return report(formatter, err)
			}
			return formatter.Success(TakeoffView(lines))
		},
	}
}
