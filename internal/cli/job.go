package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/scaffold/internal/domain"
	"github.com/roach88/scaffold/internal/lifecycle"
)

// JobDetail is the output of job show.
type JobDetail struct {
	Job        domain.Job         `json:"job"`
	Dimensions *domain.Dimensions `json:"dimensions,omitempty"`
	Latest     *domain.Model      `json:"latest_model,omitempty"`
}

// WriteText renders the job, its dimensions and its latest revision.
func (d JobDetail) WriteText(w io.Writer) error {
	writeJob(w, d.Job)
	if d.Dimensions != nil {
		writeDimensions(w, *d.Dimensions)
	}
	if d.Latest != nil {
		fmt.Fprintf(w, "Latest:      %s %s (%s)\n", d.Latest.Version, d.Latest.ID, publishedLabel(d.Latest.Published))
	}
	return nil
}

// JobList is the output of job list.
type JobList []domain.Job

// WriteText renders one job per line.
func (l JobList) WriteText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "No jobs found.")
		return err
	}
	for _, j := range l {
		fmt.Fprintf(w, "%s  %-8s  %s\n", j.ID, j.Status, j.Title)
	}
	return nil
}

// JobView is the text rendering of a single job.
type JobView domain.Job

// WriteText renders the job.
func (j JobView) WriteText(w io.Writer) error {
	writeJob(w, domain.Job(j))
	return nil
}

// DimensionsView is the text rendering of recorded dimensions.
type DimensionsView domain.Dimensions

// WriteText renders the dimensions.
func (d DimensionsView) WriteText(w io.Writer) error {
	writeDimensions(w, domain.Dimensions(d))
	return nil
}

func writeJob(w io.Writer, j domain.Job) {
	fmt.Fprintf(w, "Job:         %s\n", j.ID)
	fmt.Fprintf(w, "Title:       %s\n", j.Title)
	if j.SiteAddress != "" {
		fmt.Fprintf(w, "Site:        %s\n", j.SiteAddress)
	}
	fmt.Fprintf(w, "Status:      %s\n", j.Status)
}

func writeDimensions(w io.Writer, d domain.Dimensions) {
	fmt.Fprintf(w, "Dimensions:  %gm long, %gm high, %gm lifts, %gm bays (%s)\n",
		d.LengthM, d.HeightM, d.LiftM, d.BayLengthM, d.Source)
}

// NewJobCommand creates the job command group.
func NewJobCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage scaffolding jobs",
	}

	cmd.AddCommand(newJobCreateCommand(rootOpts))
	cmd.AddCommand(newJobListCommand(rootOpts))
	cmd.AddCommand(newJobShowCommand(rootOpts))
	cmd.AddCommand(newJobDimsCommand(rootOpts))
	cmd.AddCommand(newJobStatusCommand(rootOpts))

	return cmd
}

func newJobCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var id, title, site string
	var dims *dimFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a job",
		Long: `Create a job. Dimension flags, when given, are recorded against the job
and used by model draft when it is called without dimensions.

Examples:
  scaffold job create --title "Harbour Terrace" --site "12 Quay St"
  scaffold job create --title "Shed" --length 4 --height 2 --lift 2`,
		Args:          cobra.NoArgs,
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
			if id == "" {
				id = lifecycle.UUIDv7Generator{}.Generate()
			}
			if dims.set() {
				if err := dims.dims(rootOpts).Validate(); err != nil {
					return report(formatter, err)
				}
			}

			now := lifecycle.SystemClock{}.Now()
			job, err := a.store.CreateJob(ctx, domain.Job{
				ID:          id,
				Title:       title,
				SiteAddress: site,
				CreatedAt:   now,
			})
			if err != nil {
				return report(formatter, err)
			}
			if dims.set() {
				if _, err := a.store.UpsertDimensions(ctx, domain.Dimensions{
					JobID:      job.ID,
					UpdatedAt:  now,
					Dimensions: dims.dims(rootOpts),
				}); err != nil {
					return report(formatter, err)
				}
			}
			return formatter.Success(JobView(job))
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "job id (default: generated UUIDv7)")
	cmd.Flags().StringVar(&title, "title", "", "job title (required)")
	_ = cmd.MarkFlagRequired("title")
	cmd.Flags().StringVar(&site, "site", "", "site address")
	dims = addDimFlags(cmd)

	return cmd
}

func newJobListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List jobs, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			jobs, err := a.store.ListJobs(context.Background())
			if err != nil {
				return report(formatter, err)
			}
			return formatter.Success(JobList(jobs))
		},
	}
}

func newJobShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <job-id>",
		Short:         "Show a job with its dimensions and latest model",
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
			job, err := a.store.GetJob(ctx, args[0])
			if err != nil {
				return report(formatter, err)
			}
			detail := JobDetail{Job: job}

			d, err := a.store.GetDimensions(ctx, job.ID)
			switch {
			case err == nil:
				detail.Dimensions = &d
			case !lifecycle.IsNotFound(err):
				return report(formatter, err)
			}

			latest, ok, err := a.models.Latest(ctx, job.ID)
			if err != nil {
				return report(formatter, err)
			}
			if ok {
				detail.Latest = &latest
			}
			return formatter.Success(detail)
		},
	}
}

func newJobDimsCommand(rootOpts *RootOptions) *cobra.Command {
	var source string
	var dims *dimFlags

	cmd := &cobra.Command{
		Use:   "dims <job-id>",
		Short: "Show or record a job's building dimensions",
		Long: `Without dimension flags, show the recorded dimensions of a job. With them,
replace the recorded dimensions.

Examples:
  scaffold job dims 0192f0c4-...
  scaffold job dims 0192f0c4-... --length 12 --height 8 --lift 2 --source survey`,
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
			if !dims.set() {
				d, err := a.store.GetDimensions(ctx, args[0])
				if err != nil {
					return report(formatter, err)
				}
				return formatter.Success(DimensionsView(d))
			}

			d, err := a.store.UpsertDimensions(ctx, domain.Dimensions{
				JobID:      args[0],
				Source:     source,
				UpdatedAt:  lifecycle.SystemClock{}.Now(),
				Dimensions: dims.dims(rootOpts),
			})
			if err != nil {
				return report(formatter, err)
			}
			return formatter.Success(DimensionsView(d))
		},
	}

	dims = addDimFlags(cmd)
	cmd.Flags().StringVar(&source, "source", "", "where the measurements came from (default: manual)")

	return cmd
}

func newJobStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status <job-id> <draft|active|complete>",
		Short:         "Set a job's status",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			status := domain.JobStatus(args[1])
			if !status.Valid() {
				return reportCode(formatter, ErrCodeBadInput, ExitCommandError,
					fmt.Errorf("invalid status %q: must be draft, active or complete", args[1]))
			}

			a, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			job, err := a.store.UpdateJobStatus(context.Background(), args[0], status)
			if err != nil {
				return report(formatter, err)
			}
			return formatter.Success(JobView(job))
		},
	}
}
