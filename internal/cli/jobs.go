package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/rafarodsa/onager/internal/jobstore"
)

// JobsOptions holds flags for the jobs command.
type JobsOptions struct {
	*RootOptions
	Jobname  string
	Jobfile  string
	Tasklist string
	Condense bool
}

// NewJobsCommand creates the jobs command.
func NewJobsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JobsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List the jobs of a job file",
		Long: `List the numbered jobs stored for a job name.

A tasklist selects ids: comma-separated ids or first-last ranges with an
optional :step, e.g. "1-10:2,15,20-22".

Example:
  onager jobs --jobname exp
  onager jobs --jobname exp --tasklist 1-4,9
  onager jobs --jobname exp --condense`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Jobname, "jobname", "", "name of the job (required)")
	cmd.Flags().StringVar(&opts.Jobfile, "jobfile", "", "job file path template, {jobname} is expanded")
	cmd.Flags().StringVarP(&opts.Tasklist, "tasklist", "t", "", "ids to show, e.g. 1-10:2,15")
	cmd.Flags().BoolVar(&opts.Condense, "condense", false, "print only the condensed id list")
	_ = cmd.MarkFlagRequired("jobname")

	return cmd
}

// JobsResult is the JSON payload of the jobs command.
type JobsResult struct {
	Jobfile  string            `json:"jobfile"`
	Tasklist string            `json:"tasklist"`
	Jobs     []jobstore.Record `json:"jobs"`
}

func runJobs(opts *JobsOptions, cmd *cobra.Command) error {
	opts.configureLogging(cmd.ErrOrStderr())
	formatter := opts.formatter(cmd)

	settings, err := opts.Settings()
	if err != nil {
		return err
	}

	template := opts.Jobfile
	if template == "" {
		template = settings.Jobfile()
	}
	path := jobstore.ResolvePath(template, opts.Jobname)

	store, err := jobstore.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("no job file for %q", opts.Jobname), err)
		}
		return WrapExitError(ExitFailure, "failed to load job file", err)
	}
	formatter.VerboseLog("Loaded %d jobs from %s", store.Len(), path)

	records := store.Records()
	if opts.Tasklist != "" {
		ids, err := jobstore.ExpandIDs(opts.Tasklist)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid tasklist", err)
		}
		if records, err = store.Select(ids); err != nil {
			return WrapExitError(ExitCommandError, "invalid tasklist", err)
		}
	}

	ids := make([]int, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	condensed := jobstore.CondenseIDs(ids)

	if opts.Format == "json" {
		return formatter.Success(JobsResult{Jobfile: path, Tasklist: condensed, Jobs: records})
	}
	if opts.Condense {
		return formatter.Success(condensed)
	}

	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = fmt.Sprintf("%d\t%s\t%s", r.ID, r.Tag, r.Command)
	}
	formatter.Lines(lines)
	return nil
}
