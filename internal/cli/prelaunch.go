package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/rafarodsa/onager/internal/config"
	"github.com/rafarodsa/onager/internal/history"
	"github.com/rafarodsa/onager/internal/jobstore"
	"github.com/rafarodsa/onager/internal/specfile"
	"github.com/rafarodsa/onager/internal/sweep"
)

// PrelaunchOptions holds flags for the prelaunch command.
type PrelaunchOptions struct {
	*RootOptions
	Command     string
	Jobname     string
	Jobfile     string
	ArgMode     string
	Args        []string
	PosArgs     []string
	Flags       []string
	RandArgs    []string
	Trials      int
	Tag         string
	TagArgs     []string
	NoTagNumber bool
	Append      bool
	Quiet       bool
	DryRun      bool
	Seed        uint64
	SpecFile    string
}

// NewPrelaunchCommand creates the prelaunch command.
func NewPrelaunchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PrelaunchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "prelaunch",
		Short: "Generate a job file from a parameter sweep",
		Long: `Expand a base command over grid, positional, flag and random parameters
and store every variant as a numbered job.

Commands are ordered positional, grid, random, then flags; each later
parameter changes more slowly than the ones before it.

Example:
  onager prelaunch --jobname exp --command "python train.py" \
      --arg "--lr 0.1 0.01" --flag --cuda --tag
  onager prelaunch --jobname exp --command "python train.py" \
      --randarg "--wd float 1e-5 1e-2 log" --trials 10 --append
  onager prelaunch --spec sweep.yaml --seed 7`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrelaunch(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Command, "command", "", "base command to expand")
	f.StringVar(&opts.Jobname, "jobname", "", "name of the job (required unless set by --spec)")
	f.StringVar(&opts.Jobfile, "jobfile", "", "job file path template, {jobname} is expanded")
	f.StringVar(&opts.ArgMode, "arg-mode", "", "argument style: argparse (--name value) or hydra (name=value)")
	f.StringArrayVar(&opts.Args, "arg", nil, `grid parameter "NAME V1 V2 ..." (repeatable)`)
	f.StringArrayVar(&opts.PosArgs, "pos-arg", nil, `positional parameter "V1 V2 ..." (repeatable)`)
	f.StringArrayVar(&opts.Flags, "flag", nil, "flag swept present/absent (repeatable)")
	f.StringArrayVar(&opts.RandArgs, "randarg", nil, `random parameter "NAME KIND A [B] [log]" (repeatable)`)
	f.IntVar(&opts.Trials, "trials", 1, "number of random trials")
	f.StringVar(&opts.Tag, "tag", "", "pass a unique tag to each command through this flag")
	f.Lookup("tag").NoOptDefVal = sweep.DefaultTagFlag
	f.StringSliceVar(&opts.TagArgs, "tag-args", nil, "parameters included in the tag (default all)")
	f.BoolVar(&opts.NoTagNumber, "no-tag-number", false, "do not number tags")
	f.BoolVarP(&opts.Append, "append", "a", false, "append to an existing job file")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "do not print generated commands")
	f.BoolVar(&opts.DryRun, "dry-run", false, "print commands without writing the job file")
	f.Uint64Var(&opts.Seed, "seed", 0, "random seed (0 seeds from the runtime)")
	f.StringVar(&opts.SpecFile, "spec", "", "read the sweep from a .yaml, .toml or .cue file")

	return cmd
}

// PrelaunchResult is the JSON payload of a prelaunch run.
type PrelaunchResult struct {
	Jobname     string             `json:"jobname"`
	Jobfile     string             `json:"jobfile"`
	DryRun      bool               `json:"dry_run"`
	SpecHash    string             `json:"spec_hash"`
	Jobs        []jobstore.Record  `json:"jobs"`
	Diagnostics []sweep.Diagnostic `json:"diagnostics,omitempty"`
}

func runPrelaunch(opts *PrelaunchOptions, cmd *cobra.Command) error {
	opts.configureLogging(cmd.ErrOrStderr())
	formatter := opts.formatter(cmd)

	settings, err := opts.Settings()
	if err != nil {
		return err
	}

	spec, jobfileTemplate, err := buildSpec(opts, cmd, settings)
	if err != nil {
		return err
	}

	path := jobstore.ResolvePath(jobfileTemplate, spec.Jobname)
	store := jobstore.New()
	if opts.Append && spec.Jobname != "" {
		store, err = loadForAppend(path)
		if err != nil {
			return err
		}
	}

	result, err := sweep.Generate(spec, sweep.Options{
		Sampler:     sweep.NewSampler(opts.Seed),
		StartNumber: store.NextID(),
	})
	if err != nil {
		var ie *sweep.InputError
		if opts.Format == "json" && errors.As(err, &ie) {
			_ = formatter.Error(ie.Code, ie.Field+": "+ie.Message, ie.Examples)
		}
		return wrapInputAware(ExitFailure, "invalid sweep", err)
	}
	for _, d := range result.Diagnostics {
		slog.Warn(d.Message, "code", d.Code, "param", d.Param)
	}
	for _, c := range result.Commands {
		slog.Debug("variant", "tag", c.Tag, "trial", c.Trial, "bindings", bindingList(c.Bindings))
	}

	records := store.Add(result.Commands)
	if !opts.DryRun {
		if err := store.Save(path); err != nil {
			return WrapExitError(ExitFailure, "failed to write job file", err)
		}
		slog.Debug("job file written", "path", path, "jobs", store.Len(), "new", len(records))
	}

	hash, err := sweep.Fingerprint(spec)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to fingerprint sweep", err)
	}

	if opts.Format == "json" {
		if err := formatter.Success(PrelaunchResult{
			Jobname:     spec.Jobname,
			Jobfile:     path,
			DryRun:      opts.DryRun,
			SpecHash:    hash,
			Jobs:        records,
			Diagnostics: result.Diagnostics,
		}); err != nil {
			return err
		}
	} else if !opts.Quiet {
		lines := make([]string, len(records))
		for i, r := range records {
			lines[i] = r.Command
		}
		formatter.Lines(lines)
	}

	recordHistory(cmd.Context(), opts.RootOptions, settings, history.Entry{
		Subcommand: "prelaunch",
		Jobname:    spec.Jobname,
		Jobfile:    path,
		DryRun:     opts.DryRun,
		JobCount:   len(records),
		SpecHash:   hash,
		Args:       invocationArgs(cmd),
	})
	return nil
}

// buildSpec merges the spec file, command-line flags and configuration.
// Flags override file values; list flags are appended to file lists.
func buildSpec(opts *PrelaunchOptions, cmd *cobra.Command, settings *config.Settings) (sweep.Spec, string, error) {
	var (
		spec     sweep.Spec
		template string
	)
	if opts.SpecFile != "" {
		def, err := specfile.Load(opts.SpecFile)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return spec, "", WrapExitError(ExitFailure, "failed to read spec file", err)
			}
			return spec, "", WrapExitError(ExitCommandError, "invalid spec file", err)
		}
		spec = def.Spec(settings.TagFlag())
		template = def.Jobfile
	}

	f := cmd.Flags()
	if f.Changed("command") {
		spec.Command = opts.Command
	}
	if f.Changed("jobname") {
		spec.Jobname = opts.Jobname
	}
	if f.Changed("jobfile") {
		template = opts.Jobfile
	}
	if template == "" {
		template = settings.Jobfile()
	}
	if f.Changed("arg-mode") {
		spec.ArgMode = sweep.ArgMode(opts.ArgMode)
	}
	if spec.ArgMode == "" {
		spec.ArgMode = sweep.ArgMode(settings.ArgMode())
	}
	if f.Changed("trials") || opts.SpecFile == "" {
		spec.Trials = opts.Trials
	}

	for _, raw := range opts.Args {
		toks, err := splitTokens("arg", raw)
		if err != nil {
			return spec, "", err
		}
		spec.Args = append(spec.Args, toks)
	}
	for _, raw := range opts.PosArgs {
		toks, err := splitTokens("pos-arg", raw)
		if err != nil {
			return spec, "", err
		}
		spec.PosArgs = append(spec.PosArgs, toks)
	}
	for _, raw := range opts.RandArgs {
		toks, err := splitTokens("randarg", raw)
		if err != nil {
			return spec, "", err
		}
		spec.RandArgs = append(spec.RandArgs, toks)
	}
	spec.Flags = append(spec.Flags, opts.Flags...)

	if f.Changed("tag") {
		spec.Tag.Enabled = true
		spec.Tag.Flag = opts.Tag
		if opts.Tag == sweep.DefaultTagFlag {
			spec.Tag.Flag = settings.TagFlag()
		}
	}
	spec.Tag.Args = append(spec.Tag.Args, opts.TagArgs...)
	if opts.NoTagNumber {
		spec.Tag.NoNumber = true
	}

	return spec, template, nil
}

// bindingList renders bindings as "name=value" pairs in dimension order.
func bindingList(bindings []sweep.Binding) string {
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = b.String()
	}
	return strings.Join(parts, " ")
}

// splitTokens splits a quoted parameter value the way a shell would.
func splitTokens(flag, raw string) ([]string, error) {
	toks, err := shlex.Split(raw)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid --%s value %q", flag, raw), err)
	}
	return toks, nil
}

// loadForAppend loads the existing job file. A missing file starts an
// empty store.
func loadForAppend(path string) (*jobstore.Store, error) {
	store, err := jobstore.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("job file does not exist, starting a new one", "path", path)
		return jobstore.New(), nil
	}
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to load job file", err)
	}
	return store, nil
}

// recordHistory appends e to the history log. Failures are logged, not
// returned: the job file is already written.
func recordHistory(ctx context.Context, opts *RootOptions, settings *config.Settings, e history.Entry) {
	if ctx == nil {
		ctx = context.Background()
	}
	log, err := history.Open(settings.HistoryPath(), opts.HistoryOptions...)
	if err != nil {
		slog.Warn("history unavailable", "path", settings.HistoryPath(), "error", err)
		return
	}
	defer func() {
		if closeErr := log.Close(); closeErr != nil {
			slog.Error("error closing history", "error", closeErr)
		}
	}()
	if _, err := log.Append(ctx, e); err != nil {
		slog.Warn("failed to record history", "error", err)
	}
}
