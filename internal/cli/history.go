package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rafarodsa/onager/internal/history"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit     int
	Since     string
	Prelaunch bool
	NoDryRun  bool
	Full      bool
	Details   string

	// Now anchors relative times in the table (for testing).
	// If nil, defaults to time.Now.
	Now func() time.Time
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Display command history",
		Long: `Display previously run onager commands.

Example:
  onager history -n 10
  onager history --since 2024-03-01 --prelaunch --no-dry-run
  onager history --details -1
  onager history --details exp`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "show only the last N entries")
	cmd.Flags().StringVar(&opts.Since, "since", "", `show entries since "DATE [TIME]"`)
	cmd.Flags().BoolVar(&opts.Prelaunch, "prelaunch", false, "show prelaunch commands only")
	cmd.Flags().BoolVar(&opts.NoDryRun, "no-dry-run", false, "hide dry-run commands")
	cmd.Flags().BoolVar(&opts.Full, "full", false, "show full commands in the table")
	cmd.Flags().StringVar(&opts.Details, "details", "", "show one entry by ID or JOBNAME (-1 for the previous command)")

	return cmd
}

// sinceLayouts are accepted by --since, in local time.
var sinceLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseSince(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range sinceLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q: want YYYY-MM-DD [HH:MM[:SS]]", s)
}

// commandWidth is the display width of the command column unless --full is given.
const commandWidth = 60

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	opts.configureLogging(cmd.ErrOrStderr())
	formatter := opts.formatter(cmd)

	settings, err := opts.Settings()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("-n must not be negative, got %d", opts.Limit))
	}
	filter := history.Filter{Limit: opts.Limit, HideDryRun: opts.NoDryRun}
	if opts.Prelaunch {
		filter.Subcommand = "prelaunch"
	}
	if opts.Since != "" {
		if filter.Since, err = parseSince(opts.Since); err != nil {
			return WrapExitError(ExitCommandError, "invalid --since", err)
		}
	}

	log, err := history.Open(settings.HistoryPath(), opts.HistoryOptions...)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open history", err)
	}
	defer log.Close()

	if opts.Details != "" {
		return showDetails(ctx, opts, formatter, log)
	}

	entries, err := log.List(ctx, filter)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read history", err)
	}

	if opts.Format == "json" {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		return formatter.Success("No history entries.")
	}
	return formatter.Success(renderHistoryTable(entries, opts.Full, opts.now()))
}

func (o *HistoryOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func showDetails(ctx context.Context, opts *HistoryOptions, formatter *OutputFormatter, log *history.Log) error {
	e, err := log.Get(ctx, opts.Details)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return WrapExitError(ExitCommandError, "no matching history entry", err)
		}
		return WrapExitError(ExitFailure, "failed to read history", err)
	}

	if opts.Format == "json" {
		return formatter.Success(e)
	}

	label := lipgloss.NewStyle().Bold(true)
	var b strings.Builder
	row := func(name, value string) {
		fmt.Fprintf(&b, "%s %s\n", label.Render(fmt.Sprintf("%-10s", name+":")), value)
	}
	row("ID", e.ID)
	row("Seq", fmt.Sprint(e.Seq))
	row("Date", e.RecordedAt.Local().Format("2006-01-02 15:04:05"))
	row("Command", e.CommandLine())
	row("Jobname", e.Jobname)
	row("Jobfile", e.Jobfile)
	row("Jobs", humanize.Comma(int64(e.JobCount)))
	row("Dry run", fmt.Sprint(e.DryRun))
	row("Spec hash", e.SpecHash)
	return formatter.Success(strings.TrimSuffix(b.String(), "\n"))
}

// renderHistoryTable lays entries out as a bordered table.
func renderHistoryTable(entries []history.Entry, full bool, now time.Time) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, len(entries))
	for i, e := range entries {
		command := e.CommandLine()
		if !full {
			command = ansi.Truncate(command, commandWidth, "...")
		}
		dry := ""
		if e.DryRun {
			dry = "yes"
		}
		rows[i] = []string{
			fmt.Sprint(e.Seq),
			humanize.RelTime(e.RecordedAt, now, "ago", "from now"),
			e.Jobname,
			humanize.Comma(int64(e.JobCount)),
			dry,
			command,
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "WHEN", "JOBNAME", "JOBS", "DRY RUN", "COMMAND").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}
