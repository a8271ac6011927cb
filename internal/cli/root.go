package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rafarodsa/onager/internal/config"
	"github.com/rafarodsa/onager/internal/history"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// ConfigPaths overrides the config file locations (for testing).
	// If nil, defaults to config.DefaultPaths().
	ConfigPaths *config.Paths

	// HistoryOptions are passed to history.Open (for testing).
	HistoryOptions []history.Option

	settings *config.Settings
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the onager CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "onager",
		Short: "onager - parameter sweep job generator",
		Long: `Generate batches of command variants for grid and random search experiments.

Each variant gets a unique tag and a numbered job id, and is stored in a
job file for later dispatch.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewPrelaunchCommand(opts))
	cmd.AddCommand(NewJobsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// configureLogging installs the default slog logger on w.
// Debug records are shown only in verbose mode.
func (o *RootOptions) configureLogging(w io.Writer) {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// Settings loads the layered configuration once per process.
func (o *RootOptions) Settings() (*config.Settings, error) {
	if o.settings != nil {
		return o.settings, nil
	}
	paths := config.DefaultPaths()
	if o.ConfigPaths != nil {
		paths = *o.ConfigPaths
	}
	s, err := config.Load(paths)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to load configuration", err)
	}
	o.settings = s
	return s, nil
}

// formatter builds the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
