package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/rafarodsa/onager/internal/config"
)

// ConfigOptions holds flags for the config command.
type ConfigOptions struct {
	*RootOptions
	Global bool
	Local  bool
	Read   bool
	Write  []string
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or write onager settings",
		Long: `Read or write onager settings.

Settings are merged from ~/.onager/config.yaml (global), .onager/config.yaml
(local) and ONAGER_* environment variables, later sources winning.
Writes go to the local file unless --global is given.

Keys:
  prelaunch.jobfile    default job file template
  prelaunch.arg_mode   default argument style
  prelaunch.tag_flag   flag used by a bare --tag
  history.path         history database

Example:
  onager config --read
  onager config --write "prelaunch jobfile runs/{jobname}.json"
  onager config --global --write "history path /data/onager/history.db"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Global, "global", false, "use the global config file")
	cmd.Flags().BoolVar(&opts.Local, "local", false, "use the local config file")
	cmd.Flags().BoolVar(&opts.Read, "read", false, "print settings")
	cmd.Flags().StringArrayVar(&opts.Write, "write", nil, `set a value: "SECTION KEY VALUE" (repeatable)`)
	cmd.MarkFlagsMutuallyExclusive("global", "local")
	cmd.MarkFlagsOneRequired("read", "write")

	return cmd
}

func runConfig(opts *ConfigOptions, cmd *cobra.Command) error {
	opts.configureLogging(cmd.ErrOrStderr())
	formatter := opts.formatter(cmd)

	paths := config.DefaultPaths()
	if opts.ConfigPaths != nil {
		paths = *opts.ConfigPaths
	}
	target := paths.Local
	if opts.Global {
		target = paths.Global
	}

	for _, raw := range opts.Write {
		parts, err := shlex.Split(raw)
		if err != nil || len(parts) != 3 {
			return NewExitError(ExitCommandError,
				fmt.Sprintf("invalid --write %q: want \"SECTION KEY VALUE\"", raw))
		}
		if target == "" {
			return NewExitError(ExitFailure, "no home directory for the global config file")
		}
		if err := config.Write(target, parts[0], parts[1], parts[2]); err != nil {
			return WrapExitError(ExitFailure, "failed to write config", err)
		}
		formatter.VerboseLog("Set %s.%s in %s", parts[0], parts[1], target)
	}

	if !opts.Read {
		return nil
	}

	if opts.Global || opts.Local {
		return readConfigFile(formatter, target)
	}

	settings, err := opts.Settings()
	if err != nil {
		return err
	}
	all := settings.All()
	if opts.Format == "json" {
		return formatter.Success(all)
	}
	return formatter.Success(renderSettings(all))
}

func readConfigFile(formatter *OutputFormatter, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return formatter.Success(fmt.Sprintf("%s does not exist", path))
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read config", err)
	}
	return formatter.Success(strings.TrimSuffix(string(data), "\n"))
}

// renderSettings prints "section.key = value" lines sorted by key.
func renderSettings(all map[string]map[string]string) string {
	var lines []string
	for section, keys := range all {
		for key, value := range keys {
			name := key
			if section != "" {
				name = section + "." + key
			}
			lines = append(lines, fmt.Sprintf("%s = %s", name, value))
		}
	}
	slices.Sort(lines)
	return strings.Join(lines, "\n")
}
