// Package config loads layered onager settings.
//
// Precedence, lowest first: built-in defaults, the global file
// (~/.onager/config.yaml), the local file (.onager/config.yaml), then
// ONAGER_* environment variables (ONAGER_PRELAUNCH_JOBFILE, ...).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Setting keys.
const (
	KeyJobfile     = "prelaunch.jobfile"
	KeyArgMode     = "prelaunch.arg_mode"
	KeyTagFlag     = "prelaunch.tag_flag"
	KeyHistoryPath = "history.path"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "ONAGER"

const (
	dirName  = ".onager"
	fileName = "config.yaml"
)

// Paths locates the configuration files.
type Paths struct {
	Global string
	Local  string
}

// DefaultPaths returns ~/.onager/config.yaml and .onager/config.yaml.
// Without a home directory the global file is left empty and skipped.
func DefaultPaths() Paths {
	p := Paths{Local: filepath.Join(dirName, fileName)}
	if home, err := os.UserHomeDir(); err == nil {
		p.Global = filepath.Join(home, dirName, fileName)
	}
	return p
}

// Settings is the merged configuration.
type Settings struct {
	v *viper.Viper
}

// Load merges defaults, files and environment. Missing files are skipped.
func Load(p Paths) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault(KeyJobfile, filepath.Join(dirName, "scripts", "{jobname}", "jobs.json"))
	v.SetDefault(KeyArgMode, "argparse")
	v.SetDefault(KeyTagFlag, "--tag")
	v.SetDefault(KeyHistoryPath, defaultHistoryPath(p))

	for _, path := range []string{p.Global, p.Local} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Settings{v: v}, nil
}

func defaultHistoryPath(p Paths) string {
	if p.Global != "" {
		return filepath.Join(filepath.Dir(p.Global), "history.db")
	}
	return filepath.Join(dirName, "history.db")
}

// Get returns a setting as a string.
func (s *Settings) Get(key string) string {
	return s.v.GetString(key)
}

func (s *Settings) Jobfile() string     { return s.Get(KeyJobfile) }
func (s *Settings) ArgMode() string     { return s.Get(KeyArgMode) }
func (s *Settings) TagFlag() string     { return s.Get(KeyTagFlag) }
func (s *Settings) HistoryPath() string { return s.Get(KeyHistoryPath) }

// All returns every setting keyed by section then key, with environment
// overrides applied.
func (s *Settings) All() map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, key := range s.v.AllKeys() {
		section, name, ok := strings.Cut(key, ".")
		if !ok {
			section, name = "", key
		}
		if out[section] == nil {
			out[section] = make(map[string]string)
		}
		out[section][name] = s.v.GetString(key)
	}
	return out
}
