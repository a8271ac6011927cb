package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/rafarodsa/onager/internal/config"
	"github.com/rafarodsa/onager/internal/history"
	"github.com/rafarodsa/onager/internal/testutil"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// testEnv isolates configuration and history in a temp directory.
type testEnv struct {
	dir   string
	paths config.Paths
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		dir: dir,
		paths: config.Paths{
			Global: filepath.Join(dir, "home", ".onager", "config.yaml"),
			Local:  filepath.Join(dir, "project", ".onager", "config.yaml"),
		},
	}
}

// rootOptions returns fresh options wired to the environment. History
// entries are stamped one minute apart from epoch.
func (e *testEnv) rootOptions(format string) *RootOptions {
	paths := e.paths
	return &RootOptions{
		Format:      format,
		ConfigPaths: &paths,
		HistoryOptions: []history.Option{
			history.WithClock(testutil.NewStepClock(epoch, time.Minute)),
			history.WithIDGenerator(testutil.NewSequentialIDs("h")),
		},
	}
}

func (e *testEnv) path(elem ...string) string {
	return filepath.Join(append([]string{e.dir}, elem...)...)
}

func (e *testEnv) historyPath() string {
	return filepath.Join(filepath.Dir(e.paths.Global), "history.db")
}

type cmdResult struct {
	stdout string
	stderr string
	err    error
}

func execute(cmd *cobra.Command, args ...string) cmdResult {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func (e *testEnv) prelaunch(format string, args ...string) cmdResult {
	return execute(NewPrelaunchCommand(e.rootOptions(format)), args...)
}

// historyEntries reads the history log written by the commands under test.
func (e *testEnv) historyEntries(t *testing.T) []history.Entry {
	t.Helper()
	log, err := history.Open(e.historyPath())
	require.NoError(t, err)
	defer log.Close()

	entries, err := log.List(context.Background(), history.Filter{})
	require.NoError(t, err)
	return entries
}
