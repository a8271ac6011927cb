package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafarodsa/onager/internal/config"
	"github.com/rafarodsa/onager/internal/jobstore"
	"github.com/rafarodsa/onager/internal/sweep"
)

func lines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestPrelaunch_GridAndFlag(t *testing.T) {
	env := newTestEnv(t)
	jobfile := env.path("jobs", "exp.json")

	res := env.prelaunch("text",
		"--command", "echo",
		"--jobname", "exp",
		"--jobfile", jobfile,
		"--arg", "--x 1 2 3",
		"--flag", "--f",
	)
	require.NoError(t, res.err)

	assert.Equal(t, []string{
		"echo --x 1 --f",
		"echo --x 2 --f",
		"echo --x 3 --f",
		"echo --x 1",
		"echo --x 2",
		"echo --x 3",
	}, lines(res.stdout))

	store, err := jobstore.Load(jobfile)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, store.IDs())
}

func TestPrelaunch_TaggedJobfile(t *testing.T) {
	env := newTestEnv(t)
	jobfile := env.path("jobs.json")

	res := env.prelaunch("text",
		"--command", "python train.py",
		"--jobname", "exp",
		"--jobfile", jobfile,
		"--arg", "--lr 0.1 0.01",
		"--tag",
	)
	require.NoError(t, res.err)

	data, err := os.ReadFile(jobfile)
	require.NoError(t, err)
	assert.Equal(t,
		`{"1": ["python train.py --lr 0.1 --tag exp_1__lr_0.1", "exp_1__lr_0.1"], `+
			`"2": ["python train.py --lr 0.01 --tag exp_2__lr_0.01", "exp_2__lr_0.01"]}`,
		string(data))
}

func TestPrelaunch_AppendContinuesIDs(t *testing.T) {
	env := newTestEnv(t)
	jobfile := env.path("jobs.json")
	base := []string{"--command", "run", "--jobname", "exp", "--jobfile", jobfile, "--tag"}

	res := env.prelaunch("text", append(base, "--arg", "--a 1 2 3")...)
	require.NoError(t, res.err)

	res = env.prelaunch("text", append(base, "--arg", "--b x y", "--append")...)
	require.NoError(t, res.err)
	assert.Equal(t, []string{
		"run --b x --tag exp_4__b_x",
		"run --b y --tag exp_5__b_y",
	}, lines(res.stdout))

	store, err := jobstore.Load(jobfile)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, store.IDs())

	r, ok := store.Get(2)
	require.True(t, ok)
	assert.Equal(t, "exp_2__a_2", r.Tag)
}

func TestPrelaunch_OverwriteRestartsAtOne(t *testing.T) {
	env := newTestEnv(t)
	jobfile := env.path("jobs.json")
	args := []string{"--command", "run", "--jobname", "exp", "--jobfile", jobfile, "--arg", "--a 1 2"}

	require.NoError(t, env.prelaunch("text", args...).err)
	require.NoError(t, env.prelaunch("text", args...).err)

	store, err := jobstore.Load(jobfile)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, store.IDs())
}

func TestPrelaunch_AppendToMissingFileWarns(t *testing.T) {
	env := newTestEnv(t)
	jobfile := env.path("new", "jobs.json")

	res := env.prelaunch("text", "--command", "run", "--jobname", "exp", "--jobfile", jobfile, "--append", "-q")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "job file does not exist")

	store, err := jobstore.Load(jobfile)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, store.IDs())
}

func TestPrelaunch_InputErrorsWriteNothing(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"randarg too short", []string{"--randarg", "--lr float"}, sweep.ErrRandArgTooShort},
		{"randarg inverted", []string{"--randarg", "--lr float 1 0.5"}, sweep.ErrBoundsInverted},
		{"empty tag flag", []string{"--tag="}, sweep.ErrEmptyTagFlag},
		{"negative trials", []string{"--trials", "-2"}, sweep.ErrTrialsInvalid},
		{"bad arg mode", []string{"--arg-mode", "fire"}, sweep.ErrArgModeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			jobfile := env.path("jobs.json")

			args := append([]string{"--command", "run", "--jobname", "exp", "--jobfile", jobfile}, tt.args...)
			res := env.prelaunch("text", args...)
			require.Error(t, res.err)
			assert.Equal(t, ExitCommandError, GetExitCode(res.err))

			var ie *sweep.InputError
			require.ErrorAs(t, res.err, &ie)
			assert.Equal(t, tt.code, ie.Code)

			assert.Empty(t, res.stdout)
			assert.NoFileExists(t, jobfile)
			assert.NoFileExists(t, env.historyPath())
		})
	}
}

func TestPrelaunch_MissingJobname(t *testing.T) {
	env := newTestEnv(t)
	res := env.prelaunch("text", "--command", "run")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.err.Error(), sweep.ErrJobnameMissing)
}

func TestPrelaunch_UnbalancedQuote(t *testing.T) {
	env := newTestEnv(t)
	res := env.prelaunch("text", "--command", "run", "--jobname", "exp", "--arg", `--name "unterminated`)
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.err.Error(), "invalid --arg value")
}

func TestPrelaunch_QuotedArgValues(t *testing.T) {
	env := newTestEnv(t)
	res := env.prelaunch("text",
		"--command", "run", "--jobname", "exp", "--jobfile", env.path("jobs.json"),
		"--arg", `--msg "hello world" bye`,
	)
	require.NoError(t, res.err)
	assert.Equal(t, []string{"run --msg hello world", "run --msg bye"}, lines(res.stdout))
}

func TestPrelaunch_Quiet(t *testing.T) {
	env := newTestEnv(t)
	jobfile := env.path("jobs.json")
	res := env.prelaunch("text", "--command", "run", "--jobname", "exp", "--jobfile", jobfile, "--flag", "--f", "-q")
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)
	assert.FileExists(t, jobfile)
}

func TestPrelaunch_DryRun(t *testing.T) {
	env := newTestEnv(t)
	jobfile := env.path("jobs.json")
	res := env.prelaunch("text", "--command", "run", "--jobname", "exp", "--jobfile", jobfile, "--flag", "--f", "--dry-run")
	require.NoError(t, res.err)
	assert.Len(t, lines(res.stdout), 2)
	assert.NoFileExists(t, jobfile)

	entries := env.historyEntries(t)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].DryRun)
	assert.Equal(t, 2, entries[0].JobCount)
}

func TestPrelaunch_JSONOutput(t *testing.T) {
	env := newTestEnv(t)
	jobfile := env.path("jobs.json")
	res := env.prelaunch("json",
		"--command", "run", "--jobname", "exp", "--jobfile", jobfile,
		"--arg", "--a 1 2", "--tag", "--tag-args", "--missing",
	)
	require.NoError(t, res.err)

	var resp struct {
		Status string          `json:"status"`
		Data   PrelaunchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, jobfile, resp.Data.Jobfile)
	require.Len(t, resp.Data.Jobs, 2)
	assert.Equal(t, jobstore.Record{ID: 1, Command: "run --a 1 --tag exp_1", Tag: "exp_1"}, resp.Data.Jobs[0])
	require.Len(t, resp.Data.Diagnostics, 1)
	assert.Equal(t, sweep.WarnUnknownTagArg, resp.Data.Diagnostics[0].Code)
	assert.Contains(t, res.stderr, "code=W205")
}

func TestPrelaunch_SeedIsReproducible(t *testing.T) {
	env := newTestEnv(t)
	args := []string{
		"--command", "run", "--jobname", "exp", "--jobfile", env.path("jobs.json"),
		"--randarg", "--lr float 1e-5 1e-1 log", "--randarg", "--bs int 8 256",
		"--trials", "4", "--seed", "7", "--tag",
	}

	first := env.prelaunch("text", args...)
	require.NoError(t, first.err)
	second := env.prelaunch("text", args...)
	require.NoError(t, second.err)

	assert.Len(t, lines(first.stdout), 4)
	assert.Equal(t, first.stdout, second.stdout)
	assert.Contains(t, first.stdout, "__trial_4__")
}

func TestPrelaunch_TagFlagFromConfig(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, config.Write(env.paths.Local, "prelaunch", "tag_flag", "--run-name"))

	res := env.prelaunch("text", "--command", "run", "--jobname", "exp", "--jobfile", env.path("jobs.json"), "--tag")
	require.NoError(t, res.err)
	assert.Equal(t, []string{"run --run-name exp_1"}, lines(res.stdout))

	res = env.prelaunch("text", "--command", "run", "--jobname", "exp", "--jobfile", env.path("jobs.json"), "--tag=--other")
	require.NoError(t, res.err)
	assert.Equal(t, []string{"run --other exp_1"}, lines(res.stdout))
}

func TestPrelaunch_JobfileFromConfig(t *testing.T) {
	env := newTestEnv(t)
	template := env.path("runs", "{jobname}", "jobs.json")
	require.NoError(t, config.Write(env.paths.Global, "prelaunch", "jobfile", template))

	res := env.prelaunch("text", "--command", "run", "--jobname", "exp", "-q")
	require.NoError(t, res.err)
	assert.FileExists(t, env.path("runs", "exp", "jobs.json"))
}

func TestPrelaunch_HydraFromSpecFile(t *testing.T) {
	env := newTestEnv(t)
	specPath := env.path("sweep.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(`
command: python main.py
jobname: hyd
arg_mode: hydra
args:
  - name: model.depth
    values: [2, 4]
tag:
  flag: run.tag
`), 0o644))

	res := env.prelaunch("text", "--spec", specPath, "--jobfile", env.path("jobs.json"), "--arg", "optim adam")
	require.NoError(t, res.err)
	assert.Equal(t, []string{
		"python main.py model.depth=2 optim=adam run.tag=hyd_1__model.depth_2__optim_adam",
		"python main.py model.depth=4 optim=adam run.tag=hyd_2__model.depth_4__optim_adam",
	}, lines(res.stdout))
}

func TestPrelaunch_InvalidSpecFile(t *testing.T) {
	env := newTestEnv(t)
	specPath := env.path("sweep.toml")
	require.NoError(t, os.WriteFile(specPath, []byte("bogus = 1\n"), 0o644))

	res := env.prelaunch("text", "--spec", specPath)
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))

	res = env.prelaunch("text", "--spec", filepath.Join(env.dir, "missing.yaml"))
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
}

func TestPrelaunch_RecordsHistory(t *testing.T) {
	env := newTestEnv(t)
	jobfile := env.path("jobs.json")
	res := env.prelaunch("text", "--command", "run", "--jobname", "exp", "--jobfile", jobfile, "--arg", "--a 1 2", "-q")
	require.NoError(t, res.err)

	entries := env.historyEntries(t)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "prelaunch", e.Subcommand)
	assert.Equal(t, "exp", e.Jobname)
	assert.Equal(t, jobfile, e.Jobfile)
	assert.Equal(t, 2, e.JobCount)
	assert.False(t, e.DryRun)
	assert.Len(t, e.SpecHash, 64)
	assert.Equal(t, "h-0001", e.ID)
	assert.Equal(t, epoch, e.RecordedAt)
	assert.Equal(t, []string{
		"--arg", "--a 1 2",
		"--command", "run",
		"--jobfile", jobfile,
		"--jobname", "exp",
		"--quiet",
	}, e.Args)
}

func TestPrelaunch_InputErrorJSON(t *testing.T) {
	env := newTestEnv(t)
	res := env.prelaunch("json",
		"--command", "run",
		"--jobname", "exp",
		"--jobfile", env.path("jobs.json"),
		"--randarg", "--lr float",
	)
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, sweep.ErrRandArgTooShort, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "--lr")
}

func TestPrelaunch_RecordsOptionalValueFlags(t *testing.T) {
	env := newTestEnv(t)
	res := env.prelaunch("text", "--command", "run", "--jobname", "exp",
		"--jobfile", env.path("jobs.json"), "--tag", "--no-tag-number", "-q")
	require.NoError(t, res.err)

	entries := env.historyEntries(t)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Args, "--tag=--tag")
	assert.Contains(t, entries[0].Args, "--no-tag-number")
}

func TestPrelaunch_VerboseLogsBindings(t *testing.T) {
	env := newTestEnv(t)
	opts := env.rootOptions("text")
	opts.Verbose = true

	res := execute(NewPrelaunchCommand(opts),
		"--command", "echo",
		"--jobname", "exp",
		"--jobfile", env.path("jobs.json"),
		"--arg", "--x 1 2",
		"--flag", "--f",
		"-q",
	)
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, `bindings="--x=1 --f"`)
	assert.Contains(t, res.stderr, `bindings="--x=2"`)
}
