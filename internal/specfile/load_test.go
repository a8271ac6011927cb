package specfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafarodsa/onager/internal/sweep"
)

var wantSpec = sweep.Spec{
	Command: "python train.py",
	Jobname: "exp",
	ArgMode: sweep.ArgModeArgparse,
	Args:    [][]string{{"--lr", "0.1", "0.01"}, {"--use-cuda"}},
	PosArgs: [][]string{{"a.csv", "b.csv"}},
	Flags:   []string{"--verbose"},
	RandArgs: [][]string{
		{"--wd", "float", "1e-5", "1e-2", "log"},
		{"--opt", "choice", "[adam,sgd]"},
		{"--bs", "int", "16", "64"},
	},
	Trials: 2,
	Tag:    sweep.Tagging{Enabled: true, Flag: "--tag", Args: []string{"--lr"}},
}

func TestLoad_AllFormatsAgree(t *testing.T) {
	for _, name := range []string{"sweep.yaml", "sweep.toml", "sweep.cue"} {
		t.Run(name, func(t *testing.T) {
			def, err := Load(filepath.Join("testdata", name))
			require.NoError(t, err)

			got := def.Spec("--tag")
			if diff := cmp.Diff(wantSpec, got); diff != "" {
				t.Errorf("Spec mismatch (-want +got):\n%s", diff)
			}

			// The definition must also expand cleanly.
			res, err := sweep.Generate(got, sweep.Options{Sampler: sweep.NewSampler(1)})
			require.NoError(t, err)
			assert.Len(t, res.Commands, 2*2*1*2*2)
		})
	}
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"yaml unknown field", "s.yaml", "command: x\nbogus: 1\n", "bogus"},
		{"yaml empty", "s.yml", "", "empty document"},
		{"yaml list as scalar", "s.yaml", "args:\n  - name: --lr\n    values: [[1]]\n", "expected a scalar"},
		{"toml unknown field", "s.toml", "command = \"x\"\nbogus = 1\n", "unknown fields: bogus"},
		{"cue missing sweep", "s.cue", "command: \"x\"\n", "missing top-level sweep"},
		{"cue bad arg mode", "s.cue", "sweep: arg_mode: \"fire\"\n", "arg_mode"},
		{"cue unknown field", "s.cue", "sweep: bogus: 1\n", "bogus"},
		{"cue incomplete", "s.cue", "sweep: jobname: string\n", "jobname"},
		{"unsupported extension", "s.json", "{}", "unsupported extension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefinition_TagFlag(t *testing.T) {
	custom := "--run-name"
	empty := ""

	def := &Definition{Command: "c", Jobname: "j", Tag: &Tag{Flag: &custom}}
	assert.Equal(t, "--run-name", def.Spec("--tag").Tag.Flag)

	def.Tag.Flag = &empty
	assert.Equal(t, "", def.Spec("--tag").Tag.Flag)

	def.Tag = nil
	assert.False(t, def.Spec("--tag").Tag.Enabled)
}
