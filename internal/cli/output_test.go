package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E213", "trials: must be at least 1", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "E213", resp.Error.Code)
	assert.Equal(t, "trials: must be at least 1", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := []string{"--randarg --lr float 1e-5 1e-1 log"}
	err := formatter.Error("E201", "randarg: too few tokens", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("Wrote 4 jobs")
	require.NoError(t, err)
	assert.Equal(t, "Wrote 4 jobs\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("E206", "args: grid arg needs a name", nil)
	require.NoError(t, err)
	assert.Equal(t, "Error [E206]: args: grid arg needs a name\n", buf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := []string{"--arg --lr 0.1 0.01"}
	err := formatter.Error("E206", "args: grid arg needs a name", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E206]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Loaded %s", "jobs.json")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Loaded jobs.json")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"count": 42},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded CLIResponse
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded.Status)
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    "E214",
		Message: "jobname: required when tagging",
		Details: []string{"--jobname exp --tag"},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "E214", decoded.Code)
	assert.Equal(t, "jobname: required when tagging", decoded.Message)
}

func TestOutputFormatter_JSONNoHTMLEscape(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"command": "a && b > out"}))
	assert.Contains(t, buf.String(), `"a && b > out"`)
}

func TestOutputFormatter_Lines(t *testing.T) {
	buf := &bytes.Buffer{}
	(&OutputFormatter{Format: "text", Writer: buf}).Lines([]string{"one", "two"})
	assert.Equal(t, "one\ntwo\n", buf.String())

	buf.Reset()
	(&OutputFormatter{Format: "json", Writer: buf}).Lines([]string{"one"})
	assert.Empty(t, buf.String())

	buf.Reset()
	(&OutputFormatter{Format: "text", Writer: buf}).Lines(nil)
	assert.Empty(t, buf.String())
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("Wrote %d jobs", 3)
	assert.Empty(t, out.String())
	assert.Equal(t, "Wrote 3 jobs\n", errOut.String())
}

func TestExitError(t *testing.T) {
	plain := NewExitError(ExitFailure, "failed to save job file")
	assert.Equal(t, "failed to save job file", plain.Error())
	assert.Nil(t, plain.Unwrap())

	cause := errors.New("permission denied")
	wrapped := WrapExitError(ExitFailure, "failed to save job file", cause)
	assert.Equal(t, "failed to save job file: permission denied", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}
