package sweep

import (
	"errors"
	"fmt"
	"strings"
)

// Input error codes (E200-E219). Any of these aborts the sweep before a
// job store is written.
const (
	ErrRandArgTooShort    = "E201" // random spec has fewer than 3 tokens
	ErrChoiceFormat       = "E202" // choice set is neither bracketed nor comma separated
	ErrChoiceEmpty        = "E203" // choice set parses to zero candidates
	ErrBoundsMissing      = "E204" // int/float spec lacks a lower or upper bound
	ErrBoundNotNumeric    = "E205" // bound does not parse as the declared kind
	ErrBoundsInverted     = "E206" // lower >= upper
	ErrUnknownKind        = "E207" // random kind is not int, float or choice
	ErrEmptyTagFlag       = "E208" // tagging requested with an empty tag flag
	ErrGridNameMissing    = "E209" // grid spec has no name
	ErrPositionalEmpty    = "E210" // positional spec has no values
	ErrFlagEmpty          = "E211" // flag literal is empty
	ErrDuplicateParam     = "E212" // named parameter registered twice
	ErrTrialsInvalid      = "E213" // trial count < 1
	ErrArgModeInvalid     = "E214" // arg mode is not argparse or hydra
	ErrCommandMissing     = "E215" // base command is empty
	ErrJobnameMissing     = "E216" // jobname is empty
	ErrStartNumberInvalid = "E217" // numbering would start below 1
)

var randArgExamples = []string{
	"--randarg '--lr float 0.001 0.1'       # float range: min and max values",
	"--randarg '--lr float 1e-5 1e-1 log'   # float range sampled in log space",
	"--randarg '--bs int 16 128'            # int range: min and max values",
	"--randarg '--opt choice [adam,sgd]'    # choice: list of options, no max value",
}

// InputError is a fatal problem with the structure of a sweep specification.
type InputError struct {
	Code     string   `json:"code"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Examples []string `json:"examples,omitempty"`
}

// Error implements the error interface.
func (e *InputError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Usage renders the message followed by the usage examples, one per line.
func (e *InputError) Usage() string {
	var b strings.Builder
	b.WriteString(e.Error())
	if len(e.Examples) > 0 {
		b.WriteString("\nExamples:")
		for _, ex := range e.Examples {
			b.WriteString("\n  ")
			b.WriteString(ex)
		}
	}
	return b.String()
}

// IsInputError reports whether err is, or wraps, an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

func inputErr(code, field, format string, args ...any) *InputError {
	return &InputError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *InputError) withExamples(examples ...string) *InputError {
	e.Examples = examples
	return e
}
