package sweep

import "fmt"

// Tag separators and flag markers.
const (
	Sep            = "_"  // joins a key with its value, and a jobname with its number
	WordSep        = "__" // joins tag components
	FlagOn         = "+"
	FlagOff        = "-"
	DefaultTagFlag = "--tag"
)

// Kind is the sampling rule of a random parameter.
type Kind string

const (
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindChoice Kind = "choice"
)

// Space is the sampling space of a float parameter.
type Space string

const (
	SpaceLinear Space = "linear"
	SpaceLog    Space = "log"
)

// ArgMode controls how a named parameter is joined with its value.
type ArgMode string

const (
	ArgModeArgparse ArgMode = "argparse" // --name value
	ArgModeHydra    ArgMode = "hydra"    // name=value
)

// Separator returns the string placed between a parameter name and its value.
func (m ArgMode) Separator() (string, error) {
	switch m {
	case ArgModeArgparse, "":
		return " ", nil
	case ArgModeHydra:
		return "=", nil
	default:
		return "", inputErr(ErrArgModeInvalid, "arg-mode", "unknown arg mode %q: must be argparse or hydra", string(m))
	}
}

// Tagging configures the tag appended to every generated command.
type Tagging struct {
	// Enabled turns tagging on.
	Enabled bool `json:"enabled"`

	// Flag is the argument the tag is passed to, e.g. "--tag".
	// An empty Flag with Enabled set is a fatal input error.
	Flag string `json:"flag,omitempty"`

	// Args selects the tag-bearing named parameters. Nil selects all of them.
	Args []string `json:"args,omitempty"`

	// NoNumber disables auto-numbering; tags are then jobname + suffix.
	NoNumber bool `json:"no_number,omitempty"`
}

// Spec is the raw, unvalidated description of a sweep.
// Token lists mirror what a command line provides:
//   - Args:     [name, value...]
//   - PosArgs:  [value...]
//   - RandArgs: [name, kind, bound_a, bound_b?, space?]
type Spec struct {
	Command  string     `json:"command"`
	Jobname  string     `json:"jobname"`
	ArgMode  ArgMode    `json:"arg_mode,omitempty"`
	Args     [][]string `json:"args,omitempty"`
	PosArgs  [][]string `json:"pos_args,omitempty"`
	Flags    []string   `json:"flags,omitempty"`
	RandArgs [][]string `json:"randargs,omitempty"`
	Trials   int        `json:"trials"`
	Tag      Tagging    `json:"tag"`
}

// Binding is one parameter choice made for a command.
type Binding struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Command is one generated variant of the base command.
type Command struct {
	Command  string    `json:"command"`
	Tag      string    `json:"tag"`
	Trial    int       `json:"trial"`
	Bindings []Binding `json:"bindings,omitempty"`
}

// Result is the outcome of Generate.
type Result struct {
	Commands    []Command    `json:"commands"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

func (b Binding) String() string {
	if b.Value == "" {
		return b.Name
	}
	return fmt.Sprintf("%s=%s", b.Name, b.Value)
}
