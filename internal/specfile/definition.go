package specfile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rafarodsa/onager/internal/sweep"
)

// Definition is a sweep as written in a spec file.
type Definition struct {
	Command  string     `yaml:"command" toml:"command" json:"command"`
	Jobname  string     `yaml:"jobname" toml:"jobname" json:"jobname"`
	Jobfile  string     `yaml:"jobfile" toml:"jobfile" json:"jobfile"`
	ArgMode  string     `yaml:"arg_mode" toml:"arg_mode" json:"arg_mode"`
	Args     []Arg      `yaml:"args" toml:"args" json:"args"`
	PosArgs  [][]Scalar `yaml:"pos_args" toml:"pos_args" json:"pos_args"`
	Flags    []string   `yaml:"flags" toml:"flags" json:"flags"`
	RandArgs []RandArg  `yaml:"randargs" toml:"randargs" json:"randargs"`
	Trials   int        `yaml:"trials" toml:"trials" json:"trials"`
	Tag      *Tag       `yaml:"tag" toml:"tag" json:"tag"`
}

// Arg is a grid parameter. No values makes it a name-only toggle.
type Arg struct {
	Name   string   `yaml:"name" toml:"name" json:"name"`
	Values []Scalar `yaml:"values" toml:"values" json:"values"`
}

// RandArg is a random parameter. Choice parameters use Choices; int and
// float parameters use Low, High and optionally Space.
type RandArg struct {
	Name    string   `yaml:"name" toml:"name" json:"name"`
	Kind    string   `yaml:"kind" toml:"kind" json:"kind"`
	Choices []Scalar `yaml:"choices" toml:"choices" json:"choices"`
	Low     *Scalar  `yaml:"low" toml:"low" json:"low"`
	High    *Scalar  `yaml:"high" toml:"high" json:"high"`
	Space   string   `yaml:"space" toml:"space" json:"space"`
}

// Tag enables tagging. A nil Flag selects the default tag flag.
type Tag struct {
	Flag     *string  `yaml:"flag" toml:"flag" json:"flag"`
	Args     []string `yaml:"args" toml:"args" json:"args"`
	NoNumber bool     `yaml:"no_number" toml:"no_number" json:"no_number"`
}

// Scalar is a parameter value kept as written. Numbers are accepted
// unquoted in every format.
type Scalar string

func (s *Scalar) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", n.Line)
	}
	*s = Scalar(n.Value)
	return nil
}

func (s *Scalar) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		*s = Scalar(v)
	case int64:
		*s = Scalar(strconv.FormatInt(v, 10))
	case float64:
		*s = Scalar(strconv.FormatFloat(v, 'g', -1, 64))
	case bool:
		*s = Scalar(strconv.FormatBool(v))
	default:
		return fmt.Errorf("expected a scalar value, got %T", v)
	}
	return nil
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.(type) {
	case float64, bool:
		*s = Scalar(data)
		return nil
	default:
		return fmt.Errorf("expected a scalar value, got %s", data)
	}
}

func scalars(in []Scalar) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

// tokens renders a random parameter as the token list the registry
// validates: [name, kind, a, b?, space?].
func (r RandArg) tokens() []string {
	toks := []string{r.Name, r.Kind}
	if strings.EqualFold(r.Kind, string(sweep.KindChoice)) {
		return append(toks, "["+strings.Join(scalars(r.Choices), ",")+"]")
	}
	if r.Low != nil {
		toks = append(toks, string(*r.Low))
	}
	if r.High != nil {
		toks = append(toks, string(*r.High))
	}
	if r.Space != "" && r.Space != string(sweep.SpaceLinear) {
		toks = append(toks, r.Space)
	}
	return toks
}

// Spec converts the definition into sweep input. defaultTagFlag is used
// when tagging is enabled without a flag.
func (d *Definition) Spec(defaultTagFlag string) sweep.Spec {
	spec := sweep.Spec{
		Command: d.Command,
		Jobname: d.Jobname,
		ArgMode: sweep.ArgMode(d.ArgMode),
		Flags:   append([]string(nil), d.Flags...),
		Trials:  d.Trials,
	}
	for _, a := range d.Args {
		spec.Args = append(spec.Args, append([]string{a.Name}, scalars(a.Values)...))
	}
	for _, p := range d.PosArgs {
		spec.PosArgs = append(spec.PosArgs, scalars(p))
	}
	for _, r := range d.RandArgs {
		spec.RandArgs = append(spec.RandArgs, r.tokens())
	}
	if d.Tag != nil {
		spec.Tag = sweep.Tagging{
			Enabled:  true,
			Flag:     defaultTagFlag,
			Args:     append([]string(nil), d.Tag.Args...),
			NoNumber: d.Tag.NoNumber,
		}
		if d.Tag.Flag != nil {
			spec.Tag.Flag = *d.Tag.Flag
		}
	}
	return spec
}
