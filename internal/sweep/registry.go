package sweep

import (
	"fmt"
	"strconv"
	"strings"
)

// GridParam is a named parameter with an explicit list of values.
// An empty Values list makes it a toggle appended without a value.
type GridParam struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// PositionalParam is a parameter appended by position.
type PositionalParam struct {
	Index  int      `json:"index"`
	Values []string `json:"values"`
}

// RandomParam is a validated random parameter. For KindChoice, Lower holds
// the raw candidate set and Upper is empty.
type RandomParam struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Lower string `json:"lower"`
	Upper string `json:"upper,omitempty"`
	Space Space  `json:"space"`
}

// Registry holds the normalized per-class parameter tables, each in
// specification order.
type Registry struct {
	Grid       []GridParam       `json:"grid"`
	Positional []PositionalParam `json:"positional"`
	Flags      []string          `json:"flags"`
	Random     []RandomParam     `json:"random"`
}

// NewRegistry normalizes the raw token lists of spec. Random specs are
// validated eagerly, before anything is sampled.
func NewRegistry(spec Spec) (*Registry, []Diagnostic, error) {
	reg := &Registry{}
	var diags []Diagnostic
	seen := make(map[string]bool)

	for i, tokens := range spec.Args {
		if len(tokens) == 0 || tokens[0] == "" {
			return nil, nil, inputErr(ErrGridNameMissing, fmt.Sprintf("arg[%d]", i), "an argument needs a name followed by zero or more values").
				withExamples("--arg '--lr 0.1 0.01'", "--arg '--use-cuda'")
		}
		name := tokens[0]
		if seen[name] {
			return nil, nil, inputErr(ErrDuplicateParam, name, "parameter is specified more than once")
		}
		seen[name] = true
		reg.Grid = append(reg.Grid, GridParam{Name: name, Values: append([]string{}, tokens[1:]...)})
	}

	for i, values := range spec.PosArgs {
		if len(values) == 0 {
			return nil, nil, inputErr(ErrPositionalEmpty, fmt.Sprintf("pos-arg[%d]", i), "a positional argument needs at least one value").
				withExamples("--pos-arg 'train.csv test.csv'")
		}
		reg.Positional = append(reg.Positional, PositionalParam{Index: i, Values: append([]string{}, values...)})
	}

	for i, flag := range spec.Flags {
		if strings.TrimSpace(flag) == "" {
			return nil, nil, inputErr(ErrFlagEmpty, fmt.Sprintf("flag[%d]", i), "flag must not be empty")
		}
		reg.Flags = append(reg.Flags, flag)
	}

	for _, tokens := range spec.RandArgs {
		p, d, err := parseRandomParam(tokens)
		if err != nil {
			return nil, nil, err
		}
		if seen[p.Name] {
			return nil, nil, inputErr(ErrDuplicateParam, p.Name, "parameter is specified more than once")
		}
		seen[p.Name] = true
		diags = append(diags, d...)
		reg.Random = append(reg.Random, p)
	}

	return reg, diags, nil
}

// parseRandomParam validates one [name, kind, bound_a, bound_b?, space?] spec.
func parseRandomParam(tokens []string) (RandomParam, []Diagnostic, error) {
	got := strings.Join(tokens, " ")
	if len(tokens) < 3 {
		return RandomParam{}, nil, inputErr(ErrRandArgTooShort, "randarg",
			"requires at least 3 arguments: parameter_name type value_or_choices, got: %q", got).
			withExamples(randArgExamples...)
	}

	name := tokens[0]
	kind := Kind(strings.ToLower(tokens[1]))
	var diags []Diagnostic

	switch kind {
	case KindChoice:
		raw := tokens[2]
		bracketed := strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]")
		if !bracketed && !strings.Contains(raw, ",") {
			return RandomParam{}, nil, inputErr(ErrChoiceFormat, name,
				"choices must be a comma-separated list in brackets or separated by commas, got: %q", raw).
				withExamples("[adam,sgd,rmsprop]", "adam,sgd,rmsprop")
		}
		if len(ParseChoices(raw)) == 0 {
			return RandomParam{}, nil, inputErr(ErrChoiceEmpty, name,
				"empty choices list; you must provide at least one choice")
		}
		if len(tokens) > 3 {
			diags = append(diags, warn(WarnSurplusTokens, name,
				"ignoring extra arguments for choice type: %s", strings.Join(tokens[3:], " ")))
		}
		return RandomParam{Name: name, Kind: KindChoice, Lower: raw, Space: SpaceLinear}, diags, nil

	case KindInt, KindFloat:
		if len(tokens) < 4 {
			return RandomParam{}, nil, inputErr(ErrBoundsMissing, name,
				"randarg with %q type requires 4 arguments: parameter_name %s min_value max_value, got: %q", kind, kind, got).
				withExamples(fmt.Sprintf("--randarg '%s %s 0.001 0.1'", name, kind))
		}
		p := RandomParam{Name: name, Kind: kind, Lower: tokens[2], Upper: tokens[3], Space: SpaceLinear}

		surplus := tokens[4:]
		if kind == KindFloat && len(surplus) > 0 && strings.ToLower(surplus[0]) == string(SpaceLog) {
			p.Space = SpaceLog
			surplus = surplus[1:]
		}
		if len(surplus) > 0 {
			diags = append(diags, warn(WarnSurplusTokens, name,
				"ignoring extra arguments for randarg: %s", strings.Join(surplus, " ")))
		}

		lo, ordered, err := parseBounds(kind, p.Lower, p.Upper)
		if err != nil {
			return RandomParam{}, nil, inputErr(ErrBoundNotNumeric, name,
				"could not convert min/max values to %s, got: min=%s, max=%s", kind, p.Lower, p.Upper)
		}
		if p.Space == SpaceLog && lo <= 0 {
			diags = append(diags, warn(WarnLogNonPositive, name,
				"log sampling requires positive values; min value will be adjusted when sampling"))
		}
		if !ordered {
			return RandomParam{}, nil, inputErr(ErrBoundsInverted, name,
				"min_value must be less than max_value, got: min=%s, max=%s", p.Lower, p.Upper)
		}
		return p, diags, nil

	default:
		return RandomParam{}, nil, inputErr(ErrUnknownKind, name,
			"invalid parameter type %q; supported types: int, float, choice", tokens[1]).
			withExamples(randArgExamples...)
	}
}

// parseBounds checks both bounds parse as the declared kind. It returns the
// lower bound as a float64 and whether lower < upper, compared in the
// declared kind so large ints keep their precision.
func parseBounds(kind Kind, a, b string) (float64, bool, error) {
	if kind == KindInt {
		lo, err := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
		if err != nil {
			return 0, false, err
		}
		hi, err := strconv.ParseInt(strings.TrimSpace(b), 10, 64)
		if err != nil {
			return 0, false, err
		}
		return float64(lo), lo < hi, nil
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, false, err
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, false, err
	}
	return lo, lo < hi, nil
}

// Names returns the named parameters (grid, then random) in specification order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Grid)+len(r.Random))
	for _, g := range r.Grid {
		names = append(names, g.Name)
	}
	for _, p := range r.Random {
		names = append(names, p.Name)
	}
	return names
}

// ExpectedCount returns trials × Πgrid × Πpositional × 2^flags.
// Empty grid lists count as one.
func (r *Registry) ExpectedCount(trials int) int {
	n := trials
	for _, g := range r.Grid {
		if len(g.Values) > 0 {
			n *= len(g.Values)
		}
	}
	for _, p := range r.Positional {
		n *= len(p.Values)
	}
	for range r.Flags {
		n *= 2
	}
	return n
}
