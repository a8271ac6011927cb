package sweep

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
)

// logFloor replaces a non-positive lower bound under log sampling.
const logFloor = 1e-10

// Sampler draws random parameter values from a single generator.
// A Sampler is not safe for concurrent use.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler returns a Sampler seeded with seed. A zero seed draws the seed
// from the runtime, so runs are not reproducible.
func NewSampler(seed uint64) *Sampler {
	if seed == 0 {
		return &Sampler{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
	}
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Sample draws one value of the given kind and returns it as a string.
//
// Anomalies never fail the call. Instead a diagnostic is returned together
// with a fallback value: bound a for an unknown kind or an unparseable bound,
// the raw input for an empty choice set.
func (s *Sampler) Sample(kind string, a, b string, space Space) (string, []Diagnostic) {
	switch Kind(strings.ToLower(kind)) {
	case KindChoice:
		choices := ParseChoices(a)
		if len(choices) == 0 {
			return a, []Diagnostic{warn(WarnChoiceEmpty, "", "no valid choices found in %q", a)}
		}
		return choices[s.rng.IntN(len(choices))], nil

	case KindInt:
		lo, errLo := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
		hi, errHi := strconv.ParseInt(strings.TrimSpace(b), 10, 64)
		if errLo != nil || errHi != nil || lo > hi {
			return a, []Diagnostic{warn(WarnNotNumeric, "", "could not convert %q or %q to an int range", a, b)}
		}
		return strconv.FormatInt(s.int64Between(lo, hi), 10), nil

	case KindFloat:
		lo, errLo := strconv.ParseFloat(strings.TrimSpace(a), 64)
		hi, errHi := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if errLo != nil || errHi != nil {
			return a, []Diagnostic{warn(WarnNotNumeric, "", "could not convert %q or %q to float", a, b)}
		}
		if Space(strings.ToLower(string(space))) != SpaceLog {
			return FormatFloat(lo + s.rng.Float64()*(hi-lo)), nil
		}

		var diags []Diagnostic
		if lo <= 0 {
			diags = append(diags, warn(WarnLogNonPositive, "",
				"log sampling requires positive values; min value %v replaced with %g", lo, logFloor))
			lo = logFloor
		}
		if hi <= 0 {
			diags = append(diags, warn(WarnNotNumeric, "", "log sampling requires a positive max value, got %v", hi))
			return a, diags
		}
		logLo, logHi := math.Log(lo), math.Log(hi)
		return FormatFloat(math.Exp(logLo + s.rng.Float64()*(logHi-logLo))), diags

	default:
		return a, []Diagnostic{warn(WarnUnknownKind, "", "unknown parameter type: %s", kind)}
	}
}

// int64Between draws uniformly from [lo, hi]. The span is computed in
// uint64 so ranges wider than math.MaxInt64 do not overflow.
func (s *Sampler) int64Between(lo, hi int64) int64 {
	span := uint64(hi) - uint64(lo)
	if span == math.MaxUint64 {
		return int64(s.rng.Uint64())
	}
	return lo + int64(s.rng.Uint64N(span+1))
}

// ParseChoices splits "[a,b,c]" or "a,b,c" into trimmed, non-empty candidates.
func ParseChoices(raw string) []string {
	body := raw
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") && len(raw) >= 2 {
		body = raw[1 : len(raw)-1]
	}
	var choices []string
	for _, c := range strings.Split(body, ",") {
		if c = strings.TrimSpace(c); c != "" {
			choices = append(choices, c)
		}
	}
	return choices
}

// FormatFloat renders v with five significant digits in scientific notation
// when |v| < 1e-3 or |v| >= 1e4, and with five decimals otherwise.
func FormatFloat(v float64) string {
	if a := math.Abs(v); a < 1e-3 || a >= 1e4 {
		return strconv.FormatFloat(v, 'e', 5, 64)
	}
	return strconv.FormatFloat(v, 'f', 5, 64)
}

// reformatFloat re-applies FormatFloat to an already rendered value.
// Values that do not parse are returned unchanged.
func reformatFloat(s string) string {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return FormatFloat(v)
}
