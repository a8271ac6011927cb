package sweep

import "strings"

// Options controls a Generate call.
type Options struct {
	// Sampler draws random values. Nil uses a runtime-seeded Sampler.
	Sampler *Sampler

	// StartNumber is the number given to the first command's tag; it is the
	// job id the first command will receive. Zero means 1.
	StartNumber int
}

// Generate validates spec and expands it into commands.
//
// For each trial in [1, spec.Trials] every random parameter is sampled once,
// then the positional, grid, random and flag dimensions are crossed in that
// order. Trials are concatenated in order. A trial count of 1 uses the same
// path, so random parameters then behave as single-valued grid parameters.
//
// Structural problems return an *InputError and no commands.
func Generate(spec Spec, opts Options) (*Result, error) {
	if strings.TrimSpace(spec.Command) == "" {
		return nil, inputErr(ErrCommandMissing, "command", "base command is required")
	}
	if spec.Jobname == "" {
		return nil, inputErr(ErrJobnameMissing, "jobname", "jobname is required")
	}
	trials := spec.Trials
	if trials == 0 {
		trials = 1
	}
	if trials < 1 {
		return nil, inputErr(ErrTrialsInvalid, "trials", "trial count must be at least 1, got %d", spec.Trials)
	}
	start := opts.StartNumber
	if start == 0 {
		start = 1
	}
	if start < 1 {
		return nil, inputErr(ErrStartNumberInvalid, "start", "numbering must start at 1 or above, got %d", start)
	}
	sep, err := spec.ArgMode.Separator()
	if err != nil {
		return nil, err
	}

	reg, diags, err := NewRegistry(spec)
	if err != nil {
		return nil, err
	}

	tagged, tagDiags, err := resolveTagArgs(reg, spec.Tag)
	if err != nil {
		return nil, err
	}
	diags = append(diags, tagDiags...)

	sampler := opts.Sampler
	if sampler == nil {
		sampler = NewSampler(0)
	}

	l := layout{
		sep:     sep,
		tagging: spec.Tag.Enabled,
		tagged:  tagged,
		floats:  make(map[string]bool),
	}
	for _, p := range reg.Random {
		if p.Kind == KindFloat {
			l.floats[p.Name] = true
		}
	}

	rows := make([]trialVariant, 0, reg.ExpectedCount(trials))
	for t := 1; t <= trials; t++ {
		dims, sampleDiags := trialDimensions(reg, l, sampler)
		diags = appendUnique(diags, sampleDiags...)
		for _, v := range cross(spec.Command, dims) {
			rows = append(rows, trialVariant{variant: v, trial: t})
		}
	}

	return &Result{
		Commands:    assemble(spec, sep, rows, start, trials),
		Diagnostics: diags,
	}, nil
}

// trialVariant is a variant tagged with the trial that produced it.
type trialVariant struct {
	variant
	trial int
}

// trialDimensions samples every random parameter once and lays out the
// dimensions of one trial.
func trialDimensions(reg *Registry, l layout, sampler *Sampler) ([]dimension, []Diagnostic) {
	var diags []Diagnostic
	dims := make([]dimension, 0, len(reg.Positional)+len(reg.Grid)+len(reg.Random)+len(reg.Flags))

	for _, p := range reg.Positional {
		dims = append(dims, l.positional(p))
	}
	for _, g := range reg.Grid {
		dims = append(dims, l.named(g.Name, g.Values))
	}
	for _, p := range reg.Random {
		value, d := sampler.Sample(string(p.Kind), p.Lower, p.Upper, p.Space)
		for i := range d {
			d[i].Param = p.Name
		}
		diags = append(diags, d...)
		dims = append(dims, l.named(p.Name, []string{value}))
	}
	for _, f := range reg.Flags {
		dims = append(dims, l.flag(f))
	}
	return dims, diags
}

// appendUnique appends diagnostics not already present in diags.
func appendUnique(diags []Diagnostic, more ...Diagnostic) []Diagnostic {
	for _, d := range more {
		dup := false
		for _, existing := range diags {
			if existing == d {
				dup = true
				break
			}
		}
		if !dup {
			diags = append(diags, d)
		}
	}
	return diags
}
