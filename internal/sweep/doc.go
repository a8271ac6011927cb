// Package sweep expands a base command and a set of parameter specifications
// into the ordered list of command variants of a parameter sweep.
//
// A sweep is built from four parameter classes:
//   - Grid parameters: a name and an explicit list of values (or none, for a toggle)
//   - Positional parameters: values appended without a name
//   - Flags: literals that are either present or absent
//   - Random parameters: a name and a sampling rule (int, float, choice)
//
// PIPELINE:
//
//  1. NewRegistry normalizes the raw token lists and validates random specs.
//     Structural problems are returned as *InputError and abort the sweep.
//  2. For every trial, the Sampler draws one value per random parameter.
//  3. The trial's dimensions (positional, grid, random, flags) are crossed.
//     Each dimension is the outer loop relative to every earlier one.
//  4. Tags are assembled from the structured choices carried through step 3
//     and numbered starting at Options.StartNumber.
//
// Recoverable value anomalies never abort a sweep; they are reported as
// Diagnostics on the Result and the documented fallback value is used.
//
// Generate is single-threaded and deterministic for a fixed Sampler seed.
package sweep
