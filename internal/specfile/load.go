package specfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Load reads a definition, choosing the decoder by file extension:
// .yaml/.yml, .toml or .cue. Unknown fields are errors in every format.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}

	var def *Definition
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		def, err = ParseYAML(data)
	case ".toml":
		def, err = ParseTOML(data)
	case ".cue":
		def, err = ParseCUE(data, path)
	default:
		return nil, fmt.Errorf("spec file %s: unsupported extension %q (want .yaml, .yml, .toml or .cue)", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return def, nil
}

// ParseYAML decodes a YAML definition.
func ParseYAML(data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("yaml: empty document")
		}
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return &def, nil
}

// ParseTOML decodes a TOML definition.
func ParseTOML(data []byte) (*Definition, error) {
	var def Definition
	md, err := toml.Decode(string(data), &def)
	if err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("toml: unknown fields: %s", strings.Join(keys, ", "))
	}
	return &def, nil
}

// ParseCUE compiles a CUE file, checks its sweep field against the
// #Sweep schema and decodes it.
func ParseCUE(data []byte, filename string) (*Definition, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("cue schema: %w", err)
	}

	file := ctx.CompileBytes(data, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return nil, fmt.Errorf("cue: %w", formatCUEError(err))
	}

	sweepVal := file.LookupPath(cue.ParsePath("sweep"))
	if !sweepVal.Exists() {
		return nil, fmt.Errorf("cue: missing top-level sweep field")
	}

	v := schema.LookupPath(cue.ParsePath("#Sweep")).Unify(sweepVal)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("cue: %w", formatCUEError(err))
	}

	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("cue: %w", err)
	}
	var def Definition
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("cue: decode: %w", err)
	}
	return &def, nil
}

// formatCUEError keeps the first error of a CUE error list and prefixes
// it with its source position when one is known.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return fmt.Errorf("%s: %w", positions[0], first)
	}
	return first
}
