package sweep

import (
	"fmt"
	"strconv"
	"strings"
)

// resolveTagArgs returns the set of tag-bearing named parameters.
// An empty selection means every named parameter bears a tag.
func resolveTagArgs(reg *Registry, t Tagging) (map[string]bool, []Diagnostic, error) {
	if !t.Enabled {
		return nil, nil, nil
	}
	if t.Flag == "" {
		return nil, nil, inputErr(ErrEmptyTagFlag, "tag", "tag flag cannot be an empty string").
			withExamples("--tag", "--tag=--run-name")
	}

	names := reg.Names()
	registered := make(map[string]bool, len(names))
	for _, n := range names {
		registered[n] = true
	}

	if len(t.Args) == 0 {
		return registered, nil, nil
	}

	var diags []Diagnostic
	tagged := make(map[string]bool, len(t.Args))
	for _, arg := range t.Args {
		if tagged[arg] {
			diags = append(diags, warn(WarnDuplicateTagArg, arg, "listed more than once in tag args"))
			continue
		}
		if !registered[arg] {
			diags = append(diags, warn(WarnUnknownTagArg, arg, "is not a command arg: %v", names))
		}
		tagged[arg] = true
	}
	return tagged, diags, nil
}

// assemble turns expanded rows into final commands. With tagging enabled,
// every tag is jobname[_number] followed by its components joined with
// WordSep, and the tag is passed to the command through the tag flag.
func assemble(spec Spec, sep string, rows []trialVariant, start, trials int) []Command {
	cmds := make([]Command, len(rows))
	last := start + len(rows) - 1
	width := len(strconv.Itoa(last))
	trialWidth := len(strconv.Itoa(trials))

	for i, row := range rows {
		cmd := Command{
			Command:  row.command,
			Trial:    row.trial,
			Bindings: row.bindings,
		}
		if spec.Tag.Enabled {
			var b strings.Builder
			b.WriteString(spec.Jobname)
			if !spec.Tag.NoNumber {
				fmt.Fprintf(&b, "%s%0*d", Sep, width, start+i)
			}
			if trials > 1 {
				fmt.Fprintf(&b, "%strial%s%0*d", WordSep, Sep, trialWidth, row.trial)
			}
			for _, c := range row.tags {
				b.WriteString(WordSep)
				b.WriteString(c)
			}
			cmd.Tag = b.String()
			cmd.Command = row.command + " " + spec.Tag.Flag + sep + cmd.Tag
		}
		cmds[i] = cmd
	}
	return cmds
}
