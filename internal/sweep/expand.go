package sweep

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// keyReplacer sanitizes parameter names before they are embedded in a tag.
var keyReplacer = strings.NewReplacer("_", "", "-", "", "=", "_", "/", ".")

// option is one value a dimension can take.
type option struct {
	text    string   // appended to the command prefix
	tag     string   // tag component; empty when the dimension is not tag-bearing
	binding *Binding // nil for the absent branch of a flag
}

// dimension is one axis of the cartesian product.
type dimension struct {
	name    string
	options []option
}

// variant is a command prefix with the structured choices that built it.
type variant struct {
	command  string
	tags     []string
	bindings []Binding
}

func (v variant) with(opt option) variant {
	next := variant{
		command:  v.command + opt.text,
		tags:     v.tags,
		bindings: v.bindings,
	}
	if opt.tag != "" {
		next.tags = append(append(make([]string, 0, len(v.tags)+1), v.tags...), opt.tag)
	}
	if opt.binding != nil {
		next.bindings = append(append(make([]Binding, 0, len(v.bindings)+1), v.bindings...), *opt.binding)
	}
	return next
}

// cross expands base over dims. Each dimension is the outer loop relative
// to all earlier ones, so the first dimension changes fastest.
func cross(base string, dims []dimension) []variant {
	out := []variant{{command: base}}
	for _, d := range dims {
		next := make([]variant, 0, len(out)*len(d.options))
		for _, opt := range d.options {
			for _, v := range out {
				next = append(next, v.with(opt))
			}
		}
		out = next
	}
	return out
}

// layout turns registry entries into dimensions.
type layout struct {
	sep     string          // name/value separator of the arg mode
	tagging bool            // build tag components at all
	tagged  map[string]bool // tag-bearing named parameters
	floats  map[string]bool // random float parameters, re-formatted in tags
}

func (l layout) positional(p PositionalParam) dimension {
	key := fmt.Sprintf("pos%d", p.Index)
	d := dimension{name: key}
	for _, v := range p.Values {
		opt := option{text: " " + v, binding: &Binding{Name: key, Value: v}}
		if l.tagging {
			opt.tag = key + Sep + v
		}
		d.options = append(d.options, opt)
	}
	return d
}

func (l layout) named(name string, values []string) dimension {
	d := dimension{name: name}
	bearing := l.tagging && l.tagged[name]
	if len(values) == 0 {
		opt := option{text: " " + name, binding: &Binding{Name: name}}
		if bearing {
			opt.tag = TagKey(name)
		}
		d.options = append(d.options, opt)
		return d
	}
	for _, v := range values {
		opt := option{text: " " + name + l.sep + v, binding: &Binding{Name: name, Value: v}}
		if bearing {
			tv := v
			if l.floats[name] {
				tv = reformatFloat(v)
			}
			opt.tag = TagKey(name) + Sep + tv
		}
		d.options = append(d.options, opt)
	}
	return d
}

func (l layout) flag(flag string) dimension {
	stripped := strings.NewReplacer(FlagOff, "", FlagOn, "").Replace(flag)
	on := option{text: " " + flag, binding: &Binding{Name: flag}}
	off := option{}
	if l.tagging {
		on.tag = FlagOn + stripped
		off.tag = FlagOff + stripped
	}
	return dimension{name: flag, options: []option{on, off}}
}

// TagKey sanitizes a parameter name for use inside a tag.
func TagKey(name string) string {
	return keyReplacer.Replace(norm.NFC.String(name))
}
