package block

import (
	"strings"

	"github.com/daedaleanai/uvmgen/doc"
)

type section int

const (
	sectionNone section = iota
	sectionBlock
	sectionClocks
	sectionResets
	sectionInterfaces
	sectionModel
)

var sectionHeaders = map[string]section{
	"block":           sectionBlock,
	"clocks":          sectionClocks,
	"clock":           sectionClocks,
	"resets":          sectionResets,
	"reset":           sectionResets,
	"interfaces":      sectionInterfaces,
	"model":           sectionModel,
	"reference_model": sectionModel,
}

// label is one `Key : value` line of the legacy dialect. The key is
// case-folded with all spaces removed.
type label struct {
	key   string
	value string
}

func parseLabel(line string) (label, bool) {
	line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "- "))
	key, value, found := strings.Cut(line, ":")
	if !found {
		return label{}, false
	}
	return label{
		key:   strings.ToLower(strings.ReplaceAll(key, " ", "")),
		value: strings.TrimSpace(value),
	}, true
}

// Section words also recognized with trailing text after the colon.
var prefixHeaders = []string{"block", "clocks", "resets", "interfaces", "model", "reference_model"}

// sectionHeader reports whether `line` opens a section: a bare section word,
// or a section word followed by a colon.
func sectionHeader(line string) (section, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(line), " ", ""))
	if s, ok := sectionHeaders[strings.TrimSuffix(normalized, ":")]; ok {
		return s, true
	}
	for _, word := range prefixHeaders {
		if strings.HasPrefix(normalized, word+":") {
			return sectionHeaders[word], true
		}
	}
	return sectionNone, false
}

// legacyParser scans the legacy dialect line by line. `pending` holds the
// interface currently being filled; it is flushed on every new `name:` in
// the interfaces section and once more at the end of input.
type legacyParser struct {
	config  Config
	current section
	pending *Interface
}

func parseLegacy(content string) Config {
	p := legacyParser{config: Config{Model: Model{Arguments: []string{}}}}
	for _, line := range strings.Split(content, "\n") {
		p.scan(line)
	}
	p.flush()
	return p.config
}

func (p *legacyParser) flush() {
	if p.pending != nil && p.pending.Name != "" {
		p.config.Interfaces = append(p.config.Interfaces, *p.pending)
	}
	p.pending = nil
}

func (p *legacyParser) scan(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if s, ok := sectionHeader(line); ok {
		p.current = s
		return
	}
	l, ok := parseLabel(line)
	if !ok {
		return
	}

	switch p.current {
	case sectionBlock:
		if l.key == "name" {
			p.config.Name = l.value
		}
	case sectionClocks:
		switch l.key {
		case "name", "signal":
			p.config.Clock.Name = l.value
		case "frequency":
			p.config.Clock.Frequency = l.value
		}
	case sectionResets:
		switch l.key {
		case "name", "signal":
			p.config.Reset.Name = l.value
		case "active_low":
			p.config.Reset.ActiveLow = doc.Bool(l.value)
		case "polarity":
			p.config.Reset.ActiveLow = strings.EqualFold(l.value, "active_low")
		}
	case sectionModel:
		p.scanModel(l)
	case sectionInterfaces:
		p.scanInterface(l)
	}
}

func (p *legacyParser) scanModel(l label) {
	model := &p.config.Model
	switch l.key {
	case "language", "type":
		model.Type = l.value
	case "entry":
		model.Entry = l.value
	case "lib_path", "executable":
		model.Executable = l.value
	case "path":
		model.Path = l.value
	case "command_format":
		model.CommandFormat = l.value
	case "arguments":
		for _, arg := range strings.Split(strings.Trim(l.value, "[]"), ",") {
			if arg = strings.TrimSpace(arg); arg != "" {
				model.Arguments = append(model.Arguments, arg)
			}
		}
	}
}

func (p *legacyParser) scanInterface(l label) {
	if l.key == "name" {
		p.flush()
		p.pending = &Interface{
			Name:   strings.TrimLeft(l.value, "- "),
			Params: doc.NewMap(),
		}
		return
	}
	if p.pending == nil {
		return
	}

	switch l.key {
	case "kind", "type":
		p.pending.Kind = l.value
	case "params", "parameters":
		p.pending.Params = legacyParams(l.value)
	case "map_to_model":
		p.pending.MapToModel = l.value
	case "virtual_if":
		p.pending.VirtualIf = l.value
	}
}
