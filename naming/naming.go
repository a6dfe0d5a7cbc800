// Package naming derives the class and file names shared by all generated
// artifacts from a block's name.
package naming

import (
	"strings"
	"unicode"
)

// Suffix rewrites a trailing `From` of the block name into `To`.
type Suffix struct {
	From string `mapstructure:"from" yaml:"from"`
	To   string `mapstructure:"to" yaml:"to"`
}

// Options control name derivation. Empty overrides are derived.
type Options struct {
	Prefix   string   `mapstructure:"prefix"`
	Suffixes []Suffix `mapstructure:"suffixes"`

	EnvClass        string `mapstructure:"env_class"`
	VseqrClass      string `mapstructure:"vseqr_class"`
	ScoreboardClass string `mapstructure:"scoreboard_class"`
	InterfaceName   string `mapstructure:"interface_name"`
	PackageName     string `mapstructure:"package_name"`
}

// DefaultSuffixes are applied when Options.Suffixes is nil.
var DefaultSuffixes = []Suffix{
	{From: "_wrapper", To: "_wrap"},
	{From: "_top", To: ""},
	{From: "_m", To: ""},
}

const fallbackName = "dut"

// Names are the derived identifiers of one block.
type Names struct {
	Block           string `yaml:"block"`
	Short           string `yaml:"short"`
	EnvClass        string `yaml:"env_class"`
	VseqrClass      string `yaml:"vseqr_class"`
	ScoreboardClass string `yaml:"scoreboard_class"`
	InterfaceName   string `yaml:"interface_name"`
	PackageName     string `yaml:"package_name"`
}

// Derive computes the names for block `block`.
func Derive(block string, opts Options) Names {
	short := ShortName(block, opts.Suffixes)
	base := sanitizeLower(opts.Prefix) + short

	names := Names{
		Block:           block,
		Short:           short,
		EnvClass:        base + "_env",
		VseqrClass:      base + "_virtual_sequencer",
		ScoreboardClass: base + "_scoreboard",
		InterfaceName:   short + "_if",
		PackageName:     short + "_pkg",
	}

	override(&names.EnvClass, opts.EnvClass)
	override(&names.VseqrClass, opts.VseqrClass)
	override(&names.ScoreboardClass, opts.ScoreboardClass)
	override(&names.InterfaceName, opts.InterfaceName)
	override(&names.PackageName, opts.PackageName)
	return names
}

func override(name *string, value string) {
	if value = Identifier(value); value != "" {
		*name = value
	}
}

// ShortName lower-cases `block` and rewrites the first matching suffix. A nil
// `suffixes` selects DefaultSuffixes.
func ShortName(block string, suffixes []Suffix) string {
	if suffixes == nil {
		suffixes = DefaultSuffixes
	}
	name := sanitizeLower(block)
	for _, s := range suffixes {
		from := strings.ToLower(s.From)
		if from == "" || !strings.HasSuffix(name, from) {
			continue
		}
		if rewritten := strings.TrimSuffix(name, from) + sanitizeLower(s.To); rewritten != "" {
			name = rewritten
		}
		break
	}
	if name == "" {
		return fallbackName
	}
	return name
}

func sanitizeLower(s string) string {
	return Identifier(strings.ToLower(s))
}

// Identifier replaces every character that is not a letter, digit or
// underscore with an underscore. A leading digit gets a `_` prefix.
func Identifier(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// TestClass returns the test class (and file stem) of test case `tcID`.
func TestClass(tcID string) string {
	return testStem(tcID) + "_test"
}

// VseqClass returns the virtual sequence class (and file stem) of test case `tcID`.
func VseqClass(tcID string) string {
	return testStem(tcID) + "_vseq"
}

func testStem(tcID string) string {
	if stem := Identifier(tcID); stem != "" {
		return stem
	}
	return "unnamed"
}

// Files maps each infrastructure artifact to its file name.
func (n Names) Files() map[string]string {
	return map[string]string{
		"env":        n.EnvClass + ".sv",
		"vseqr":      n.VseqrClass + ".sv",
		"scoreboard": n.ScoreboardClass + ".sv",
		"interface":  n.InterfaceName + ".sv",
		"package":    n.PackageName + ".sv",
	}
}
