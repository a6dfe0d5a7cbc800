// Package block parses Block (IP/DUT description) documents into a Config.
//
// Two dialects are accepted: the standard nested YAML document and the
// legacy flat label format. Parsing never fails on malformed content; missing
// fields are defaulted and reported as warnings.
package block

import (
	"fmt"

	"github.com/daedaleanai/uvmgen/doc"
	"github.com/daedaleanai/uvmgen/util"
)

const (
	DefaultBlockName = "unknown_block"
	DefaultClockName = "clk"
	DefaultResetName = "resetn"
	DefaultModelType = "C_model"
)

type Clock struct {
	Name      string `yaml:"name"`
	Frequency string `yaml:"frequency"`
}

type Reset struct {
	Name      string `yaml:"name"`
	ActiveLow bool   `yaml:"active_low"`
}

// Model describes the external reference-model binary.
type Model struct {
	Type          string   `yaml:"type"`
	Path          string   `yaml:"path"`
	Executable    string   `yaml:"executable"`
	CommandFormat string   `yaml:"command_format"`
	Arguments     []string `yaml:"arguments"`
	Entry         string   `yaml:"entry,omitempty"`
}

// Interface is one DUT-facing port group.
type Interface struct {
	Name       string   `yaml:"name"`
	Kind       string   `yaml:"kind"`
	Params     *doc.Map `yaml:"params"`
	MapToModel string   `yaml:"map_to_model"`
	VirtualIf  string   `yaml:"virtual_if"`
}

// Config is the parsed Block document.
type Config struct {
	Name       string      `yaml:"block_name"`
	Clock      Clock       `yaml:"clock"`
	Reset      Reset       `yaml:"reset"`
	Model      Model       `yaml:"model"`
	Interfaces []Interface `yaml:"interfaces"`
}

// Result bundles the parsed Config with the detected dialect and any
// validation warnings.
type Result struct {
	Config   Config
	Format   Format
	Warnings []string
}

// Parse parses Block document `content`, auto-detecting the dialect.
func Parse(content string) Result {
	format := Detect(content)

	var config Config
	var warnings []string
	switch format {
	case Legacy:
		config = parseLegacy(content)
	default:
		config, warnings = parseStandard(content)
	}

	for i := range config.Interfaces {
		iface := &config.Interfaces[i]
		if iface.Params == nil {
			iface.Params = doc.NewMap()
		}
		if iface.Params.Len() == 0 || isEmptyValues(iface.Params) {
			if values := kindParams(iface.Kind); len(values) > 0 {
				iface.Params = doc.MapOf("values", values)
			}
		}
	}

	warnings = append(warnings, validate(&config)...)
	return Result{Config: config, Format: format, Warnings: warnings}
}

// ParseFile reads and parses the Block document at `path`. The only error
// condition is an unreadable file.
func ParseFile(path string) (Result, error) {
	data, err := util.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("block document: %w", err)
	}
	return Parse(string(data)), nil
}

func validate(config *Config) []string {
	warnings := []string{}

	if config.Name == "" {
		warnings = append(warnings, fmt.Sprintf("Block name not found - will use '%s'", DefaultBlockName))
		config.Name = DefaultBlockName
	}
	if config.Clock.Name == "" {
		warnings = append(warnings, fmt.Sprintf("Clock signal not found - will use '%s'", DefaultClockName))
		config.Clock.Name = DefaultClockName
	}
	if config.Reset.Name == "" {
		warnings = append(warnings, fmt.Sprintf("Reset signal not found - will use '%s'", DefaultResetName))
		config.Reset.Name = DefaultResetName
	}
	if len(config.Interfaces) == 0 {
		warnings = append(warnings, "No interfaces found - prompts will have limited context")
	}
	if config.Model.Arguments == nil {
		config.Model.Arguments = []string{}
	}

	return warnings
}

// InterfaceByName returns the interface called `name`.
func (c *Config) InterfaceByName(name string) (Interface, bool) {
	for _, iface := range c.Interfaces {
		if iface.Name == name {
			return iface, true
		}
	}
	return Interface{}, false
}

// InterfaceNames returns the names of all interfaces in declaration order.
func (c *Config) InterfaceNames() []string {
	return util.MappedSlice(c.Interfaces, func(iface Interface) string { return iface.Name })
}

// ParamValues returns the positional parameter list of the interface, if it
// was declared positionally.
func (i Interface) ParamValues() []interface{} {
	v, ok := i.Params.Get("values")
	if !ok {
		return nil
	}
	values, _ := doc.AsList(v)
	return values
}
