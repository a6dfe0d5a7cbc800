// Package refmodel extracts command-line information from the C/C++ source
// of a block's reference model.
package refmodel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/daedaleanai/uvmgen/util"
)

var (
	argcRegexp  = regexp.MustCompile(`argc\s*!=\s*(\d+)`)
	usageRegexp = regexp.MustCompile(`Usage:\s*%s\s+([^"\\]+)`)
	argvRegexp  = regexp.MustCompile(`(?:const\s+)?(?:char\s*\*\s*|std::string\s+)(\w+)\s*=\s*argv\[(\d+)\]`)
)

// wellKnownParams are reported as parameters whenever they appear anywhere in
// the source.
var wellKnownParams = []string{"mode", "sign_8b", "PS_FIRST", "PS_MODE", "PS_LAST"}

// Argument is one argv slot assigned to a named variable.
type Argument struct {
	Name  string `yaml:"name"`
	Index int    `yaml:"index"`
}

// Info is what could be learned about the model's command line.
type Info struct {
	NumArgs     int        `yaml:"num_args"`
	Usage       string     `yaml:"usage"`
	ArgNames    []string   `yaml:"arg_names"`
	Arguments   []Argument `yaml:"arguments"`
	InputFiles  []string   `yaml:"input_files"`
	OutputFiles []string   `yaml:"output_files"`
	Parameters  []string   `yaml:"parameters"`
}

// Parse scans model `source`.
func Parse(source string) Info {
	info := Info{
		ArgNames:    []string{},
		Arguments:   []Argument{},
		InputFiles:  []string{},
		OutputFiles: []string{},
		Parameters:  []string{},
	}

	if match := argcRegexp.FindStringSubmatch(source); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil && n > 0 {
			// argc counts the program name.
			info.NumArgs = n - 1
		}
	}

	if match := usageRegexp.FindStringSubmatch(source); match != nil {
		info.Usage = strings.TrimSpace(match[1])
		info.ArgNames = strings.Fields(info.Usage)
	}

	for _, match := range argvRegexp.FindAllStringSubmatch(source, -1) {
		name := match[1]
		index, _ := strconv.Atoi(match[2])
		info.Arguments = append(info.Arguments, Argument{Name: name, Index: index})

		lower := strings.ToLower(name)
		switch {
		case strings.Contains(lower, "file") && strings.Contains(lower, "out"):
			info.OutputFiles = append(info.OutputFiles, name)
		case strings.Contains(lower, "file"):
			info.InputFiles = append(info.InputFiles, name)
		default:
			info.Parameters = append(info.Parameters, name)
		}
	}

	lowerSource := strings.ToLower(source)
	for _, param := range wellKnownParams {
		if strings.Contains(lowerSource, strings.ToLower(param)) {
			info.Parameters = append(info.Parameters, param)
		}
	}
	info.Parameters = util.UniqueSlice(info.Parameters)

	return info
}

// ParseFile reads and scans the model source at `path`.
func ParseFile(path string) (Info, error) {
	data, err := util.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("reference model: %w", err)
	}
	return Parse(string(data)), nil
}

// CommandLine renders an example invocation of `executable` with one
// placeholder per known argument.
func (i Info) CommandLine(executable string) string {
	names := i.ArgNames
	if len(names) == 0 {
		names = util.MappedSlice(util.SliceOrderedBy(i.Arguments, func(a *Argument) int { return a.Index }),
			func(a Argument) string { return a.Name })
	}
	parts := []string{executable}
	for _, name := range names {
		parts = append(parts, "<"+strings.Trim(name, "<>")+">")
	}
	return strings.Join(parts, " ")
}
