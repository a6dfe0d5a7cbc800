package assets

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

var Templates = template.Must(template.New("prompts").ParseFS(templatesFS, "templates/*.tmpl"))

// Prompt template names, one per generated artifact.
const (
	EnvPrompt        = "env"
	VseqrPrompt      = "vseqr"
	InterfacePrompt  = "interface"
	ScoreboardPrompt = "scoreboard"
	PackagePrompt    = "package"
	TestPrompt       = "test"
	VseqPrompt       = "vseq"
)

// Render executes prompt template `name` with `params`.
func Render(name string, params interface{}) (string, error) {
	tmpl := Templates.Lookup(name + ".tmpl")
	if tmpl == nil {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, params); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", name, err)
	}
	return b.String(), nil
}

type Interface struct {
	Name          string
	Kind          string
	Params        string
	SequencerType string
}

type Sequencer struct {
	Type string
	Name string
}

type Param struct {
	Name  string
	Value string
}

// ActiveUVC is a UVC driven by a test case and the sequences started on it.
type ActiveUVC struct {
	Name          string
	SequencerName string
	WriteSequence string
	ReadSequence  string
}

// SequenceHandle is a sequence variable declared in a virtual sequence.
type SequenceHandle struct {
	Type      string
	Var       string
	Sequencer string
}

type Model struct {
	Configured    bool
	Executable    string
	CommandFormat string
	Arguments     []string
	CommandLine   string
}

type EnvTmplParams struct {
	BlockYAML  string
	Interfaces []Interface
	UVCInfo    string
	Example    string
	EnvClass   string
	VseqrClass string
}

type VseqrTmplParams struct {
	BlockYAML     string
	Sequencers    []Sequencer
	Example       string
	VseqrClass    string
	InterfaceName string
}

type InterfaceTmplParams struct {
	BlockYAML      string
	Example        string
	InterfaceName  string
	ClockName      string
	ClockFrequency string
	ResetName      string
	ResetActiveLow bool
	StatusSignals  []string
}

type ScoreboardTmplParams struct {
	BlockYAML       string
	Example         string
	ScoreboardClass string
	EnvClass        string
	Inputs          []string
	Outputs         []string
}

type PackageTmplParams struct {
	BlockYAML      string
	Example        string
	PackageName    string
	InterfaceFile  string
	VseqrFile      string
	ScoreboardFile string
	EnvFile        string
	VseqFiles      []string
	TestFiles      []string
	Packages       []string
}

type TestTmplParams struct {
	TCID          string
	TestClass     string
	VseqClass     string
	EnvClass      string
	InterfaceName string
	ResetName     string
	Parameters    []Param
	Example       string
}

type VseqTmplParams struct {
	TCID           string
	VseqClass      string
	VseqrClass     string
	Parameters     []Param
	Encodings      []Param
	Active         []ActiveUVC
	Sequences      []SequenceHandle
	GeneratedVseqr string
	Model          Model
	Example        string
}
