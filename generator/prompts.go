package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/daedaleanai/uvmgen/assets"
	"github.com/daedaleanai/uvmgen/block"
	"github.com/daedaleanai/uvmgen/doc"
	"github.com/daedaleanai/uvmgen/naming"
	"github.com/daedaleanai/uvmgen/transform"
	"github.com/daedaleanai/uvmgen/uvc"
	"github.com/daedaleanai/uvmgen/vplan"
	"github.com/daedaleanai/uvmgen/workspace"
)

var psPhaseParams = []string{"ps_phase", "PS_PHASE"}

// formatParams renders interface parameters: positional values joined, or
// `key=value` pairs.
func formatParams(params *doc.Map) string {
	if params.Len() == 0 {
		return ""
	}
	if v, ok := params.Get("values"); ok {
		return strings.Join(doc.Strings(v), ", ")
	}
	var parts []string
	params.Range(func(k string, v interface{}) {
		parts = append(parts, fmt.Sprintf("%s=%s", k, doc.Scalar(v)))
	})
	return strings.Join(parts, ", ")
}

// svLiteral renders a parameter value as a SystemVerilog literal. Numbers
// and already quoted strings are kept, other strings are quoted.
func svLiteral(v interface{}) string {
	switch value := v.(type) {
	case string:
		if strings.HasPrefix(value, `"`) || strings.HasPrefix(value, `'`) {
			return value
		}
		if _, err := strconv.Atoi(value); err == nil {
			return value
		}
		return strconv.Quote(value)
	case bool:
		if value {
			return "1"
		}
		return "0"
	case []interface{}:
		return "'{" + strings.Join(doc.Strings(value), ", ") + "}"
	default:
		return doc.Scalar(value)
	}
}

func (g *Generator) envParams() assets.EnvTmplParams {
	params := assets.EnvTmplParams{
		BlockYAML:  g.blockText,
		UVCInfo:    g.uvcInfo,
		Example:    g.examples[exampleEnv],
		EnvClass:   g.names.EnvClass,
		VseqrClass: g.names.VseqrClass,
	}
	for _, iface := range g.block.Interfaces {
		entry := assets.Interface{Name: iface.Name, Kind: iface.Kind, Params: formatParams(iface.Params)}
		if strings.Contains(iface.Kind, "#(") {
			entry.Params = ""
		}
		if e, ok := g.mapping.Lookup(iface.Name); ok {
			entry.SequencerType = e.SequencerType
		}
		params.Interfaces = append(params.Interfaces, entry)
	}
	return params
}

func (g *Generator) vseqrParams() assets.VseqrTmplParams {
	params := assets.VseqrTmplParams{
		BlockYAML:     g.blockText,
		Example:       g.examples[exampleVseqr],
		VseqrClass:    g.names.VseqrClass,
		InterfaceName: g.names.InterfaceName,
	}
	for _, iface := range g.block.Interfaces {
		seqType, name := g.mapping.SequencerDeclaration(iface)
		params.Sequencers = append(params.Sequencers, assets.Sequencer{Type: seqType, Name: name})
	}
	return params
}

func (g *Generator) interfaceParams() assets.InterfaceTmplParams {
	params := assets.InterfaceTmplParams{
		BlockYAML:      g.blockText,
		Example:        g.examples[exampleInterface],
		InterfaceName:  g.names.InterfaceName,
		ClockName:      g.block.Clock.Name,
		ClockFrequency: g.block.Clock.Frequency,
		ResetName:      g.block.Reset.Name,
		ResetActiveLow: g.block.Reset.ActiveLow,
	}
	for _, iface := range g.block.Interfaces {
		short := uvc.ShortName(iface.Name)
		if strings.Contains(strings.ToLower(short), "buffer") || strings.Contains(strings.ToLower(iface.Kind), "stream") {
			params.StatusSignals = append(params.StatusSignals,
				fmt.Sprintf("// %s status signals", short),
				fmt.Sprintf("logic %s_full;", short),
				fmt.Sprintf("logic %s_empty;", short))
		}
	}
	return params
}

// directions splits the interfaces into reference inputs and checked
// outputs by kind and name.
func directions(interfaces []block.Interface) (inputs, outputs []string) {
	for _, iface := range interfaces {
		kind := strings.ToLower(iface.Kind)
		name := strings.ToLower(iface.Name)
		switch {
		case strings.Contains(kind, "ostream") || strings.Contains(name, "output"):
			outputs = append(outputs, iface.Name)
		case strings.Contains(kind, "istream") || strings.Contains(name, "input") || strings.Contains(kind, "mem"):
			inputs = append(inputs, iface.Name)
		}
	}
	return inputs, outputs
}

func (g *Generator) scoreboardParams() assets.ScoreboardTmplParams {
	inputs, outputs := directions(g.block.Interfaces)
	return assets.ScoreboardTmplParams{
		BlockYAML:       g.blockText,
		Example:         g.examples[exampleScoreboard],
		ScoreboardClass: g.names.ScoreboardClass,
		EnvClass:        g.names.EnvClass,
		Inputs:          inputs,
		Outputs:         outputs,
	}
}

func withSuffix(names []string) []string {
	result := make([]string, 0, len(names))
	for _, name := range names {
		result = append(result, name+".sv")
	}
	return result
}

func (g *Generator) packageParams() assets.PackageTmplParams {
	return assets.PackageTmplParams{
		BlockYAML:      g.blockText,
		Example:        g.examples[examplePackage],
		PackageName:    g.names.PackageName,
		InterfaceFile:  g.names.InterfaceName + ".sv",
		VseqrFile:      g.names.VseqrClass + ".sv",
		ScoreboardFile: g.names.ScoreboardClass + ".sv",
		EnvFile:        g.names.EnvClass + ".sv",
		VseqFiles:      withSuffix(g.files.List(workspace.VirtualSequence)),
		TestFiles:      withSuffix(g.files.List(workspace.Test)),
		Packages:       g.mapping.PackagesOrDefault(),
	}
}

func testParameters(tc vplan.TestCase) []assets.Param {
	var params []assets.Param
	tc.Parameters.Range(func(k string, v interface{}) {
		params = append(params, assets.Param{Name: k, Value: doc.Scalar(v)})
	})
	return params
}

func (g *Generator) testParams(tc vplan.TestCase) assets.TestTmplParams {
	return assets.TestTmplParams{
		TCID:          tc.TCID,
		TestClass:     naming.TestClass(tc.TCID),
		VseqClass:     naming.VseqClass(tc.TCID),
		EnvClass:      g.names.EnvClass,
		InterfaceName: g.names.InterfaceName,
		ResetName:     g.block.Reset.Name,
		Parameters:    testParameters(tc),
		Example:       g.examples[exampleTest],
	}
}

// encodings are the transformed values of the well-known parameters.
func encodings(t *transform.Transformer, tc vplan.TestCase) []assets.Param {
	params := []assets.Param{
		{Name: "mode_int", Value: strconv.Itoa(t.ModeInt(tc.Param(vplan.ModeParam)))},
		{Name: "sign_int", Value: strconv.Itoa(t.SignInt(tc.Param(vplan.SignParam)))},
	}
	if phase, ok := tc.Parameters.Lookup(psPhaseParams...); ok && doc.Scalar(phase) != "" {
		first, mode, last := t.PSFlags(doc.Scalar(phase)).Ints()
		params = append(params,
			assets.Param{Name: transform.PSFirst, Value: strconv.Itoa(first)},
			assets.Param{Name: transform.PSMode, Value: strconv.Itoa(mode)},
			assets.Param{Name: transform.PSLast, Value: strconv.Itoa(last)})
	}
	return params
}

func (g *Generator) modelParams() assets.Model {
	m := g.block.Model
	model := assets.Model{
		Configured:    m.Executable != "" || m.Path != "" || m.CommandFormat != "",
		Executable:    m.Executable,
		CommandFormat: m.CommandFormat,
		Arguments:     m.Arguments,
	}
	if model.Executable == "" {
		model.Executable = m.Path
	}
	switch {
	case len(m.Arguments) > 0:
		parts := []string{model.Executable}
		for _, arg := range m.Arguments {
			parts = append(parts, "<"+arg+">")
		}
		model.CommandLine = strings.Join(parts, " ")
	case g.modelInfo != nil:
		model.CommandLine = g.modelInfo.CommandLine(model.Executable)
	}
	return model
}

func (g *Generator) vseqParams(tc vplan.TestCase, generatedVseqr string) assets.VseqTmplParams {
	params := assets.VseqTmplParams{
		TCID:           tc.TCID,
		VseqClass:      naming.VseqClass(tc.TCID),
		VseqrClass:     g.names.VseqrClass,
		Encodings:      encodings(g.transformer, tc),
		GeneratedVseqr: generatedVseqr,
		Model:          g.modelParams(),
		Example:        g.examples[exampleVseq],
	}
	tc.Parameters.Range(func(k string, v interface{}) {
		params.Parameters = append(params.Parameters, assets.Param{Name: k, Value: svLiteral(v)})
	})

	for _, active := range g.mapping.Active(tc.ActiveUVCs) {
		writer := active.Sequences.Writer()
		params.Active = append(params.Active, assets.ActiveUVC{
			Name:          active.Name,
			SequencerName: active.SequencerName,
			WriteSequence: writer,
			ReadSequence:  active.Sequences.Read,
		})
		if writer != "" {
			params.Sequences = append(params.Sequences, assets.SequenceHandle{
				Type: writer, Var: "seq_" + active.Short + "_wr", Sequencer: active.SequencerName,
			})
		}
		if active.Sequences.Read != "" {
			params.Sequences = append(params.Sequences, assets.SequenceHandle{
				Type: active.Sequences.Read, Var: "seq_" + active.Short + "_rd", Sequencer: active.SequencerName,
			})
		}
	}
	return params
}
