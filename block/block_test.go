package block

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daedaleanai/uvmgen/doc"
)

const legacyDocument = `Block :
  Name : conv_accel_wrapper
Clocks :
  Name : aclk
  Frequency : 200MHz
Resets :
  Name : aresetn
  Active_low : true
Model :
  Language : C++
  Entry : main
  Lib_path : ./model/conv_model
Interfaces :
  - Name : m_weight_buffer_env
    Kind : istream_env#(64)
    Params : { DATA_WIDTH : 64 }
  - Name : m_feature_buffer_env
    Kind : istream_env#(64)
    Params : [64, 9]
    Map_to_model : feature_file
  - Name : m_output_env
    Kind : ostream_env#(32)
`

const standardMappingDocument = `DUT:
  module_name: conv_accel_wrapper
  clock: {name: aclk, frequency: 200MHz}
  reset: {name: aresetn, polarity: active_low}
  reference_model:
    type: C_model
    path: ./model/conv_model.cpp
    executable: ./model/conv_model
    command_format: "{exe} {args}"
    arguments: [feature_file, weight_file]
  interfaces:
    m_weight_buffer_env:
      type: istream_env#(64)
      parameters: {DATA_WIDTH: 64}
    m_feature_buffer_env:
      type: istream_env#(64)
      parameters: [64, 9]
      map_to_model: feature_file
    m_output_env:
      kind: ostream_env#(32)
`

const standardListDocument = `DUT:
  module_name: conv_accel_wrapper
  clock: {name: aclk, frequency: 200MHz}
  reset: {name: aresetn, polarity: active_low}
  interfaces:
    - name: m_weight_buffer_env
      type: istream_env#(64)
      parameters: {DATA_WIDTH: 64}
    - name: m_feature_buffer_env
      type: istream_env#(64)
      parameters: [64, 9]
      map_to_model: feature_file
    - name: m_output_env
      kind: ostream_env#(32)
`

func TestDetect(t *testing.T) {
	assert.Equal(t, Legacy, Detect(legacyDocument))
	assert.Equal(t, Standard, Detect(standardMappingDocument))
	assert.Equal(t, Standard, Detect("key: [unterminated"))
	assert.Equal(t, Standard, Detect(""))
	assert.Equal(t, Legacy, Detect("Block:\n  Name : x\n"))
	// Free text containing a marker selects the legacy dialect.
	assert.Equal(t, Legacy, Detect("DUT:\n  description: \"Kind : streaming\"\n"))
	assert.Equal(t, "legacy", Legacy.String())
	assert.Equal(t, "standard", Standard.String())
}

func TestParseLegacy(t *testing.T) {
	result := Parse(legacyDocument)
	require.Equal(t, Legacy, result.Format)
	config := result.Config

	assert.Equal(t, "conv_accel_wrapper", config.Name)
	assert.Equal(t, Clock{Name: "aclk", Frequency: "200MHz"}, config.Clock)
	assert.Equal(t, Reset{Name: "aresetn", ActiveLow: true}, config.Reset)
	assert.Equal(t, "C++", config.Model.Type)
	assert.Equal(t, "main", config.Model.Entry)
	assert.Equal(t, "./model/conv_model", config.Model.Executable)

	require.Equal(t, []string{"m_weight_buffer_env", "m_feature_buffer_env", "m_output_env"}, config.InterfaceNames())
	assert.Equal(t, "istream_env#(64)", config.Interfaces[0].Kind)
	assert.Equal(t, "64", config.Interfaces[0].Params.String("DATA_WIDTH"))
	assert.Equal(t, []interface{}{64, 9}, config.Interfaces[1].ParamValues())
	assert.Equal(t, "feature_file", config.Interfaces[1].MapToModel)
	assert.Equal(t, []interface{}{32}, config.Interfaces[2].ParamValues(), "params derived from kind")
	assert.Empty(t, result.Warnings)
}

func TestParseLegacyFlushesLastInterface(t *testing.T) {
	for n := 1; n <= 4; n++ {
		content := "Interfaces :\n"
		var names []string
		for i := 0; i < n; i++ {
			name := "m_env_" + string(rune('a'+i))
			names = append(names, name)
			content += "  Name : " + name + "\n  Kind : istream_env#(8)\n"
		}
		config := Parse(content).Config
		assert.Equal(t, names, config.InterfaceNames(), "n=%d", n)
	}
}

func TestParseLegacyResetScenario(t *testing.T) {
	content := `Block :
  Name : conv_top
Resets :
  Name : rst_n
  Active_low : true
Interfaces :
  Name : m_feature_buffer_env
  Kind : istream_env#(64)
`
	result := Parse(content)
	assert.True(t, result.Config.Reset.ActiveLow)
	require.Len(t, result.Config.Interfaces, 1)
	assert.Equal(t, "m_feature_buffer_env", result.Config.Interfaces[0].Name)
	assert.Equal(t, "istream_env#(64)", result.Config.Interfaces[0].Kind)
}

func TestLegacyHeadersWithTrailingText(t *testing.T) {
	content := `Block : # the wrapper
  Name : conv_accel_wrapper
Clocks : # main clock
  Name : aclk
Resets: see below
  Name : aresetn
Interfaces :   # ports
  - Name : m_output_env
    Kind : ostream_env#(32)
`
	config := Parse(content).Config
	assert.Equal(t, "conv_accel_wrapper", config.Name)
	assert.Equal(t, "aclk", config.Clock.Name)
	assert.Equal(t, "aresetn", config.Reset.Name)
	assert.Equal(t, []string{"m_output_env"}, config.InterfaceNames())
}

func TestLegacyLabelsOutsideInterfaceAreIgnored(t *testing.T) {
	config := Parse("Interfaces :\n  Kind : orphan\n  Name : m_a_env\n").Config
	require.Len(t, config.Interfaces, 1)
	assert.Equal(t, "", config.Interfaces[0].Kind)
}

func TestParseStandard(t *testing.T) {
	result := Parse(standardMappingDocument)
	require.Equal(t, Standard, result.Format)
	config := result.Config

	assert.Equal(t, "conv_accel_wrapper", config.Name)
	assert.Equal(t, Clock{Name: "aclk", Frequency: "200MHz"}, config.Clock)
	assert.Equal(t, Reset{Name: "aresetn", ActiveLow: true}, config.Reset)
	assert.Equal(t, Model{
		Type:          "C_model",
		Path:          "./model/conv_model.cpp",
		Executable:    "./model/conv_model",
		CommandFormat: "{exe} {args}",
		Arguments:     []string{"feature_file", "weight_file"},
	}, config.Model)

	iface, ok := config.InterfaceByName("m_output_env")
	require.True(t, ok)
	assert.Equal(t, "ostream_env#(32)", iface.Kind)
	_, ok = config.InterfaceByName("missing")
	assert.False(t, ok)
	assert.Empty(t, result.Warnings)
}

func TestStandardMappingAndListAreEquivalent(t *testing.T) {
	fromMapping := Parse(standardMappingDocument).Config.Interfaces
	fromList := Parse(standardListDocument).Config.Interfaces

	diff := cmp.Diff(fromMapping, fromList, cmp.Comparer(func(a, b *doc.Map) bool {
		return cmp.Equal(a.Keys(), b.Keys()) && cmp.Equal(mapValues(a), mapValues(b))
	}))
	assert.Empty(t, diff)
}

func mapValues(m *doc.Map) []interface{} {
	var values []interface{}
	m.Range(func(_ string, v interface{}) { values = append(values, v) })
	return values
}

func TestStandardScalarForms(t *testing.T) {
	config := Parse(`block:
  name: fir
  clock: clk_i
  reset: rst_ni
  model: ./fir_model
  interfaces:
    - name: m_in_env
      kind: istream_env
      params: "DATA_WIDTH : 16, DEPTH : 4"
`).Config

	assert.Equal(t, "fir", config.Name)
	assert.Equal(t, Clock{Name: "clk_i"}, config.Clock)
	assert.Equal(t, Reset{Name: "rst_ni", ActiveLow: true}, config.Reset)
	assert.Equal(t, Model{Type: DefaultModelType, Path: "./fir_model", Arguments: []string{}}, config.Model)
	require.Len(t, config.Interfaces, 1)
	assert.Equal(t, []string{"DATA_WIDTH", "DEPTH"}, config.Interfaces[0].Params.Keys())
	assert.Equal(t, "16", config.Interfaces[0].Params.String("DATA_WIDTH"))

	reset := Parse("dut:\n  reset: rst\n").Config.Reset
	assert.False(t, reset.ActiveLow)
	reset = Parse("dut:\n  reset: {signal: rst, active_low: false}\n").Config.Reset
	assert.Equal(t, Reset{Name: "rst"}, reset)
	reset = Parse("dut:\n  reset: {name: rst, polarity: active_high}\n").Config.Reset
	assert.False(t, reset.ActiveLow)
}

func TestStandardMissingResetIsActiveLow(t *testing.T) {
	for _, content := range []string{
		"DUT:\n  module_name: foo\n  clock: clk\n",
		"DUT:\n  module_name: foo\n  clock: clk\n  reset: {}\n",
	} {
		result := Parse(content)
		require.Equal(t, Standard, result.Format)
		assert.Equal(t, Reset{Name: DefaultResetName, ActiveLow: true}, result.Config.Reset, "content %q", content)
	}
}

func TestDefaultsAndWarnings(t *testing.T) {
	for _, content := range []string{
		"",
		"just a scalar",
		"key: [unterminated",
		"other: {}\n",
		"DUT: {}\n",
		"Interfaces :\n",
	} {
		result := Parse(content)
		config := result.Config
		assert.Equal(t, DefaultBlockName, config.Name, "content %q", content)
		assert.Equal(t, DefaultClockName, config.Clock.Name, "content %q", content)
		assert.Equal(t, DefaultResetName, config.Reset.Name, "content %q", content)
		assert.Empty(t, config.Interfaces)
		assert.NotNil(t, config.Model.Arguments)
		assert.Contains(t, result.Warnings, "No interfaces found - prompts will have limited context")
		assert.Contains(t, result.Warnings, "Block name not found - will use 'unknown_block'")
	}
}

func TestParseIsIdempotent(t *testing.T) {
	for _, content := range []string{legacyDocument, standardMappingDocument, standardListDocument} {
		first := Parse(content)
		second := Parse(content)
		assert.Equal(t, first, second)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "block.yaml")
	require.NoError(t, os.WriteFile(path, []byte(standardListDocument), 0644))

	result, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "conv_accel_wrapper", result.Config.Name)

	_, err = ParseFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestKindHelpers(t *testing.T) {
	assert.Equal(t, []interface{}{64, 9}, kindParams("istream_env#(64, 9)"))
	assert.Equal(t, []interface{}{"DW", 8}, kindParams("dpmem_env#(DW,8)"))
	assert.Nil(t, kindParams("register_env"))
	assert.Equal(t, "istream_env", KindBase("istream_env#(64)"))
	assert.Equal(t, "regbank_env", KindBase("regbank_env"))
}
