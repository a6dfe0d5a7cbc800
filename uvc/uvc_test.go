package uvc

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daedaleanai/uvmgen/block"
	"github.com/daedaleanai/uvmgen/log"
)

const mappingFile = `
uvc_mapping:
  m_feature_buffer_env:
    sequencer_type: istream_sequencer#(64)
    sequencer_name: seqr_feature
    sequences:
      write: istream_directed_write_sequence
  m_regbank_env:
    sequences:
      configure: register_configure_write_seq
transformations:
  mode:
    "01": 1
packages: [istream_pkg, regbank_pkg]
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(mappingFile))
	require.NoError(t, err)

	require.Equal(t, 2, m.Len())
	e, ok := m.Lookup("m_feature_buffer_env")
	require.True(t, ok)
	assert.Equal(t, "seqr_feature", e.SequencerName)
	assert.Equal(t, "istream_directed_write_sequence", e.Sequences.Writer())

	e, ok = m.Lookup("m_regbank_env")
	require.True(t, ok)
	assert.Equal(t, "register_configure_write_seq", e.Sequences.Writer())

	assert.Equal(t, []string{"mode"}, m.Transformations.Keys())
	assert.Equal(t, []string{"istream_pkg", "regbank_pkg"}, m.PackagesOrDefault())
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("uvc_mapping: [unterminated"))
	assert.Error(t, err)
	_, err = Parse([]byte("- a\n"))
	assert.Error(t, err)

	m, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestLoadMissingFile(t *testing.T) {
	var out bytes.Buffer
	log.SetOutput(&out)
	defer log.SetOutput(os.Stderr)

	m, err := Load(filepath.Join(t.TempDir(), "uvc_mapping.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, DefaultPackages, m.PackagesOrDefault())
	assert.Contains(t, out.String(), "UVC mapping not found")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uvc_mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mappingFile), 0644))
	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
}

func testBlock() block.Config {
	return block.Parse(`DUT:
  name: conv
  interfaces:
    m_feature_buffer_env: {type: "istream_env#(64)"}
    m_output_env: {type: "ostream_env#(32)"}
    m_custom_env: {type: custom_env}
`).Config
}

func TestFromBlock(t *testing.T) {
	m := FromBlock(testBlock())
	require.Equal(t, 3, m.Len())

	e, _ := m.Lookup("m_feature_buffer_env")
	assert.Equal(t, "istream_uvc", e.Type)
	assert.Equal(t, "istream_sequencer", e.SequencerType)
	assert.Equal(t, "seqr_feature_buffer", e.SequencerName)
	assert.Equal(t, SequenceTypes("istream_env"), e.SequenceTypes)
	assert.Equal(t, "istream_directed_write_sequence", e.Sequences.Write)
	assert.Equal(t, "", e.Sequences.Read)

	e, _ = m.Lookup("m_output_env")
	assert.Equal(t, "ostream_random_burst_read_sequence", e.Sequences.Read)

	e, _ = m.Lookup("m_custom_env")
	assert.Empty(t, e.SequenceTypes)
}

func TestMerge(t *testing.T) {
	m := FromBlock(testBlock())
	loaded, err := Parse([]byte(mappingFile))
	require.NoError(t, err)
	m.Merge(loaded)

	assert.Equal(t, 4, m.Len())
	e, _ := m.Lookup("m_feature_buffer_env")
	assert.Equal(t, "seqr_feature", e.SequencerName)
	assert.Equal(t, "istream_sequencer#(64)", e.SequencerType)
	assert.Equal(t, "istream_uvc", e.Type)
	assert.Equal(t, []string{"istream_pkg", "regbank_pkg"}, m.Packages)
}

func TestActive(t *testing.T) {
	m, err := Parse([]byte(mappingFile))
	require.NoError(t, err)

	active := m.Active([]string{"m_feature_buffer_env", "m_output_env"})
	require.Len(t, active, 2)
	assert.Equal(t, Active{
		Name:          "m_feature_buffer_env",
		Short:         "feature_buffer",
		SequencerName: "seqr_feature",
		SequencerType: "istream_sequencer#(64)",
		Sequences:     Sequences{Write: "istream_directed_write_sequence"},
	}, active[0])
	assert.Equal(t, Active{
		Name:          "m_output_env",
		Short:         "output",
		SequencerName: "seqr_output",
		SequencerType: "uvm_sequencer",
	}, active[1])
}

func TestSequencerDeclaration(t *testing.T) {
	config := testBlock()
	m := NewMapping()

	seqType, name := m.SequencerDeclaration(config.Interfaces[0])
	assert.Equal(t, "istream_sequencer#(64)", seqType)
	assert.Equal(t, "seqr_feature_buffer", name)

	seqType, _ = m.SequencerDeclaration(block.Interface{Name: "m_x_env"})
	assert.Equal(t, "uvm_sequencer", seqType)
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "istream", ShortName("m_istream_env"))
	assert.Equal(t, "weights", ShortName("weights"))
}

func TestKnownBaseTypes(t *testing.T) {
	assert.Equal(t, []string{"dpmem_env", "istream_env", "ostream_env", "regbank_env", "register_env", "spmem_env"}, KnownBaseTypes())
}
