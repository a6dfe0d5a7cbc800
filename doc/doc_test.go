package doc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestDecodeKeepsMappingOrder(t *testing.T) {
	v, err := Decode([]byte(`
DUT:
  interfaces:
    m_weight_buffer_env: {type: "istream_env#(64)"}
    m_feature_buffer_env: {type: "istream_env#(64)"}
    m_output_env: {type: "ostream_env#(32)"}
`))
	require.NoError(t, err)

	root, ok := AsMap(v)
	require.True(t, ok)
	dutValue, _ := root.Get("DUT")
	dut, ok := AsMap(dutValue)
	require.True(t, ok)
	ifacesValue, _ := dut.Get("interfaces")
	ifaces, ok := AsMap(ifacesValue)
	require.True(t, ok)

	assert.Equal(t, []string{"m_weight_buffer_env", "m_feature_buffer_env", "m_output_env"}, ifaces.Keys())
	assert.Equal(t, "istream_env#(64)", mustMap(t, ifaces, "m_feature_buffer_env").String("type"))
}

func TestDecodeListOfMappings(t *testing.T) {
	v, err := Decode([]byte(`
- TC_ID: TC_002
  Stimulus_Generation:
    - regbank_program: {mode: "01", zeta: 1, alpha: 2}
- TC_ID: TC_001
`))
	require.NoError(t, err)

	items, ok := AsList(v)
	require.True(t, ok)
	require.Len(t, items, 2)

	first, ok := AsMap(items[0])
	require.True(t, ok)
	assert.Equal(t, "TC_002", first.String("TC_ID"))

	stim, _ := first.Get("Stimulus_Generation")
	stimList, ok := AsList(stim)
	require.True(t, ok)
	stimItem, ok := AsMap(stimList[0])
	require.True(t, ok)
	regbank := mustMap(t, stimItem, "regbank_program")
	assert.Equal(t, []string{"mode", "zeta", "alpha"}, regbank.Keys())
}

func TestDecodeMixedListFallsBack(t *testing.T) {
	v, err := Decode([]byte("- plain\n- {b: 1, a: 2}\n"))
	require.NoError(t, err)

	items, ok := AsList(v)
	require.True(t, ok)
	assert.Equal(t, "plain", items[0])
	m, ok := AsMap(items[1])
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, m.Keys())
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode([]byte("key: [unterminated"))
	assert.Error(t, err)
}

func TestSetKeepsPosition(t *testing.T) {
	m := MapOf("mode", "01", "size", 16)
	m.Set("mode", "10")
	m.Set("sign_8b", "dont_care")

	assert.Equal(t, []string{"mode", "size", "sign_8b"}, m.Keys())
	v, _ := m.Get("mode")
	assert.Equal(t, "10", v)
}

func TestFirstSkipsEmpty(t *testing.T) {
	m := MapOf("DUT", NewMap(), "dut", MapOf("name", "x"))
	v, ok := m.First("DUT", "dut", "block")
	require.True(t, ok)
	assert.Equal(t, "x", v.(*Map).String("name"))
}

func TestMarshalYAML(t *testing.T) {
	m := MapOf("zeta", 1, "alpha", MapOf("values", []interface{}{64, 9}))
	out, err := yaml.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "zeta: 1\nalpha:\n  values:\n  - 64\n  - 9\n", string(out))
}

func TestConversions(t *testing.T) {
	assert.True(t, Bool("Yes"))
	assert.True(t, Bool(true))
	assert.False(t, Bool("false"))
	assert.False(t, Bool(nil))

	i, ok := Int("42")
	assert.True(t, ok)
	assert.Equal(t, 42, i)
	_, ok = Int("dont_care")
	assert.False(t, ok)

	assert.Equal(t, "1.5", Scalar(1.5))
	assert.Equal(t, "", Scalar(nil))
	assert.Equal(t, []string{"a", "1"}, Strings([]interface{}{"a", 1}))
	assert.Equal(t, []string{}, Strings(nil))
}

func mustMap(t *testing.T, m *Map, key string) *Map {
	t.Helper()
	v, ok := m.Get(key)
	require.True(t, ok, "missing key %s", key)
	sub, ok := AsMap(v)
	require.True(t, ok, "key %s is not a mapping", key)
	return sub
}
