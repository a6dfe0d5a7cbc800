package generator

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daedaleanai/uvmgen/log"
	"github.com/daedaleanai/uvmgen/manifest"
	"github.com/daedaleanai/uvmgen/workspace"
)

const blockDocument = `DUT:
  module_name: conv_accel_wrapper
  clock: {name: aclk, frequency: 200MHz}
  reset: {name: aresetn, polarity: active_low}
  reference_model:
    type: C_model
    executable: ./model/conv_model
    arguments: [feature_file, weight_file]
  interfaces:
    m_weight_buffer_env:
      type: istream_env#(64)
    m_output_env:
      type: ostream_env#(32)
`

const vplanDocument = `test_cases:
  - TC_ID: TC_001
    Active_UVCs: [m_weight_buffer_env]
    Stimulus_Generation:
      regbank_program: {mode: "01", sign_8b: "1"}
  - TC_ID: TC_002
    Active_UVCs: [m_weight_buffer_env]
    Stimulus_Generation:
      regbank_program: {mode: "10", sign_8b: "0"}
  - TC_ID: TC_003
    Stimulus_Generation:
      regbank_program: {mode: "11"}
`

// fakeClient answers every prompt with a minimal class. Prompts containing
// one of `failOn` fail.
type fakeClient struct {
	mu      sync.Mutex
	prompts []string
	failOn  []string
}

func (c *fakeClient) Generate(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()
	for _, marker := range c.failOn {
		if strings.Contains(prompt, marker) {
			return "", errors.New("generation refused")
		}
	}
	return "Here is the code:\n```systemverilog\nclass generated;\nendclass\n```\n", nil
}

func (c *fakeClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func writeInputs(t *testing.T, blockText, vplanText string) Options {
	dir := t.TempDir()
	blockPath := filepath.Join(dir, "block.yaml")
	vplanPath := filepath.Join(dir, "vplan.yaml")
	require.NoError(t, os.WriteFile(blockPath, []byte(blockText), 0644))
	require.NoError(t, os.WriteFile(vplanPath, []byte(vplanText), 0644))
	return Options{
		BlockPath:   blockPath,
		VplanPath:   vplanPath,
		OutputDir:   filepath.Join(dir, "output"),
		Scoreboard:  true,
		Validate:    true,
		Concurrency: 2,
	}
}

func run(t *testing.T, opts Options, client *fakeClient) (*Generator, error) {
	g := New(opts, client)
	require.NoError(t, g.Load(context.Background()))
	return g, g.Run(context.Background())
}

func outputFile(t *testing.T, opts Options, rel string) string {
	data, err := os.ReadFile(filepath.Join(opts.OutputDir, rel))
	require.NoError(t, err, rel)
	return string(data)
}

func TestRunWritesLayout(t *testing.T) {
	opts := writeInputs(t, blockDocument, vplanDocument)
	client := &fakeClient{}
	g, err := run(t, opts, client)
	require.NoError(t, err)

	for _, rel := range []string{
		"ip_infra/interface/conv_accel_wrap_if.sv",
		"ip_infra/virtual_sequencer/conv_accel_wrap_virtual_sequencer.sv",
		"ip_infra/env/conv_accel_wrap_env.sv",
		"ip_infra/scoreboard/conv_accel_wrap_scoreboard.sv",
		"ip_infra/pkg/conv_accel_wrap_pkg.sv",
		"tests/tests/TC_001_test.sv",
		"tests/virtual_sequences/TC_003_vseq.sv",
	} {
		assert.Equal(t, "class generated;\nendclass\n", outputFile(t, opts, rel))
	}
	// 4 infrastructure prompts, 2 per test case and the package.
	assert.Equal(t, 4+2*3+1, client.calls())
	assert.Empty(t, g.Failed())

	m, err := manifest.Read(filepath.Join(opts.OutputDir, manifest.FileName))
	require.NoError(t, err)
	assert.Equal(t, "conv_accel_wrapper", m.Block)
	assert.Len(t, m.Inputs, 2)
	assert.Len(t, m.Artifacts, 11)
	assert.Empty(t, m.Snapshot)
}

func TestPackageListsGeneratedTests(t *testing.T) {
	opts := writeInputs(t, blockDocument, vplanDocument)
	client := &fakeClient{}
	_, err := run(t, opts, client)
	require.NoError(t, err)

	var packagePrompt string
	for _, p := range client.prompts {
		if strings.Contains(p, "UVM package file") {
			packagePrompt = p
		}
	}
	require.NotEmpty(t, packagePrompt)
	assert.Contains(t, packagePrompt, "TC_002_test.sv")
	assert.Contains(t, packagePrompt, "TC_003_vseq.sv")
}

func TestScoreboardFailureIsTolerated(t *testing.T) {
	opts := writeInputs(t, blockDocument, vplanDocument)
	g, err := run(t, opts, &fakeClient{failOn: []string{"UVM scoreboard class"}})
	require.NoError(t, err)
	assert.False(t, exists(opts, "ip_infra/scoreboard/conv_accel_wrap_scoreboard.sv"))
	assert.True(t, exists(opts, "ip_infra/pkg/conv_accel_wrap_pkg.sv"))
	assert.Empty(t, g.Failed())
}

func TestEnvFailureAborts(t *testing.T) {
	opts := writeInputs(t, blockDocument, vplanDocument)
	client := &fakeClient{failOn: []string{"UVM environment class"}}
	_, err := run(t, opts, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conv_accel_wrap_env")
	assert.False(t, exists(opts, "tests/tests/TC_001_test.sv"))
	assert.False(t, exists(opts, manifest.FileName))
}

func TestTestCaseFailureIsIsolated(t *testing.T) {
	opts := writeInputs(t, blockDocument, vplanDocument)
	g, err := run(t, opts, &fakeClient{failOn: []string{"TC_ID: TC_002"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"TC_002"}, g.Failed())
	assert.True(t, exists(opts, "tests/tests/TC_001_test.sv"))
	assert.True(t, exists(opts, "tests/tests/TC_003_test.sv"))
	assert.False(t, exists(opts, "tests/tests/TC_002_test.sv"))
	assert.True(t, exists(opts, "ip_infra/pkg/conv_accel_wrap_pkg.sv"))
}

func TestPhaseAOnly(t *testing.T) {
	opts := writeInputs(t, blockDocument, vplanDocument)
	opts.PhaseAOnly = true
	client := &fakeClient{}
	_, err := run(t, opts, client)
	require.NoError(t, err)
	assert.Equal(t, 4, client.calls())
	assert.False(t, exists(opts, "ip_infra/pkg/conv_accel_wrap_pkg.sv"))
	assert.Empty(t, workspace.New(opts.OutputDir).List(workspace.Test))
}

func TestPhaseBOnlyUsesExistingSequencer(t *testing.T) {
	opts := writeInputs(t, blockDocument, vplanDocument)
	existing := "class conv_accel_wrap_virtual_sequencer extends uvm_sequencer;\nendclass\n"
	require.NoError(t, os.MkdirAll(filepath.Join(opts.OutputDir, "ip_infra/virtual_sequencer"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(opts.OutputDir, "ip_infra/virtual_sequencer/conv_accel_wrap_virtual_sequencer.sv"), []byte(existing), 0644))

	opts.PhaseBOnly = true
	opts.TestIDs = []string{"TC_003"}
	client := &fakeClient{}
	_, err := run(t, opts, client)
	require.NoError(t, err)

	// test, virtual sequence and package
	require.Equal(t, 3, client.calls())
	assert.Contains(t, client.prompts[1], "extends uvm_sequencer")
	assert.Equal(t, []string{"TC_003_test"}, workspace.New(opts.OutputDir).List(workspace.Test))
	assert.False(t, exists(opts, "ip_infra/env/conv_accel_wrap_env.sv"))
}

func TestSkipExisting(t *testing.T) {
	opts := writeInputs(t, blockDocument, vplanDocument)
	_, err := run(t, opts, &fakeClient{})
	require.NoError(t, err)

	envPath := filepath.Join(opts.OutputDir, "ip_infra/env/conv_accel_wrap_env.sv")
	require.NoError(t, os.WriteFile(envPath, []byte("class edited;\nendclass\n"), 0644))

	opts.SkipExisting = true
	client := &fakeClient{}
	g, err := run(t, opts, client)
	require.NoError(t, err)
	assert.Zero(t, client.calls())
	assert.Equal(t, "class edited;\nendclass\n", outputFile(t, opts, "ip_infra/env/conv_accel_wrap_env.sv"))
	for _, r := range g.Files().Records() {
		assert.Equal(t, workspace.Skipped, r.Status, r.Path)
	}
}

func TestGitSnapshot(t *testing.T) {
	opts := writeInputs(t, blockDocument, vplanDocument)
	opts.GitSnapshot = true
	opts.PhaseAOnly = true
	g, err := run(t, opts, &fakeClient{})
	require.NoError(t, err)

	m, err := manifest.Read(filepath.Join(opts.OutputDir, manifest.FileName))
	require.NoError(t, err)
	assert.Len(t, m.Snapshot, 40)
	// Only the manifest written after the commit is pending.
	assert.True(t, g.Files().IsDirty())
}

func TestEmptyPlan(t *testing.T) {
	opts := writeInputs(t, blockDocument, "description: nothing to test\n")
	client := &fakeClient{}
	_, err := run(t, opts, client)
	require.NoError(t, err)
	// infrastructure and package only
	assert.Equal(t, 5, client.calls())
}

func TestPromptDump(t *testing.T) {
	opts := writeInputs(t, blockDocument, vplanDocument)
	opts.PromptDir = filepath.Join(t.TempDir(), "prompts")
	opts.PhaseAOnly = true
	_, err := run(t, opts, &fakeClient{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(opts.PromptDir, "conv_accel_wrap_env.prompt.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "conv_accel_wrap_virtual_sequencer")
}

func TestLoadMissingInput(t *testing.T) {
	opts := writeInputs(t, blockDocument, vplanDocument)
	opts.VplanPath = filepath.Join(t.TempDir(), "missing.yaml")
	err := New(opts, &fakeClient{}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestRunWithoutClient(t *testing.T) {
	opts := writeInputs(t, blockDocument, vplanDocument)
	assert.Error(t, New(opts, nil).Run(context.Background()))
}

func TestDryRun(t *testing.T) {
	opts := writeInputs(t, blockDocument, vplanDocument)
	opts.TestIDs = []string{"TC_001"}
	g := New(opts, nil)
	require.NoError(t, g.Load(context.Background()))

	plan := g.DryRun()
	assert.Equal(t, "standard", plan.Format)
	assert.Equal(t, "conv_accel_wrap_env", plan.Names.EnvClass)
	require.Len(t, plan.TestCases, 1)
	assert.Equal(t, []string{
		filepath.Join("ip_infra", "interface", "conv_accel_wrap_if.sv"),
		filepath.Join("ip_infra", "virtual_sequencer", "conv_accel_wrap_virtual_sequencer.sv"),
		filepath.Join("ip_infra", "env", "conv_accel_wrap_env.sv"),
		filepath.Join("ip_infra", "scoreboard", "conv_accel_wrap_scoreboard.sv"),
		filepath.Join("tests", "tests", "TC_001_test.sv"),
		filepath.Join("tests", "virtual_sequences", "TC_001_vseq.sv"),
		filepath.Join("ip_infra", "pkg", "conv_accel_wrap_pkg.sv"),
	}, plan.Files)
	assert.Equal(t, "./model/conv_model <feature_file> <weight_file>", plan.ModelCommand)
	assert.False(t, exists(opts, ""))
}

func exists(opts Options, rel string) bool {
	_, err := os.Stat(filepath.Join(opts.OutputDir, rel))
	return err == nil
}
