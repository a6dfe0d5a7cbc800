// Package generator drives a generation run: it parses the input documents,
// renders one prompt per artifact, asks the generation service for the code
// and writes the results to the output tree.
package generator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/daedaleanai/uvmgen/block"
	"github.com/daedaleanai/uvmgen/llm"
	"github.com/daedaleanai/uvmgen/log"
	"github.com/daedaleanai/uvmgen/manifest"
	"github.com/daedaleanai/uvmgen/naming"
	"github.com/daedaleanai/uvmgen/refmodel"
	"github.com/daedaleanai/uvmgen/transform"
	"github.com/daedaleanai/uvmgen/util"
	"github.com/daedaleanai/uvmgen/uvc"
	"github.com/daedaleanai/uvmgen/vplan"
	"github.com/daedaleanai/uvmgen/workspace"
)

// Options configure a generation run.
type Options struct {
	BlockPath  string
	VplanPath  string
	OutputDir  string
	Examples   string
	UVCLib     string
	UVCMapping string

	Naming naming.Options

	PhaseAOnly   bool
	PhaseBOnly   bool
	TestIDs      []string
	SkipExisting bool
	Scoreboard   bool
	Validate     bool
	GitSnapshot  bool
	// PromptDir receives a copy of every rendered prompt when set.
	PromptDir   string
	Concurrency int

	// Provider and Model are recorded in the run manifest.
	Provider string
	Model    string
}

// Generator holds the parsed inputs of one run.
type Generator struct {
	opts   Options
	client llm.Client
	files  *workspace.FileManager

	block       block.Config
	format      block.Format
	warnings    []string
	blockText   string
	vplanText   string
	plan        *vplan.Plan
	mapping     *uvc.Mapping
	transformer *transform.Transformer
	names       naming.Names
	modelInfo   *refmodel.Info
	examples    map[string]string
	uvcInfo     string

	mu     sync.Mutex
	failed []string
}

// New returns a generator writing below `opts.OutputDir`. `client` may be
// nil for runs that never call the service, like DryRun.
func New(opts Options, client llm.Client) *Generator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Generator{
		opts:   opts,
		client: client,
		files:  workspace.New(opts.OutputDir),
	}
}

// Files is the output tree of the run.
func (g *Generator) Files() *workspace.FileManager {
	return g.files
}

// Failed lists the test cases that could not be generated.
func (g *Generator) Failed() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string{}, g.failed...)
}

// Load parses the block and vplan documents in parallel and collects the
// mapping, examples and library information. A missing input document is
// an error; everything else degrades with a warning.
func (g *Generator) Load(ctx context.Context) error {
	var blockResult block.Result
	var blockData, vplanData []byte

	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		data, err := util.ReadFile(g.opts.BlockPath)
		if err != nil {
			return fmt.Errorf("block document: %w", err)
		}
		blockData = data
		blockResult = block.Parse(string(data))
		return nil
	})
	group.Go(func() error {
		data, err := util.ReadFile(g.opts.VplanPath)
		if err != nil {
			return fmt.Errorf("vplan document: %w", err)
		}
		vplanData = data
		g.plan = vplan.Parse(string(data))
		return nil
	})
	if err := group.Wait(); err != nil {
		return err
	}

	g.block = blockResult.Config
	g.format = blockResult.Format
	g.warnings = blockResult.Warnings
	g.blockText = strings.TrimSpace(string(blockData))
	g.vplanText = string(vplanData)

	log.Debug("Block document uses the %s format\n", g.format)
	for _, w := range g.warnings {
		log.Warning("%s\n", w)
	}
	if g.plan.Problem != nil {
		log.Warning("Vplan %s: %v\n", g.opts.VplanPath, g.plan.Problem)
	}
	for _, w := range g.plan.Warnings {
		log.Warning("%s\n", w)
	}

	g.mapping = uvc.FromBlock(g.block)
	if g.opts.UVCMapping != "" {
		loaded, err := uvc.Load(g.opts.UVCMapping)
		if err != nil {
			return err
		}
		g.mapping.Merge(loaded)
	}
	g.transformer = transform.New(g.mapping.Transformations)
	g.names = naming.Derive(g.block.Name, g.opts.Naming)

	if source := g.block.Model.Path; isModelSource(source) {
		path := source
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(g.opts.BlockPath), path)
		}
		if info, err := refmodel.ParseFile(path); err != nil {
			log.Warning("%v\n", err)
		} else {
			g.modelInfo = &info
		}
	}

	var err error
	if g.examples, err = collectExamples(g.opts.Examples); err != nil {
		return err
	}
	if g.uvcInfo, err = collectUVCInfo(g.opts.UVCLib); err != nil {
		return err
	}

	log.Log("Block %q: env %s, virtual sequencer %s, interface %s, package %s\n",
		g.block.Name, g.names.EnvClass, g.names.VseqrClass, g.names.InterfaceName, g.names.PackageName)
	return nil
}

func isModelSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".cc", ".cpp", ".cxx":
		return true
	}
	return false
}

// testCases returns the configurations selected by Options.TestIDs.
func (g *Generator) testCases() []vplan.TestCase {
	configs := g.plan.Configs()
	if len(g.opts.TestIDs) == 0 {
		return configs
	}
	wanted := map[string]bool{}
	for _, id := range g.opts.TestIDs {
		wanted[id] = true
	}
	return util.FilteredSlice(configs, func(tc vplan.TestCase) bool { return wanted[tc.TCID] })
}

// artifact generates one file. With SkipExisting an existing file is
// returned without calling the service.
func (g *Generator) artifact(ctx context.Context, kind workspace.Kind, name, prompt string) (string, error) {
	entry := log.WithField("artifact", name)

	if g.opts.SkipExisting {
		if content, ok := g.files.Read(kind, name); ok {
			if _, err := g.files.Write(kind, name, content, true); err != nil {
				return "", err
			}
			entry.Log("Keeping existing %s\n", workspace.RelPath(kind, name))
			return content, nil
		}
	}

	if g.opts.PromptDir != "" {
		path := filepath.Join(g.opts.PromptDir, name+".prompt.txt")
		if err := util.WriteFile(path, []byte(prompt)); err != nil {
			return "", err
		}
	}

	response, err := g.client.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", name, err)
	}
	code := llm.ExtractCode(response)
	if g.opts.Validate {
		for _, issue := range llm.Validate(code) {
			entry.Warning("%s\n", issue)
		}
	}

	if _, err := g.files.Write(kind, name, code, false); err != nil {
		return "", err
	}
	entry.Success("Created %s\n", workspace.RelPath(kind, name))
	return code, nil
}

// Run executes the phases selected by the options and records the run
// manifest. Phase B failures of single test cases are reported by Failed,
// not returned.
func (g *Generator) Run(ctx context.Context) error {
	if g.client == nil {
		return errors.New("no generation client configured")
	}
	if g.plan == nil {
		if err := g.Load(ctx); err != nil {
			return err
		}
	}
	if err := g.files.Setup(); err != nil {
		return err
	}

	var vseqr string
	switch {
	case g.opts.PhaseBOnly:
		log.Warning("Phase B only: using existing infrastructure files\n")
		content, ok := g.files.Read(workspace.VirtualSequencer, g.names.VseqrClass)
		if !ok {
			log.Warning("Virtual sequencer %s not found, sequencer names will be derived\n", g.names.VseqrClass)
		}
		vseqr = content
	default:
		var err error
		if vseqr, err = g.phaseA(ctx); err != nil {
			return err
		}
	}

	if !g.opts.PhaseAOnly {
		if err := g.phaseB(ctx, vseqr); err != nil {
			return err
		}
		if err := g.phaseC(ctx); err != nil {
			return err
		}
	}

	return g.recordManifest()
}

func (g *Generator) recordManifest() error {
	path := filepath.Join(g.opts.OutputDir, manifest.FileName)
	m := manifest.New(g.block.Name, g.opts.Provider, g.opts.Model)
	m.AddInput("block", g.opts.BlockPath, []byte(g.blockText))
	m.AddInput("vplan", g.opts.VplanPath, []byte(g.vplanText))
	for _, r := range g.files.Records() {
		if err := m.AddArtifact(g.opts.OutputDir, string(r.Kind), r.Path); err != nil {
			return err
		}
	}

	if util.FileExists(path) {
		if previous, err := manifest.Read(path); err != nil {
			log.Warning("%v\n", err)
		} else if diff := manifest.Diff(m, previous); diff.Differ {
			log.Log("Changes since run %s:\n%s", previous.RunID, diff)
		}
	}

	if g.opts.GitSnapshot {
		if g.files.IsDirty() {
			hash, err := g.files.Snapshot(fmt.Sprintf("uvmgen run %s for %s", m.RunID, g.block.Name))
			if err != nil {
				return err
			}
			m.Snapshot = hash
		} else {
			log.Log("Output unchanged since the last snapshot\n")
		}
	}

	if err := manifest.Write(path, m); err != nil {
		return err
	}
	log.Debug("Wrote manifest %s\n", path)
	return nil
}
