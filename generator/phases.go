package generator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/daedaleanai/uvmgen/assets"
	"github.com/daedaleanai/uvmgen/log"
	"github.com/daedaleanai/uvmgen/naming"
	"github.com/daedaleanai/uvmgen/vplan"
	"github.com/daedaleanai/uvmgen/workspace"
)

type step struct {
	kind     workspace.Kind
	name     string
	template string
	params   interface{}
}

func (g *Generator) runStep(ctx context.Context, s step) (string, error) {
	prompt, err := assets.Render(s.template, s.params)
	if err != nil {
		return "", err
	}
	log.StartSpinner(fmt.Sprintf("Generating %s...", s.name))
	defer log.StopSpinner()
	return g.artifact(ctx, s.kind, s.name, prompt)
}

// phaseA generates the IP infrastructure and returns the virtual sequencer
// source for the test-case prompts. Only a scoreboard failure is tolerated.
func (g *Generator) phaseA(ctx context.Context) (string, error) {
	log.WithField("phase", "A").Log("Generating IP infrastructure\n")
	log.IndentationLevel++
	defer func() { log.IndentationLevel-- }()

	var vseqr string
	steps := []step{
		{workspace.Interface, g.names.InterfaceName, assets.InterfacePrompt, g.interfaceParams()},
		{workspace.VirtualSequencer, g.names.VseqrClass, assets.VseqrPrompt, g.vseqrParams()},
		{workspace.Env, g.names.EnvClass, assets.EnvPrompt, g.envParams()},
	}
	for _, s := range steps {
		code, err := g.runStep(ctx, s)
		if err != nil {
			return "", err
		}
		if s.kind == workspace.VirtualSequencer {
			vseqr = code
		}
	}

	if g.opts.Scoreboard {
		s := step{workspace.Scoreboard, g.names.ScoreboardClass, assets.ScoreboardPrompt, g.scoreboardParams()}
		if _, err := g.runStep(ctx, s); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Warning("Scoreboard generation failed: %v\n", err)
		}
	}
	return vseqr, nil
}

// phaseB generates the test and virtual sequence of every selected test
// case, `Concurrency` test cases at a time. A failing test case is logged
// and skipped.
func (g *Generator) phaseB(ctx context.Context, vseqr string) error {
	log.WithField("phase", "B").Log("Generating test cases\n")
	log.IndentationLevel++
	defer func() { log.IndentationLevel-- }()

	testCases := g.testCases()
	if len(testCases) == 0 {
		log.Warning("No test cases to generate from %s\n", g.opts.VplanPath)
		return nil
	}
	log.Log("Generating %d test case(s)\n", len(testCases))

	log.StartSpinner("Generating test cases...")
	defer log.StopSpinner()

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.opts.Concurrency)
	for _, tc := range testCases {
		tc := tc
		group.Go(func() error {
			if err := g.testCase(groupCtx, tc, vseqr); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.WithField("tc_id", tc.TCID).Error("%v\n", err)
				g.mu.Lock()
				g.failed = append(g.failed, tc.TCID)
				g.mu.Unlock()
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	if failed := g.Failed(); len(failed) > 0 {
		log.Warning("%d test case(s) failed: %v\n", len(failed), failed)
	}
	return nil
}

func (g *Generator) testCase(ctx context.Context, tc vplan.TestCase, vseqr string) error {
	testPrompt, err := assets.Render(assets.TestPrompt, g.testParams(tc))
	if err != nil {
		return err
	}
	if _, err := g.artifact(ctx, workspace.Test, naming.TestClass(tc.TCID), testPrompt); err != nil {
		return err
	}

	vseqPrompt, err := assets.Render(assets.VseqPrompt, g.vseqParams(tc, vseqr))
	if err != nil {
		return err
	}
	_, err = g.artifact(ctx, workspace.VirtualSequence, naming.VseqClass(tc.TCID), vseqPrompt)
	return err
}

// phaseC generates the package including every test and virtual sequence
// present in the output tree.
func (g *Generator) phaseC(ctx context.Context) error {
	log.WithField("phase", "C").Log("Generating package\n")
	log.IndentationLevel++
	defer func() { log.IndentationLevel-- }()

	s := step{workspace.Package, g.names.PackageName, assets.PackagePrompt, g.packageParams()}
	_, err := g.runStep(ctx, s)
	return err
}
