package generator

import (
	"github.com/daedaleanai/uvmgen/block"
	"github.com/daedaleanai/uvmgen/naming"
	"github.com/daedaleanai/uvmgen/util"
	"github.com/daedaleanai/uvmgen/vplan"
	"github.com/daedaleanai/uvmgen/workspace"
)

// Plan is what a run would do with the loaded inputs.
type Plan struct {
	Format       string           `yaml:"format"`
	Block        block.Config     `yaml:"block"`
	Names        naming.Names     `yaml:"names"`
	TestCases    []vplan.TestCase `yaml:"test_cases"`
	Files        []string         `yaml:"files"`
	ExampleKinds []string         `yaml:"example_kinds"`
	Warnings     []string         `yaml:"warnings,omitempty"`
	VplanProblem string           `yaml:"vplan_problem,omitempty"`
	ModelCommand string           `yaml:"model_command,omitempty"`
}

// DryRun describes the files a Run with the current options would write.
// Load must have been called.
func (g *Generator) DryRun() Plan {
	plan := Plan{
		Format:       g.format.String(),
		Block:        g.block,
		Names:        g.names,
		TestCases:    g.testCases(),
		ExampleKinds: util.OrderedKeys(g.examples),
		Warnings:     append(append([]string{}, g.warnings...), g.plan.Warnings...),
		ModelCommand: g.modelParams().CommandLine,
	}
	if g.plan.Problem != nil {
		plan.VplanProblem = g.plan.Problem.Error()
	}

	if !g.opts.PhaseBOnly {
		plan.Files = append(plan.Files,
			workspace.RelPath(workspace.Interface, g.names.InterfaceName),
			workspace.RelPath(workspace.VirtualSequencer, g.names.VseqrClass),
			workspace.RelPath(workspace.Env, g.names.EnvClass))
		if g.opts.Scoreboard {
			plan.Files = append(plan.Files, workspace.RelPath(workspace.Scoreboard, g.names.ScoreboardClass))
		}
	}
	if !g.opts.PhaseAOnly {
		for _, tc := range plan.TestCases {
			plan.Files = append(plan.Files,
				workspace.RelPath(workspace.Test, naming.TestClass(tc.TCID)),
				workspace.RelPath(workspace.VirtualSequence, naming.VseqClass(tc.TCID)))
		}
		plan.Files = append(plan.Files, workspace.RelPath(workspace.Package, g.names.PackageName))
	}
	return plan
}
