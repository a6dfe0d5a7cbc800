package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daedaleanai/uvmgen/config"
	"github.com/daedaleanai/uvmgen/generator"
	"github.com/daedaleanai/uvmgen/llm"
	"github.com/daedaleanai/uvmgen/log"
	"github.com/daedaleanai/uvmgen/netrc"
)

// inputFlags are shared by the commands reading the input documents.
type inputFlags struct {
	block        string
	vplan        string
	output       string
	examples     string
	uvcLib       string
	uvcMapping   string
	testIDs      []string
	phaseAOnly   bool
	phaseBOnly   bool
	noScoreboard bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.block, "block", "b", "", "Block description document")
	cmd.Flags().StringVarP(&f.vplan, "vplan", "p", "", "Verification plan document")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output directory (default from settings)")
	cmd.Flags().StringVar(&f.examples, "examples", "", "Directory with example UVM sources")
	cmd.Flags().StringVar(&f.uvcLib, "uvc-lib", "", "Directory of the UVC library")
	cmd.Flags().StringVar(&f.uvcMapping, "uvc-mapping", "", "UVC mapping file")
	cmd.Flags().StringSliceVar(&f.testIDs, "test-ids", nil, "Only generate these test cases")
	cmd.Flags().BoolVar(&f.phaseAOnly, "phase-a-only", false, "Only generate the IP infrastructure")
	cmd.Flags().BoolVar(&f.phaseBOnly, "phase-b-only", false, "Only generate test cases and the package")
	cmd.Flags().BoolVar(&f.noScoreboard, "no-scoreboard", false, "Do not generate a scoreboard")
	cmd.MarkFlagsMutuallyExclusive("phase-a-only", "phase-b-only")
	cmd.MarkFlagRequired("block")
	cmd.MarkFlagRequired("vplan")
}

// options merges the flags over `settings`.
func (f *inputFlags) options(settings config.Settings) generator.Options {
	opts := generator.Options{
		BlockPath:    config.ExpandPath(f.block),
		VplanPath:    config.ExpandPath(f.vplan),
		OutputDir:    settings.Output.BaseDir,
		Examples:     settings.Paths.Examples,
		UVCLib:       settings.Paths.UVCLib,
		UVCMapping:   settings.UVCMappingPath(),
		Naming:       settings.Naming,
		PhaseAOnly:   f.phaseAOnly,
		PhaseBOnly:   f.phaseBOnly,
		TestIDs:      f.testIDs,
		SkipExisting: settings.Generation.SkipExisting,
		Scoreboard:   settings.Generation.Scoreboard && !f.noScoreboard,
		Validate:     settings.Generation.Validate,
		GitSnapshot:  settings.Generation.GitSnapshot,
		PromptDir:    settings.Generation.PromptDir,
		Concurrency:  settings.LLM.Concurrency,
		Provider:     settings.LLM.Provider,
		Model:        settings.LLM.Model,
	}
	override := func(value *string, flag string) {
		if flag != "" {
			*value = config.ExpandPath(flag)
		}
	}
	override(&opts.OutputDir, f.output)
	override(&opts.Examples, f.examples)
	override(&opts.UVCLib, f.uvcLib)
	override(&opts.UVCMapping, f.uvcMapping)
	return opts
}

var generateFlags struct {
	inputFlags
	apiKey       string
	provider     string
	model        string
	skipExisting bool
	gitSnapshot  bool
	promptDir    string
	concurrency  int
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Args:  cobra.NoArgs,
	Short: "Generates the UVM testbench of a block",
	Long: `Generates the UVM testbench of a block.

Phase A writes the interface, virtual sequencer, environment and scoreboard.
Phase B writes a test and a virtual sequence for every test case of the
verification plan. Phase C writes the package including all of them.`,
	Run: runGenerate,
}

func init() {
	generateFlags.register(generateCmd)
	generateCmd.Flags().StringVar(&generateFlags.apiKey, "api-key", "", "API key of the generation service")
	generateCmd.Flags().StringVar(&generateFlags.provider, "provider", "", fmt.Sprintf("Generation service (%s or %s)", llm.ProviderAnthropic, llm.ProviderOpenAI))
	generateCmd.Flags().StringVar(&generateFlags.model, "model", "", "Model name")
	generateCmd.Flags().BoolVar(&generateFlags.skipExisting, "skip-existing", false, "Keep files that already exist in the output directory")
	generateCmd.Flags().BoolVar(&generateFlags.gitSnapshot, "git-snapshot", false, "Commit the output directory after the run")
	generateCmd.Flags().StringVar(&generateFlags.promptDir, "prompt-dir", "", "Write every rendered prompt to this directory")
	generateCmd.Flags().IntVarP(&generateFlags.concurrency, "concurrency", "j", 0, "Number of test cases generated in parallel")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) {
	settings := loadSettings()
	if generateFlags.provider != "" {
		settings.LLM.Provider = generateFlags.provider
	}
	if generateFlags.model != "" {
		settings.LLM.Model = generateFlags.model
	}

	opts := generateFlags.options(settings)
	opts.Provider = settings.LLM.Provider
	opts.Model = settings.LLM.Model
	if generateFlags.skipExisting {
		opts.SkipExisting = true
	}
	if generateFlags.gitSnapshot {
		opts.GitSnapshot = true
	}
	if generateFlags.promptDir != "" {
		opts.PromptDir = config.ExpandPath(generateFlags.promptDir)
	}
	if generateFlags.concurrency > 0 {
		opts.Concurrency = generateFlags.concurrency
	}

	apiKey := settings.LLM.APIKey(generateFlags.apiKey, netrc.LoadUser())
	client, err := llm.New(settings.LLM.ClientConfig(apiKey))
	if err != nil {
		log.Fatal("%v\n", err)
	}
	retrying := llm.WithRetry(client)
	retrying.Retries = settings.LLM.Retries
	retrying.BaseDelay = settings.LLM.BaseDelay
	retrying.MaxDelay = settings.LLM.MaxDelay

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := generator.New(opts, retrying)
	if err := g.Load(ctx); err != nil {
		log.Fatal("%v\n", err)
	}
	if err := g.Run(ctx); err != nil {
		log.Fatal("%v\n", err)
	}

	fmt.Print(g.Files().Summary())
	if failed := g.Failed(); len(failed) > 0 {
		log.Fatal("Generation failed for test case(s) %v\n", failed)
	}
	log.Success("Testbench for %s generated in %s\n", opts.BlockPath, opts.OutputDir)
}
