package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/daedaleanai/uvmgen/generator"
	"github.com/daedaleanai/uvmgen/log"
)

var parseFlags inputFlags

var parseCmd = &cobra.Command{
	Use:   "parse",
	Args:  cobra.NoArgs,
	Short: "Shows what generate would do",
	Long: `Parses the input documents and prints the block configuration, the derived
names, the test cases and the files a generate run would write. No
generation service is contacted.`,
	Run: runParse,
}

func init() {
	parseFlags.register(parseCmd)
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) {
	g := generator.New(parseFlags.options(loadSettings()), nil)
	if err := g.Load(context.Background()); err != nil {
		log.Fatal("%v\n", err)
	}

	out, err := yaml.Marshal(g.DryRun())
	if err != nil {
		log.Fatal("Failed to encode plan: %v\n", err)
	}
	fmt.Print(string(out))
}
