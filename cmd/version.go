package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daedaleanai/uvmgen/util"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Args:  cobra.NoArgs,
	Short: "Prints the version of this tool",
	Long:  `Prints the version of this tool.`,
	Run:   runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("uvmgen %s\n", util.GeneratorVersion)
}
