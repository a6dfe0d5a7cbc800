package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/daedaleanai/uvmgen/config"
	"github.com/daedaleanai/uvmgen/log"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "uvmgen",
	Short: "UVM testbench generator",
	Long: `uvmgen generates a UVM testbench for a hardware block from a block
description and a verification plan. The IP infrastructure (interface,
virtual sequencer, environment, scoreboard, package) and one test and virtual
sequence per test case are written by a text-generation service.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.PersistentFlags().BoolVarP(&log.Verbose, "verbose", "v", false, "Print debug output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory containing settings.yaml")
	if rootCmd.Execute() != nil {
		os.Exit(1)
	}
}

func loadSettings() config.Settings {
	settings, err := config.Load(configDir)
	if err != nil {
		log.Fatal("%v\n", err)
	}
	return settings
}
