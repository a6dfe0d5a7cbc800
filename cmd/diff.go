package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/daedaleanai/uvmgen/config"
	"github.com/daedaleanai/uvmgen/log"
	"github.com/daedaleanai/uvmgen/manifest"
	"github.com/daedaleanai/uvmgen/util"
)

var diffCmd = &cobra.Command{
	Use:   "diff NEW OLD",
	Args:  cobra.ExactArgs(2),
	Short: "Compares the manifests of two runs",
	Long: `Compares the manifests of two runs. Each argument is a manifest file or an
output directory containing one.`,
	Run: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func manifestPath(arg string) string {
	path := config.ExpandPath(arg)
	if util.DirExists(path) {
		return filepath.Join(path, manifest.FileName)
	}
	return path
}

func runDiff(cmd *cobra.Command, args []string) {
	newManifest, err := manifest.Read(manifestPath(args[0]))
	if err != nil {
		log.Fatal("%v\n", err)
	}
	oldManifest, err := manifest.Read(manifestPath(args[1]))
	if err != nil {
		log.Fatal("%v\n", err)
	}

	log.Debug("Comparing run %s with run %s\n", newManifest.RunID, oldManifest.RunID)
	fmt.Print(manifest.Diff(newManifest, oldManifest))
}
