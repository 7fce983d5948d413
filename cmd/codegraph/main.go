// Command codegraph indexes a source tree into a queryable code graph and
// serves it over MCP, following the same rootCmd/init/Execute cobra idiom
// as the pack's top-level CLI (cmd/mount.go).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	projectRoot string
)

var rootCmd = &cobra.Command{
	Use:     "codegraph",
	Short:   "codegraph: a tiered, multi-language code intelligence engine",
	Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectRoot, "root", "r", ".", "Project root directory")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
