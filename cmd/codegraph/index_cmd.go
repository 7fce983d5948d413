package main

import (
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ternarybob/codegraph/internal/codegraph"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Perform a full index of the project, discarding any prior graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		cg, err := openProject()
		if err != nil {
			return err
		}
		defer cg.Close()

		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("indexing"),
			progressbar.OptionSetWriter(cmd.OutOrStdout()),
			progressbar.OptionClearOnFinish(),
		)

		result, err := cg.IndexAll(func(done, total int) {
			bar.ChangeMax(total)
			_ = bar.Set(done)
		})
		if err != nil {
			color.Red("index failed: %v", err)
			return err
		}
		_ = bar.Finish()

		color.Green("Indexed %d file(s): %d node(s), %d edge(s) in %dms\n",
			result.FileCount, result.NodeCount, result.EdgeCount, result.DurationMS)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
