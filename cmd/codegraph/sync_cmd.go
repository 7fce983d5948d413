package main

import (
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Incrementally update the graph for changed, new, and removed files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cg, err := openProject()
		if err != nil {
			return err
		}
		defer cg.Close()

		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("syncing"),
			progressbar.OptionSetWriter(cmd.OutOrStdout()),
			progressbar.OptionClearOnFinish(),
		)

		result, err := cg.Sync(func(done, total int) {
			bar.ChangeMax(total)
			_ = bar.Set(done)
		})
		if err != nil {
			color.Red("sync failed: %v", err)
			return err
		}
		_ = bar.Finish()

		color.Green("Sync complete: %d added, %d modified, %d removed in %dms\n",
			result.FilesAdded, result.FilesModified, result.FilesRemoved, result.DurationMS)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
