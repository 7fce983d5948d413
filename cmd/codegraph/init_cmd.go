package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/codegraph/internal/codegraph"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a codegraph project in the root directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if codegraph.IsInitialized(projectRoot) {
			return fmt.Errorf("codegraph project already initialized at %s", projectRoot)
		}

		cg, err := codegraph.Init(projectRoot, newRegistry())
		if err != nil {
			return err
		}
		defer cg.Close()

		fmt.Printf("Initialized codegraph project at %s\n", projectRoot)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
