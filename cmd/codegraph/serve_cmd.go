package main

import (
	"github.com/spf13/cobra"

	"github.com/ternarybob/codegraph/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the graph's query surface as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cg, err := openProject()
		if err != nil {
			return err
		}
		defer cg.Close()

		return mcpserver.Serve(cg, version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
