package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/codegraph/internal/model"
)

var (
	contextMaxNodes   int
	contextIncludeCode bool
)

var contextCmd = &cobra.Command{
	Use:   "context [task description]",
	Short: "Assemble an LLM-ready context pack for a free-text task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cg, err := openProject()
		if err != nil {
			return err
		}
		defer cg.Close()

		task := args[0]
		for _, extra := range args[1:] {
			task += " " + extra
		}

		opts := model.DefaultBuildContextOptions()
		opts.MaxNodes = contextMaxNodes
		opts.IncludeCode = contextIncludeCode

		taskContext, err := cg.BuildContext(task, opts)
		if err != nil {
			return err
		}

		fmt.Println(taskContext.Summary)
		fmt.Println()
		for _, n := range taskContext.EntryPoints {
			fmt.Printf("Entry point: %s %s (%s:%d)\n", n.Kind, n.QualifiedName, n.FilePath, n.StartLine)
		}
		for _, block := range taskContext.CodeBlocks {
			fmt.Printf("\n--- %s:%d-%d ---\n%s\n", block.FilePath, block.StartLine, block.EndLine, block.Content)
		}
		return nil
	},
}

func init() {
	contextCmd.Flags().IntVar(&contextMaxNodes, "max-nodes", model.DefaultBuildContextOptions().MaxNodes, "Maximum entry-point nodes")
	contextCmd.Flags().BoolVar(&contextIncludeCode, "include-code", model.DefaultBuildContextOptions().IncludeCode, "Include source snippets")
	rootCmd.AddCommand(contextCmd)
}
