package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print aggregate graph statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cg, err := openProject()
		if err != nil {
			return err
		}
		defer cg.Close()

		stats, err := cg.GetStats()
		if err != nil {
			return err
		}

		fmt.Printf("Files:   %d\n", stats.FileCount)
		fmt.Printf("Nodes:   %d\n", stats.NodeCount)
		fmt.Printf("Edges:   %d\n", stats.EdgeCount)
		fmt.Printf("DB size: %d bytes\n", stats.DBSizeBytes)

		if len(stats.NodesByKind) > 0 {
			fmt.Println("\nNodes by kind:")
			printSortedCounts(stats.NodesByKind)
		}
		if len(stats.EdgesByKind) > 0 {
			fmt.Println("\nEdges by kind:")
			printSortedCounts(stats.EdgesByKind)
		}
		return nil
	},
}

func printSortedCounts(counts map[string]uint64) {
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("  %-24s %d\n", k, counts[k])
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
