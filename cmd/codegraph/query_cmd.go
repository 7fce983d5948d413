package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/codegraph/internal/model"
)

var queryDepth int
var queryLimit int
var deadCodeKinds []string

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run an analytical query against the graph",
}

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Full-text search over indexed entities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cg, err := openProject()
		if err != nil {
			return err
		}
		defer cg.Close()

		results, err := cg.Search(args[0], queryLimit)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%-24s %-40s %s:%d score=%.3f\n", r.Node.Kind, r.Node.QualifiedName, r.Node.FilePath, r.Node.StartLine, r.Score)
		}
		return nil
	},
}

var callersCmd = &cobra.Command{
	Use:   "callers [node-id]",
	Short: "List nodes that transitively call the given node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cg, err := openProject()
		if err != nil {
			return err
		}
		defer cg.Close()

		pairs, err := cg.GetCallers(args[0], uint32(queryDepth))
		if err != nil {
			return err
		}
		for _, p := range pairs {
			fmt.Printf("%-24s %-40s %s:%d\n", p.Node.Kind, p.Node.QualifiedName, p.Node.FilePath, p.Node.StartLine)
		}
		return nil
	},
}

var calleesCmd = &cobra.Command{
	Use:   "callees [node-id]",
	Short: "List nodes that the given node transitively calls",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cg, err := openProject()
		if err != nil {
			return err
		}
		defer cg.Close()

		pairs, err := cg.GetCallees(args[0], uint32(queryDepth))
		if err != nil {
			return err
		}
		for _, p := range pairs {
			fmt.Printf("%-24s %-40s %s:%d\n", p.Node.Kind, p.Node.QualifiedName, p.Node.FilePath, p.Node.StartLine)
		}
		return nil
	},
}

var impactCmd = &cobra.Command{
	Use:   "impact [node-id]",
	Short: "Compute every node that directly or indirectly depends on the given node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cg, err := openProject()
		if err != nil {
			return err
		}
		defer cg.Close()

		sub, err := cg.GetImpactRadius(args[0], uint32(queryDepth))
		if err != nil {
			return err
		}
		for _, n := range sub.Nodes {
			fmt.Printf("%-24s %-40s %s:%d\n", n.Kind, n.QualifiedName, n.FilePath, n.StartLine)
		}
		return nil
	},
}

var deadCodeCmd = &cobra.Command{
	Use:   "dead-code",
	Short: "List nodes with no incoming references",
	RunE: func(cmd *cobra.Command, args []string) error {
		cg, err := openProject()
		if err != nil {
			return err
		}
		defer cg.Close()

		kinds := make([]model.NodeKind, len(deadCodeKinds))
		for i, k := range deadCodeKinds {
			kinds[i] = model.ParseNodeKind(k)
		}

		nodes, err := cg.FindDeadCode(kinds)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			fmt.Printf("%-24s %-40s %s:%d\n", n.Kind, n.QualifiedName, n.FilePath, n.StartLine)
		}
		return nil
	},
}

var circularCmd = &cobra.Command{
	Use:   "circular",
	Short: "Find circular file-level dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cg, err := openProject()
		if err != nil {
			return err
		}
		defer cg.Close()

		cycles, err := cg.FindCircularDependencies()
		if err != nil {
			return err
		}
		if len(cycles) == 0 {
			fmt.Println("No circular dependencies found.")
			return nil
		}
		for i, cycle := range cycles {
			fmt.Printf("Cycle %d: %v\n", i+1, cycle)
		}
		return nil
	},
}

func init() {
	queryCmd.PersistentFlags().IntVar(&queryDepth, "depth", 3, "Traversal depth")
	queryCmd.PersistentFlags().IntVar(&queryLimit, "limit", 20, "Maximum results")
	deadCodeCmd.Flags().StringSliceVar(&deadCodeKinds, "kind", nil, "Restrict to these node kinds (default: all kinds)")

	queryCmd.AddCommand(searchCmd, callersCmd, calleesCmd, impactCmd, deadCodeCmd, circularCmd)
	rootCmd.AddCommand(queryCmd)
}
