package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
)

var recallCmd = &cobra.Command{
	Use:   "recall <topic>",
	Short: "Return the supersede chain and semantic edges for a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := eng.Recall(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("chain (%d):\n", len(result.Chain))
		for _, d := range result.Chain {
			fmt.Printf("  %s: %s\n", d.ID, d.Decision)
		}
		printEdgeGroup("refines", result.Refines)
		printEdgeGroup("refined_by", result.RefinedBy)
		printEdgeGroup("contradicts", result.Contradicts)
		printEdgeGroup("contradicted_by", result.ContradictedBy)
		printEdgeGroup("builds_on", result.BuildsOn)
		printEdgeGroup("built_on_by", result.BuiltOnBy)
		printEdgeGroup("debates", result.Debates)
		printEdgeGroup("debated_by", result.DebatedBy)
		printEdgeGroup("synthesizes", result.Synthesizes)
		printEdgeGroup("synthesized_by", result.SynthesizedBy)
		return nil
	},
}

func printEdgeGroup(label string, edges []*model.Edge) {
	if len(edges) == 0 {
		return
	}
	fmt.Printf("%s (%d):\n", label, len(edges))
	for _, e := range edges {
		fmt.Printf("  %s -> %s\n", e.FromID, e.ToID)
	}
}

func init() {
	rootCmd.AddCommand(recallCmd)
}
