package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/engine"
)

var (
	suggestLimit          int
	suggestThreshold      float64
	suggestDisableRecency bool
	suggestUseReranking   bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <query>",
	Short: "Rank decisions by similarity, recency, and graph proximity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := eng.Suggest(cmd.Context(), args[0], engine.SuggestOptions{
			Limit:          suggestLimit,
			Threshold:      suggestThreshold,
			DisableRecency: suggestDisableRecency,
			UseReranking:   suggestUseReranking,
		})
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%s  score=%.3f sim=%.3f source=%s rank=%.2f method=%s\n",
				r.Decision.ID, r.FinalScore, r.Similarity, r.GraphSource, r.GraphRank, r.SearchMethod)
		}
		return nil
	},
}

func init() {
	suggestCmd.Flags().IntVar(&suggestLimit, "limit", 10, "max results")
	suggestCmd.Flags().Float64Var(&suggestThreshold, "threshold", 0, "override similarity threshold (0 = adaptive)")
	suggestCmd.Flags().BoolVar(&suggestDisableRecency, "disable-recency", false, "order strictly by similarity")
	suggestCmd.Flags().BoolVar(&suggestUseReranking, "use-reranking", true, "expand results across the typed-edge graph")
	rootCmd.AddCommand(suggestCmd)
}
