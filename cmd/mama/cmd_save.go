package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/engine"
)

var (
	saveReasoning   string
	saveConfidence  float64
	saveSessionID   string
	saveEvidence    string
	saveAlternatives string
	saveRisks       string
)

var saveCmd = &cobra.Command{
	Use:   "save <topic> <decision>",
	Short: "Record a new decision",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := eng.Save(cmd.Context(), engine.SaveRequest{
			Topic:        args[0],
			Decision:     args[1],
			Reasoning:    saveReasoning,
			Confidence:   saveConfidence,
			SessionID:    saveSessionID,
			Evidence:     saveEvidence,
			Alternatives: saveAlternatives,
			Risks:        saveRisks,
		})
		if err != nil {
			return err
		}

		fmt.Printf("saved: %s\n", result.ID)
		if result.Warning != "" {
			fmt.Printf("warning: %s\n", result.Warning)
		}
		if result.CollaborationHint != "" {
			fmt.Printf("hint: %s\n", result.CollaborationHint)
		}
		for _, s := range result.SimilarDecisions {
			fmt.Printf("similar: %s (similarity=%.2f)\n", s.Decision.ID, s.Similarity)
		}
		return nil
	},
}

func init() {
	saveCmd.Flags().StringVar(&saveReasoning, "reasoning", "", "explanation text")
	saveCmd.Flags().Float64Var(&saveConfidence, "confidence", 0.5, "confidence in [0,1]")
	saveCmd.Flags().StringVar(&saveSessionID, "session", "", "session id for outcome auto-attach")
	saveCmd.Flags().StringVar(&saveEvidence, "evidence", "", "supporting evidence")
	saveCmd.Flags().StringVar(&saveAlternatives, "alternatives", "", "alternatives considered")
	saveCmd.Flags().StringVar(&saveRisks, "risks", "", "known risks")
	rootCmd.AddCommand(saveCmd)
}
