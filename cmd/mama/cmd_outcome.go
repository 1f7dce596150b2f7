package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/engine"
)

var (
	outcomeFailureReason string
	outcomeLimitation    string
)

var updateOutcomeCmd = &cobra.Command{
	Use:   "update-outcome <decision-id> <outcome>",
	Short: "Record SUCCESS, FAILED, or PARTIAL against an existing decision",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := eng.UpdateOutcome(cmd.Context(), engine.UpdateOutcomeRequest{
			ID:            args[0],
			Outcome:       args[1],
			FailureReason: outcomeFailureReason,
			Limitation:    outcomeLimitation,
		})
		if err != nil {
			return err
		}
		fmt.Printf("updated outcome for %s\n", args[0])
		return nil
	},
}

func init() {
	updateOutcomeCmd.Flags().StringVar(&outcomeFailureReason, "failure-reason", "", "why it failed")
	updateOutcomeCmd.Flags().StringVar(&outcomeLimitation, "limitation", "", "known limitation")
	rootCmd.AddCommand(updateOutcomeCmd)
}
