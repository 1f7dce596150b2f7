package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/engine"
)

var (
	proposeReason   string
	proposeEvidence string
)

var proposeLinkCmd = &cobra.Command{
	Use:   "propose-link <from-id> <to-id> <relationship>",
	Short: "Propose a typed edge between two decisions, pending review",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := eng.ProposeLink(cmd.Context(), engine.ProposeLinkRequest{
			FromID: args[0], ToID: args[1], Relationship: args[2],
			Reason: proposeReason, Evidence: proposeEvidence,
		})
		if err != nil {
			return err
		}
		fmt.Printf("proposed edge %d\n", id)
		return nil
	},
}

var approveLinkCmd = &cobra.Command{
	Use:   "approve-link <edge-id>",
	Short: "Approve a pending edge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid edge id %q: %w", args[0], err)
		}
		if err := eng.ApproveLink(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("approved edge %d\n", id)
		return nil
	},
}

var rejectLinkCmd = &cobra.Command{
	Use:   "reject-link <edge-id>",
	Short: "Reject (delete) a pending edge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid edge id %q: %w", args[0], err)
		}
		if err := eng.RejectLink(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("rejected edge %d\n", id)
		return nil
	},
}

var pendingLinksCmd = &cobra.Command{
	Use:   "pending-links",
	Short: "List edges awaiting approval",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		edges, err := eng.GetPendingLinks(cmd.Context())
		if err != nil {
			return err
		}
		for _, e := range edges {
			fmt.Printf("%d: %s -[%s]-> %s (%s)\n", e.ID, e.FromID, e.Relationship, e.ToID, e.Reason)
		}
		return nil
	},
}

func init() {
	proposeLinkCmd.Flags().StringVar(&proposeReason, "reason", "", "why this edge is proposed")
	proposeLinkCmd.Flags().StringVar(&proposeEvidence, "evidence", "", "supporting evidence")
	rootCmd.AddCommand(proposeLinkCmd, approveLinkCmd, rejectLinkCmd, pendingLinksCmd)
}
