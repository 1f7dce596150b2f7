package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently created decisions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		decisions, err := eng.List(cmd.Context(), listLimit)
		if err != nil {
			return err
		}
		for _, d := range decisions {
			fmt.Printf("%s [%s] %s: %s\n", d.ID, d.Outcome, d.Topic, d.Decision)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "max decisions to list")
	rootCmd.AddCommand(listCmd)
}
