// Package main implements mama, a thin demo CLI over the decision
// memory engine's programmatic surface. Grounded on codenerd's
// cmd/nerd/main.go rootCmd/PersistentPreRunE structure, trimmed to this
// engine's much smaller command set.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/config"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/engine"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/logging"
)

var eng *engine.Engine

var rootCmd = &cobra.Command{
	Use:   "mama",
	Short: "mama - decision memory engine CLI",
	Long: `mama is a demo command-line front-end over the decision memory
engine: a local, embedded store of technical decisions linked into a
typed evolution graph and retrievable by similarity and recency.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logging.Init(os.Getenv("MAMA_LOG_LEVEL"))

		eng = engine.New(cfg)
		if err := eng.Init(cmd.Context()); err != nil {
			return fmt.Errorf("initialize engine: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if eng != nil {
			return eng.Close()
		}
		return nil
	},
}

func main() {
	rootCmd.SetContext(context.Background())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
