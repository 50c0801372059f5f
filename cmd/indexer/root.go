package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liao/sommelier/internal/config"
	"github.com/liao/sommelier/internal/logging"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Build and inspect the wine vector index",
	Long: `Offline tooling for the sommelier backend.
Builds the persisted vector index from the wine catalog, runs retrieval
queries against it and scores the catalog against a taste profile.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		logging.Init(cfg.Log.Level, cfg.Log.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "config file path")
}
