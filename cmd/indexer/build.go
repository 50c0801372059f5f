package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/liao/sommelier/internal/app"
	"github.com/liao/sommelier/internal/wine"
)

var buildRebuild bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the persisted vector index",
	Long: `Loads the catalog and embeds every wine into the vector store.
An existing non-empty index is reused unless --rebuild is given.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildRebuild, "rebuild", false, "delete the existing index before building")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if cfg.EmbeddingAPIKey() == "" {
		return fmt.Errorf("%w: %s API key is empty", wine.ErrIndexUnavailable, cfg.Embedding.Provider)
	}

	if buildRebuild {
		if err := os.RemoveAll(cfg.RAG.VectorsDir); err != nil {
			return fmt.Errorf("remove %s: %w", cfg.RAG.VectorsDir, err)
		}
		cmd.Printf("Removed %s\n", cfg.RAG.VectorsDir)
	}

	cat, closeSource, err := app.OpenCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	idx, err := app.OpenIndex(ctx, cfg, func(ctx context.Context) ([]wine.Record, error) {
		return cat.All(), nil
	})
	if err != nil {
		return err
	}
	if err := idx.Ensure(ctx); err != nil {
		return err
	}

	cmd.Printf("Indexed %d of %d wines into %s\n", idx.Count(), cat.Len(), cfg.RAG.VectorsDir)
	return nil
}
