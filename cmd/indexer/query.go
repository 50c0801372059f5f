package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liao/sommelier/internal/app"
	"github.com/liao/sommelier/internal/rag"
	"github.com/liao/sommelier/internal/wine"
)

var (
	queryLimit   int
	queryJSON    bool
	queryProfile profileFlags
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Run a retrieval query against the index",
	Long: `Retrieves candidate wines for a free-text query, optionally augmented
with a taste profile, and applies the type, price and dislike filters.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 2, "maximum number of results")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	queryProfile.register(queryCmd)
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	profile, err := queryProfile.profile(cmd)
	if err != nil {
		return err
	}

	cat, closeSource, err := app.OpenCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	idx, err := app.OpenIndex(ctx, cfg, func(context.Context) ([]wine.Record, error) {
		return cat.All(), nil
	})
	if err != nil {
		return err
	}

	pipeline := rag.NewPipeline(idx, cfg.RAG.Candidates)
	wines, err := pipeline.Recommend(ctx, args[0], &profile, queryLimit)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return printJSON(cmd, wines)
	}
	if len(wines) == 0 {
		cmd.Println("No wines matched.")
		return nil
	}
	for i, w := range wines {
		cmd.Printf("[%d] %s (%s) %s  당도 %d 산도 %d 바디 %d 타닌 %d\n",
			i+1, w.NameKo, w.WineType, formatPrice(w), w.Sweetness, w.Acidity, w.Body, w.Tannin)
	}
	return nil
}
