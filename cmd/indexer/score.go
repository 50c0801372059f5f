package main

import (
	"github.com/spf13/cobra"

	"github.com/liao/sommelier/internal/app"
	"github.com/liao/sommelier/internal/recommend"
)

var (
	scoreCount   int
	scoreJSON    bool
	scoreProfile profileFlags
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score the catalog against a taste profile",
	Long: `Ranks every wine by weighted similarity to the taste profile.
Does not need the vector index or any API credentials.`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().IntVarP(&scoreCount, "count", "n", recommend.DefaultCount, "number of wines to return")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "output results as JSON")
	scoreProfile.register(scoreCmd)
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	profile, err := scoreProfile.profile(cmd)
	if err != nil {
		return err
	}

	cat, closeSource, err := app.OpenCatalog(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	results := recommend.NewScorer(cat).Score(profile, scoreCount)

	if scoreJSON {
		return printJSON(cmd, results)
	}
	if len(results) == 0 {
		cmd.Println("No wines matched.")
		return nil
	}
	for i, r := range results {
		cmd.Printf("[%d] %s (%s) %s  score=%.4f\n", i+1, r.Wine.NameKo, r.Wine.WineType, formatPrice(r.Wine), r.Score)
	}
	return nil
}
