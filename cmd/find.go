package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"maharajah/internal/apperr"
	"maharajah/internal/search"
)

var (
	flagTopK     int
	flagFormat   string
	flagMinScore float64
)

var findCmd = &cobra.Command{
	Use:   "find <prompt>",
	Short: "Find code chunks by semantic similarity (content vectors only)",
	Long:  "Find embeds the prompt and returns the nearest chunks by content-vector L2 distance. Lower scores are better.",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, args[0], func(a *app, min *float64) ([]search.Result, error) {
			return a.retriever.Find(cmd.Context(), args[0], flagTopK, min)
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <prompt>",
	Short: "Find code chunks with dual-vector rank fusion",
	Long:  "Query searches both the content and summary vector columns and fuses the rankings with Reciprocal Rank Fusion. Higher scores are better.",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, args[0], func(a *app, min *float64) ([]search.Result, error) {
			return a.retriever.Query(cmd.Context(), args[0], flagTopK, min)
		})
	},
}

func runSearch(cmd *cobra.Command, prompt string, retrieve func(*app, *float64) ([]search.Result, error)) error {
	if flagFormat != "text" && flagFormat != "json" {
		return apperr.Usagef("invalid --format %q: must be text or json", flagFormat)
	}

	app, err := newApp(cmd.Context(), false, 0)
	if err != nil {
		return err
	}
	defer app.Close()

	// Keep the index current before searching; a no-op on a clean tree.
	updated, err := app.refresh(cmd.Context())
	if err != nil {
		return err
	}
	if updated > 0 && flagFormat != "json" {
		fmt.Printf("[auto-refresh: %d file(s) updated]\n", updated)
	}

	var min *float64
	if cmd.Flags().Changed("min-score") {
		min = &flagMinScore
	}

	results, err := retrieve(app, min)
	if err != nil {
		return err
	}

	if flagFormat == "json" {
		return renderJSON(results)
	}
	renderText(results)
	return nil
}

func registerSearchFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&flagTopK, "top-k", "k", 10, "maximum number of results")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "output format: text or json")
	cmd.Flags().Float64Var(&flagMinScore, "min-score", 0, "drop results scoring below this value")
}

func init() {
	registerSearchFlags(findCmd)
	registerSearchFlags(queryCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(queryCmd)
}
