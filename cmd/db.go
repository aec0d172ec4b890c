package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the vector store",
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), false, 0)
		if err != nil {
			return err
		}
		defer app.Close()

		st, err := app.store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Files indexed : %d\n", st.FileCount)
		fmt.Printf("Total chunks  : %d\n", st.ChunkCount)
		fmt.Printf("Embedding dim : %d\n", st.Dimension)
		return nil
	},
}

var flagYes bool

var dbClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all indexed data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagYes {
			fmt.Println("Pass --yes to confirm clearing all indexed data.")
			return nil
		}
		// Opening with reset drops and recreates the tables, which also
		// resolves a model mismatch.
		app, err := newApp(cmd.Context(), true, 0)
		if err != nil {
			return err
		}
		defer app.Close()

		fmt.Println("Index cleared.")
		return nil
	},
}

func init() {
	dbClearCmd.Flags().BoolVar(&flagYes, "yes", false, "confirm the clear")
	dbCmd.AddCommand(dbStatsCmd)
	dbCmd.AddCommand(dbClearCmd)
	rootCmd.AddCommand(dbCmd)
}
