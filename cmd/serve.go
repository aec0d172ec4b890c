package cmd

import (
	"github.com/spf13/cobra"

	"maharajah/internal/index"
	"maharajah/internal/server"
)

var (
	flagHost string
	flagPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an HTTP server exposing find and query",
	Long:  "Serve builds the engine once, runs an initial index cycle, then answers POST /find and POST /query. A filesystem watcher keeps the index fresh with a debounced background refresh.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := newApp(ctx, false, 0)
		if err != nil {
			return err
		}
		defer app.Close()

		// Catch up before accepting queries.
		if _, err := app.indexer.Index(ctx, index.Flags{}); err != nil {
			return err
		}

		return server.Run(ctx, server.Config{
			Host:      flagHost,
			Port:      flagPort,
			Root:      app.targetDir,
			Store:     app.store,
			Retriever: app.retriever,
			Indexer:   app.indexer,
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagHost, "host", "127.0.0.1", "bind address")
	serveCmd.Flags().IntVar(&flagPort, "port", 7700, "listen port")
	rootCmd.AddCommand(serveCmd)
}
