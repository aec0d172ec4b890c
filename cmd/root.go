// Package cmd implements the maharajah command-line interface.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"maharajah/internal/apperr"
)

var (
	flagConfig  string
	flagDir     string
	flagVerbose int
)

var rootCmd = &cobra.Command{
	Use:           "maharajah",
	Short:         "Local semantic code search",
	Long:          "Maharajah indexes a project tree into a local vector store and answers natural-language queries with ranked code spans. No external service is contacted at query time.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		switch {
		case flagVerbose >= 2:
			level = slog.LevelDebug
		case flagVerbose == 1:
			level = slog.LevelInfo
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute parses and runs the CLI, returning the error for exit-code
// mapping in main.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to the global TOML config (default ~/.maharajah/maharajah.toml)")
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "D", "", "target project directory (default: current directory)")
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase verbosity (-v, -vv)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return apperr.Usagef("%v", err)
	})
}

// exactArgs is cobra.ExactArgs with usage-error classification so bad
// invocations exit with code 1.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return apperr.Usagef("%s expects %d argument(s), got %d", cmd.Name(), n, len(args))
		}
		return nil
	}
}
