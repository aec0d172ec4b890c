package cmd

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"maharajah/internal/index"
)

var (
	flagReindex bool
	flagInclude []string
	flagExclude []string
	flagWorkers int
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the project into the vector store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := newApp(ctx, flagReindex, flagWorkers)
		if err != nil {
			return err
		}
		defer app.Close()

		var bar *progressbar.ProgressBar
		progress := func(done, total int) {}
		if term.IsTerminal(int(os.Stderr.Fd())) {
			bar = progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("Indexing"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			progress = func(done, total int) {
				bar.ChangeMax(total)
				bar.Set(done)
			}
		}
		app.indexer.SetProgress(progress)

		fmt.Printf("Indexing %s...\n", app.targetDir)
		report, err := app.indexer.Index(ctx, index.Flags{
			Reindex: flagReindex,
			Include: flagInclude,
			Exclude: flagExclude,
		})
		if bar != nil {
			bar.Finish()
		}
		if err != nil {
			return err
		}

		printReport(report)
		return nil
	},
}

func printReport(r *index.Report) {
	fmt.Printf("\nDone in %s\n", r.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Files:   %d scanned, %d changed, %d skipped, %d deleted\n",
		r.FilesScanned, r.FilesChanged, r.FilesSkipped, r.FilesDeleted)
	fmt.Printf("  Chunks:  %d written\n", r.ChunksWritten)
	fmt.Printf("  Phases:  walk %s, chunk %s, embed %s, store %s\n",
		r.WalkTime.Round(time.Millisecond),
		r.ChunkTime.Round(time.Millisecond),
		r.EmbedTime.Round(time.Millisecond),
		r.StoreTime.Round(time.Millisecond))

	if len(r.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d file(s) failed:\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", e.Path, e.Err)
		}
	}
}

func init() {
	indexCmd.Flags().BoolVar(&flagReindex, "reindex", false, "wipe and rebuild the index from scratch")
	indexCmd.Flags().StringArrayVarP(&flagInclude, "include", "i", nil, "file glob to include (repeatable)")
	indexCmd.Flags().StringArrayVarP(&flagExclude, "exclude", "x", nil, "file glob to exclude (repeatable)")
	indexCmd.Flags().IntVar(&flagWorkers, "workers", runtime.NumCPU(), "parallel chunking workers")
	rootCmd.AddCommand(indexCmd)
}
