package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var indexRemove bool

var indexCmd = &cobra.Command{
	Use:   "index [path...]",
	Short: "Index documents into the vector index",
	Long: `Walks each directory and indexes every supported file. Re-running is
idempotent: unchanged files produce the same entries and entries from
files that shrank are pruned.

With no arguments the configured target directory (TARGET_DIR) is indexed.
A file argument re-indexes just that file.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexRemove, "remove", false, "remove the entries of the given files instead of indexing")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	app, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	if app.Ingest == nil {
		return errors.New("ingestion not configured")
	}
	ctx := commandContext(cmd)

	if indexRemove {
		if len(args) == 0 {
			return errors.New("--remove needs at least one path")
		}
		for _, arg := range args {
			path, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			n, err := app.Ingest.Remove(ctx, path)
			if err != nil {
				return fmt.Errorf("remove %s: %w", arg, err)
			}
			cmd.Printf("Removed %d entries for %s\n", n, path)
		}
		return nil
	}

	roots := app.Roots
	var files []string
	if len(args) > 0 {
		roots = nil
		for _, arg := range args {
			path, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if info.IsDir() {
				roots = append(roots, path)
			} else {
				files = append(files, path)
			}
		}
	}

	started := time.Now()
	total := &domain.RunSummary{}
	var runErr error
	if len(roots) > 0 {
		cmd.Printf("Indexing %v...\n", roots)
		summary, err := app.Ingest.IndexAll(ctx, roots, app.Rules)
		total.Merge(summary)
		runErr = err
	}
	for _, path := range files {
		if runErr != nil {
			break
		}
		summary, err := app.Ingest.IndexOne(ctx, path)
		total.Merge(summary)
		runErr = err
	}

	total.Duration = time.Since(started)
	printSummary(cmd, total)
	if runErr != nil {
		return fmt.Errorf("indexing failed: %w", runErr)
	}
	return nil
}

// printSummary writes a one-line run summary followed by any failures.
func printSummary(cmd *cobra.Command, s *domain.RunSummary) {
	cmd.Printf("Indexed %d documents (%d chunks), %d skipped, %d pruned in %s\n",
		s.Documents, s.Chunks, s.Skipped, s.Pruned, s.Duration.Round(time.Millisecond))
	if s.FailedBatches > 0 {
		cmd.Printf("%d embedding batches failed (%d chunks not indexed)\n", s.FailedBatches, s.FailedChunks)
	}
	for _, f := range s.Failures {
		cmd.Printf("  failed: %s: %v\n", f.Path, f.Err)
	}
	if s.Cancelled {
		cmd.Println("Run cancelled; the index holds every batch completed before cancellation.")
	}
}
