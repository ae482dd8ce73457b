package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var watchSkipInitial bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the index in sync with the target directory",
	Long: `Indexes the target directory, then watches it and re-indexes files as
they are created or modified. Runs until interrupted.

Deleted files keep their entries unless WATCH_PRUNE_DELETED is set.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchSkipInitial, "no-initial", false, "skip the initial full index")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	app, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	if app.Ingest == nil || app.Watcher == nil {
		return errors.New("watcher not configured")
	}
	ctx := commandContext(cmd)

	if !watchSkipInitial {
		summary, err := app.Ingest.IndexAll(ctx, app.Roots, app.Rules)
		if summary != nil {
			printSummary(cmd, summary)
		}
		if err != nil {
			return fmt.Errorf("initial index failed: %w", err)
		}
	}

	cmd.Printf("Watching %v for changes (Ctrl+C to stop)\n", app.Roots)
	if err := app.Watcher.Run(ctx, app.Roots); err != nil && !errors.Is(err, ctx.Err()) {
		return fmt.Errorf("watcher: %w", err)
	}
	return nil
}
