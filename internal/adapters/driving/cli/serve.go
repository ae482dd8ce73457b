package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP query endpoint",
	Long: `Starts an HTTP server answering questions.

Endpoints:
  POST /query    {"session_id": "...", "question": "..."}
  GET  /healthz  index size and indexing state
  GET  /metrics  Prometheus metrics

With --watch the target directory is indexed and watched in the background
while the server runs.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from SERVER_ADDR)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "index and watch the target directory while serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	if app.Query == nil {
		return fmt.Errorf("%w: configure an LLM provider to serve questions", domain.ErrLLMUnavailable)
	}

	if serveWatch && (app.Ingest == nil || app.Watcher == nil) {
		return errors.New("watcher not configured")
	}

	addr := serveAddr
	if addr == "" {
		addr = app.ServerAddr
	}

	server, err := httpapi.NewServer(httpapi.Ports{
		Query:   app.Query,
		Ingest:  app.Ingest,
		Metrics: app.Metrics,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Serving on %s\n", addr)
	g, ctx := errgroup.WithContext(commandContext(cmd))
	g.Go(func() error {
		return server.Run(ctx, addr)
	})
	if serveWatch {
		// The watcher starts before the initial scan; its re-indexing waits
		// on the scan's run lock, so changes made during the scan are kept.
		g.Go(func() error {
			if err := app.Watcher.Run(ctx, app.Roots); err != nil && ctx.Err() == nil {
				return fmt.Errorf("watcher: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			summary, err := app.Ingest.IndexAll(ctx, app.Roots, app.Rules)
			if summary != nil {
				printSummary(cmd, summary)
			}
			if err != nil && !errors.Is(err, domain.ErrIndexInProgress) {
				return fmt.Errorf("initial index failed: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}
