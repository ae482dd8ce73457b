// Command sercha-rag indexes a document directory and answers questions
// about it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/env"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
)

// version is set at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	fileStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	configStore := env.NewConfigStore(fileStore)
	if err := configStore.Load(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetConfigInfo(cli.ConfigInfo{
		Path:      configStore.Path(),
		Overrides: configStore.Overrides,
	})
	cli.SetDoctor(func(ctx context.Context) []cli.DoctorCheck {
		settings, err := settingsService.Get()
		if err != nil {
			return []cli.DoctorCheck{{Name: "settings", Err: err}}
		}
		results := ai.Check(ctx, settings)
		checks := make([]cli.DoctorCheck, 0, len(results))
		for _, r := range results {
			checks = append(checks, cli.DoctorCheck{Name: r.Name, Err: r.Err})
		}
		return checks
	})
	cli.SetAppFactory(func(context.Context) (*cli.App, error) {
		return buildApp(settingsService)
	})

	return cli.Execute(ctx)
}
