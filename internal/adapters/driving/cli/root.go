// Package cli implements the sercha-rag command line with cobra.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// App holds the services a command needs once configuration is resolved.
type App struct {
	Ingest   driving.IngestionCoordinator
	Watcher  driving.ChangeWatcher
	Query    driving.QueryService
	Sessions driving.SessionManager
	Metrics  httpapi.Metrics

	// Roots are the directories indexed when no path is given.
	Roots []string
	// Rules are the skip rules for walks.
	Rules domain.SkipRules
	// ServerAddr is the default listen address for serve.
	ServerAddr string

	// Close releases the index and AI clients. May be nil.
	Close func() error
}

// AppFactory builds an App. It is called lazily so that commands such as
// version and config work without a reachable index or provider.
type AppFactory func(ctx context.Context) (*App, error)

// DoctorCheck is the outcome of one connectivity check.
type DoctorCheck struct {
	Name string
	Err  error
}

// ConfigInfo describes where configuration came from.
type ConfigInfo struct {
	Path      string
	Overrides func() []string
}

var (
	verbose bool

	appFactory      AppFactory
	settingsService driving.SettingsService
	doctorChecks    func(ctx context.Context) []DoctorCheck
	configInfo      ConfigInfo
)

var errNotConfigured = errors.New("application not configured")

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Ask questions of a local document collection",
	Long: `sercha-rag indexes a directory of documents into a vector index and
answers questions about them with a language model, citing the source files.

Typical use:
  sercha-rag index            # index TARGET_DIR
  sercha-rag ask              # interactive question loop
  sercha-rag serve --watch    # HTTP endpoint with live re-indexing`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetAppFactory sets how commands obtain their services.
func SetAppFactory(f AppFactory) {
	appFactory = f
}

// SetSettingsService sets the settings service used by config commands.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetDoctor sets the connectivity checks run by the doctor command.
func SetDoctor(f func(ctx context.Context) []DoctorCheck) {
	doctorChecks = f
}

// SetConfigInfo records the config file path and environment overrides.
func SetConfigInfo(info ConfigInfo) {
	configInfo = info
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openApp builds the App and registers its cleanup on the command.
func openApp(cmd *cobra.Command) (*App, func(), error) {
	if appFactory == nil {
		return nil, nil, errNotConfigured
	}
	app, err := appFactory(commandContext(cmd))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if app.Close == nil {
			return
		}
		if err := app.Close(); err != nil {
			logger.Warn("close: %v", err)
		}
	}
	return app, cleanup, nil
}

// commandContext returns the context given to Execute. Cobra copies it onto
// a subcommand only while the subcommand has none, so a command that ran
// before keeps a stale context; the root's is replaced on every call.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Root().Context(); ctx != nil {
		return ctx
	}
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
