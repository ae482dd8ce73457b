package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// fakeIngest records calls made by commands.
type fakeIngest struct {
	mu       sync.Mutex
	calls    []string
	summary  *domain.RunSummary
	err      error
	removed  int
	entries  int
	rulesArg domain.SkipRules
}

func (f *fakeIngest) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeIngest) IndexAll(_ context.Context, roots []string, rules domain.SkipRules) (*domain.RunSummary, error) {
	f.record("all:" + strings.Join(roots, ","))
	f.rulesArg = rules
	return f.result(), f.err
}

func (f *fakeIngest) IndexOne(_ context.Context, path string) (*domain.RunSummary, error) {
	f.record("one:" + path)
	return f.result(), f.err
}

func (f *fakeIngest) Remove(_ context.Context, path string) (int, error) {
	f.record("remove:" + path)
	return f.removed, f.err
}

func (f *fakeIngest) Status() domain.IngestStatus { return domain.IngestStatus{} }

func (f *fakeIngest) EntryCount(context.Context) (int, error) { return f.entries, nil }

func (f *fakeIngest) result() *domain.RunSummary {
	if f.summary == nil {
		return &domain.RunSummary{}
	}
	s := *f.summary
	return &s
}

// fakeWatcher returns immediately from Run.
type fakeWatcher struct {
	roots []string
	err   error
}

func (f *fakeWatcher) Run(_ context.Context, roots []string) error {
	f.roots = roots
	return f.err
}

func (f *fakeWatcher) Stop() {}

func (f *fakeWatcher) State() driving.WatcherState { return driving.WatcherIdle }

// fakeQuery answers from a script keyed by question.
type fakeQuery struct {
	mu        sync.Mutex
	answers   map[string]*domain.Answer
	err       error
	questions []string
	sessions  []string
}

func (f *fakeQuery) Answer(_ context.Context, sessionID, question string) (*domain.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions = append(f.questions, question)
	f.sessions = append(f.sessions, sessionID)
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.answers[question]; ok {
		return a, nil
	}
	return &domain.Answer{Text: domain.NoContextMessage, NoContext: true}, nil
}

// fakeSettings is an in-memory driving.SettingsService.
type fakeSettings struct {
	settings domain.Settings
	saved    int
}

func (f *fakeSettings) Get() (*domain.Settings, error) {
	s := f.settings
	return &s, nil
}

func (f *fakeSettings) Save(s *domain.Settings) error {
	f.settings = *s
	f.saved++
	return nil
}

func (f *fakeSettings) GetDefaults() domain.Settings { return domain.DefaultSettings() }

func (f *fakeSettings) Validate() error { return f.settings.Validate() }

type testApp struct {
	ingest   *fakeIngest
	watcher  *fakeWatcher
	query    *fakeQuery
	settings *fakeSettings
	closed   int
}

// setupTestApp installs fakes behind the package-level hooks.
func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	ta := &testApp{
		ingest:   &fakeIngest{},
		watcher:  &fakeWatcher{},
		query:    &fakeQuery{answers: map[string]*domain.Answer{}},
		settings: &fakeSettings{settings: domain.DefaultSettings()},
	}

	oldFactory, oldSettings, oldDoctor, oldInfo, oldStdin := appFactory, settingsService, doctorChecks, configInfo, stdin
	SetAppFactory(func(context.Context) (*App, error) {
		return &App{
			Ingest:     ta.ingest,
			Watcher:    ta.watcher,
			Query:      ta.query,
			Roots:      []string{"/docs"},
			Rules:      domain.DefaultSkipRules(),
			ServerAddr: "127.0.0.1:0",
			Close: func() error {
				ta.closed++
				return nil
			},
		}, nil
	})
	SetSettingsService(ta.settings)

	t.Cleanup(func() {
		appFactory, settingsService, doctorChecks, configInfo, stdin = oldFactory, oldSettings, oldDoctor, oldInfo, oldStdin
		resetFlags()
	})
	return ta
}

// resetFlags restores every flag to its default between executions.
func resetFlags() {
	resetCommandFlags(rootCmd)
}

func resetCommandFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetCommandFlags(sub)
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags()
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
