// Package services holds the core of sercha-rag: the batch embedder, the
// ingestion coordinator, the change watcher, the conversation session
// manager and the query service. Each implements a driving port and
// reaches infrastructure only through driven ports, so every service can
// be tested with in-memory fakes.
//
// Settings resolution also lives here: SettingsService layers a
// ConfigStore over domain.DefaultSettings, and CheckIndexCompatibility
// refuses to open an index built by a different embedding model.
package services
