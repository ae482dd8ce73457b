package driven

// ConfigStore is a flat key/value view of configuration. Keys use dot
// notation ("embedding.model"), which file-backed stores map to tables.
//
// Typed getters return the zero value when a key is missing or cannot be
// converted, so callers apply their own defaults.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// GetStringSlice accepts a list or a comma-separated string.
	GetStringSlice(key string) []string

	// Set records a value. Whether it is persisted before Save depends
	// on the store.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path names the backing file, for display.
	Path() string
}
