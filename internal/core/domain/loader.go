package domain

import "strings"

// LoaderKind identifies a family of document loaders.
type LoaderKind string

// Available loader kinds.
const (
	LoaderPlainText LoaderKind = "plaintext"
	LoaderCode      LoaderKind = "code"
	LoaderPDF       LoaderKind = "pdf"
	LoaderWord      LoaderKind = "docx"
	LoaderMarkdown  LoaderKind = "markdown"
	LoaderHTML      LoaderKind = "html"
	LoaderGeneric   LoaderKind = "generic"
)

// IsValid returns true if the loader kind is recognised.
func (k LoaderKind) IsValid() bool {
	switch k {
	case LoaderPlainText, LoaderCode, LoaderPDF, LoaderWord, LoaderMarkdown, LoaderHTML, LoaderGeneric:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k LoaderKind) String() string {
	return string(k)
}

// DefaultExtensionTable maps file extensions to loader kinds.
// Extensions are lower-case and include the leading dot.
func DefaultExtensionTable() map[string]LoaderKind {
	return map[string]LoaderKind{
		".txt":  LoaderPlainText,
		".py":   LoaderCode,
		".go":   LoaderCode,
		".pdf":  LoaderPDF,
		".docx": LoaderWord,
		".md":   LoaderMarkdown,
		".r":    LoaderGeneric,
		".rmd":  LoaderGeneric,
		".html": LoaderHTML,
		".htm":  LoaderHTML,
	}
}

// DefaultSkipDirs are directory names never descended into.
func DefaultSkipDirs() []string {
	return []string{"__pycache__", "node_modules", ".git", ".DS_Store"}
}

// SkipRules configures which paths a directory walk ignores.
type SkipRules struct {
	// Dirs are exact path component names to skip.
	Dirs []string

	// SecretMarker skips any path component containing it (case-insensitive).
	// Empty disables the check.
	SecretMarker string

	// Patterns are glob patterns matched against the path relative to the root.
	Patterns []string
}

// DefaultSkipRules returns the rules used when none are configured.
func DefaultSkipRules() SkipRules {
	return SkipRules{
		Dirs:         DefaultSkipDirs(),
		SecretMarker: "env",
	}
}

// SkipsComponent reports whether a single path component is excluded by
// the directory list or the secret marker.
func (r SkipRules) SkipsComponent(name string) bool {
	for _, d := range r.Dirs {
		if name == d {
			return true
		}
	}
	if r.SecretMarker != "" && strings.Contains(strings.ToLower(name), strings.ToLower(r.SecretMarker)) {
		return true
	}
	return false
}
