package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// SourceMetadata describes the file a document or chunk came from.
type SourceMetadata struct {
	// Path is the absolute path of the source file.
	Path string

	// Extension is the lower-cased file extension including the dot.
	Extension string

	// ModTime is the file modification time observed at load.
	ModTime time.Time

	// Loader names the loader kind that produced the text.
	Loader LoaderKind
}

// NewSourceMetadata builds metadata for a path, normalising the extension.
func NewSourceMetadata(path string, modTime time.Time, loader LoaderKind) SourceMetadata {
	return SourceMetadata{
		Path:      path,
		Extension: strings.ToLower(filepath.Ext(path)),
		ModTime:   modTime,
		Loader:    loader,
	}
}

// Document is the text extracted from one source file.
// It is ephemeral: produced by a loader and consumed by the chunker.
type Document struct {
	// Path is the absolute source path and the document's identity.
	Path string

	// Title is a human-readable title derived from content or filename.
	Title string

	// Text is the full extracted text.
	Text string

	// Source holds the file metadata inherited by every chunk.
	Source SourceMetadata
}

// Chunk is a bounded segment of a document's text.
type Chunk struct {
	// ID is derived deterministically from (source path, sequence index).
	ID string

	// Seq is the zero-based position of the chunk within its document.
	Seq int

	// Text is the chunk content. len(Text) never exceeds the chunk size.
	Text string

	// Start and End are byte offsets of Text within the document.
	Start int
	End   int

	// Overlap is the number of leading bytes shared with the previous chunk.
	// Text[Overlap:] is the part of the document first covered by this chunk.
	Overlap int

	// Source is inherited from the parent document.
	Source SourceMetadata
}

// Fresh returns the portion of the chunk not shared with its predecessor.
func (c Chunk) Fresh() string {
	if c.Overlap <= 0 || c.Overlap > len(c.Text) {
		return c.Text
	}
	return c.Text[c.Overlap:]
}
