// Package connectors holds the document source adapters.
//
// The filesystem connector walks a directory tree for full ingestion runs
// and watches it for changes, implementing driven.FileWalker and
// driven.FileWatcher.
package connectors
