// Package loaders provides implementations of the Loader interface for the
// document formats the indexer understands. Each loader reads a file from
// disk and extracts its text.
//
// Loaders are selected by file extension through the Registry, which is
// built from an extension table at startup.
package loaders
