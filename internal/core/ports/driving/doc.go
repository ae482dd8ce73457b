// Package driving declares what the CLI, HTTP and MCP adapters may ask of
// the core: indexing, watching, answering, sessions and settings.
// internal/core/services implements every interface here.
package driving
