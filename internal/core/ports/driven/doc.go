// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Loader / LoaderRegistry: Extracts text from files by extension
//   - PostProcessorPipeline: Turns a document into chunks
//   - EmbeddingService: Computes vectors for text
//   - VectorIndex: Persistent entry storage and nearest-neighbour retrieval
//   - FileWalker: Enumerates candidate files under a root
//   - ConfigStore: Application configuration
//   - PromptStore: Answer prompt templates (defaults are built in)
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Generates answers. Without it, ask/serve are unavailable.
//   - FileWatcher: Change notifications. Without it, only full scans run.
//   - Metrics: Operational counters. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or loader package
package driven
