// Package history keeps an optional SQLite ledger of completed runs and their
// per-file failures. It is write-only from the pipeline's point of view:
// nothing in a run reads it back, so every run stays a fresh transformation.
package history
