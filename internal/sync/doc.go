// Package sync runs ingest crawls against a registry adapter and persists what
// they find.
//
// # Runs
//
// A Runner drives one adapter in one of two modes:
//
//   - Populate crawls the whole listing using read-ahead paging.
//   - Update crawls the listing newest first, one page at a time, and stops at
//     the first item whose watermark is not newer than the stored watermark.
//     That item and everything after it are never persisted.
//
// Each item is converted (including the latest version lookup when the
// registry needs one) and stored by a bounded pool of workers. Item failures
// are soft: they are counted in Stats and logged, and the run continues.
// Paging failures are fatal: no further pages are fetched, in-flight item
// work finishes, and the run returns the error.
//
// Every run appends one ingest log entry when it ends, including failed runs.
//
// # Outcomes
//
// Every item yields exactly one Outcome. Processed counts the items that were
// persisted; the log records that count, so a run that saw N items and lost K
// of them logs N-K with success=true.
//
// # Coordinator Package
//
// The sync/coordinator subpackage schedules update runs followed by a common
// project refresh on cron specs.
package sync
