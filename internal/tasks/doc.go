// Package tasks implements the batch operations behind the registered job
// names.
//
// The core abstraction is [IngestEngine], which performs one fetch-and-upsert
// cycle per invocation: pull the top-tracks chart, resolve artists and tracks
// by their natural URL keys, and record one chart-history observation per
// (track, chart date) pair. The whole cycle runs inside a single transaction
// so a failed run commits nothing. Re-running the same chart date updates metrics in place
// instead of duplicating history.
//
// [ReleaseProbe] implements the lighter new-releases job: fetch the current
// Spotify new-releases page and push its ETag to the alert webhook as a
// change marker.
package tasks
