// Package models defines domain entities and DTOs for the chart ingestion job.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing provider data
//   - [ChartEntry] : One ranked row of a provider chart snapshot
//
// 2. Persistent Entities: Database-backed rows of the relational schema
//   - [Artist] : Deduplicated by its stable Last.fm URL
//   - [Track] : Deduplicated by URL, owned by exactly one artist
//   - [ChartHistory] : One observation per (track, chart date) pair
//   - [IngestRun] : Bookkeeping for a single job invocation
//
// Persistent entities carry auto-increment surrogate keys; deduplication
// across repeated fetches always goes through the natural URL keys.
package models
