// Package repositories implements database access for the chart schema.
//
// Repositories are constructed over a [DBTX], satisfied by both [sql.DB] and
// [sql.Tx], so an ingestion cycle can run every statement on a single
// transaction while tests and read paths use the bare connection. Upserts are
// keyed on the natural Last.fm URL keys; unique-constraint races resolve by
// re-reading the winning row.
package repositories
