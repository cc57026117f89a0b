// Package database provides the SQLite media index.
//
// Audio, video and image records live in one table each, keyed by file
// path. The indexer writes them in batches; scanners read them through
// Query, which implements mediastore.RecordStore with a cursor whose row
// count is fixed when the query runs.
//
// The database uses WAL mode for concurrent reads while indexing and
// creates its schema on open.
package database
