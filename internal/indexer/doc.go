// Package indexer populates the media database from a directory tree.
//
// Walk classifies files by extension into audio, video and image records
// and upserts them in batches. Files are classified on a small pool of
// workers while a single goroutine owns the write transaction. Hidden files
// and directories (prefixed with '.') are skipped, and records for files
// that disappeared from the tree are removed at the end of a successful
// run.
package indexer
