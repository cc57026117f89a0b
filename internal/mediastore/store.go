package mediastore

import (
	"context"
	"errors"

	"media-helper/internal/mediatypes"
)

// ErrColumnNotFound is returned by Row accessors for a column that is not
// part of the current result set.
var ErrColumnNotFound = errors.New("column not found")

// Query describes one enumeration request against a RecordStore.
type Query struct {
	// Category selects the record collection (audio, video or image).
	Category mediatypes.Category
	// Projection lists the columns to return; empty means all columns.
	Projection []string
	// Selection is a filter expression with ? placeholders; empty means
	// every record.
	Selection string
	// SelectionArgs are bound to the placeholders in Selection.
	SelectionArgs []any
	// SortOrder is an ORDER BY expression; empty means store order.
	SortOrder string
}

// RecordStore is the queryable media index. Implementations may return a
// nil Cursor with a nil error when the query has no openable result set.
type RecordStore interface {
	Query(ctx context.Context, q Query) (Cursor, error)
}

// Row gives access to the fields of the current row by column name.
// SQL NULL values read as the zero value.
type Row interface {
	String(column string) (string, error)
	Int64(column string) (int64, error)
	Float64(column string) (float64, error)
}

// Cursor is a forward-only iterator over query results. Count reports the
// number of rows known at query time; Next never advances past it. The
// caller must Close the cursor after last use.
type Cursor interface {
	Row
	Count() int
	Next() bool
	Err() error
	Close() error
}
