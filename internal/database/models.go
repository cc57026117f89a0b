package database

import (
	"time"

	"media-helper/internal/mediatypes"
)

// Record is one media file as written by the indexer.
type Record struct {
	Path        string
	DisplayName string
	Title       string
	MimeType    string
	Size        int64
	ModTime     time.Time
	// Fields holds category-specific columns such as "artist" or "width".
	Fields map[string]any
}

// IndexStats summarizes the store after an indexing run.
type IndexStats struct {
	TotalAudio    int64     `json:"totalAudio"`
	TotalVideos   int64     `json:"totalVideos"`
	TotalImages   int64     `json:"totalImages"`
	LastIndexed   time.Time `json:"lastIndexed"`
	IndexDuration string    `json:"indexDuration"`
}

type column struct {
	name string
	decl string
}

var commonColumns = []column{
	{"_id", "INTEGER PRIMARY KEY AUTOINCREMENT"},
	{"_data", "TEXT NOT NULL UNIQUE"},
	{"_display_name", "TEXT NOT NULL"},
	{"title", "TEXT"},
	{"mime_type", "TEXT"},
	{"_size", "INTEGER NOT NULL DEFAULT 0"},
	{"date_added", "INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))"},
	{"date_modified", "INTEGER NOT NULL DEFAULT 0"},
}

// indexedAt tracks when the indexer last saw a record. It is not part of the
// queryable projection.
const indexedAt = "indexed_at"

var categoryColumns = map[mediatypes.Category][]column{
	mediatypes.CategoryAudio: {
		{"artist", "TEXT"},
		{"artist_id", "INTEGER"},
		{"album", "TEXT"},
		{"album_id", "INTEGER"},
		{"track", "INTEGER"},
		{"year", "INTEGER"},
		{"duration", "INTEGER"},
		{"is_music", "INTEGER NOT NULL DEFAULT 0"},
		{"is_podcast", "INTEGER NOT NULL DEFAULT 0"},
		{"is_ringtone", "INTEGER NOT NULL DEFAULT 0"},
		{"is_alarm", "INTEGER NOT NULL DEFAULT 0"},
		{"is_notification", "INTEGER NOT NULL DEFAULT 0"},
		{"is_audiobook", "INTEGER NOT NULL DEFAULT 0"},
	},
	mediatypes.CategoryVideo: {
		{"duration", "INTEGER"},
		{"width", "INTEGER"},
		{"height", "INTEGER"},
		{"description", "TEXT"},
		{"language", "TEXT"},
		{"tags", "TEXT"},
		{"category", "TEXT"},
		{"latitude", "REAL"},
		{"longitude", "REAL"},
		{"is_private", "INTEGER NOT NULL DEFAULT 0"},
	},
	mediatypes.CategoryImage: {
		{"width", "INTEGER"},
		{"height", "INTEGER"},
		{"description", "TEXT"},
		{"orientation", "INTEGER"},
		{"latitude", "REAL"},
		{"longitude", "REAL"},
		{"is_private", "INTEGER NOT NULL DEFAULT 0"},
	},
}

var tables = map[mediatypes.Category]string{
	mediatypes.CategoryAudio: "audio",
	mediatypes.CategoryVideo: "video",
	mediatypes.CategoryImage: "images",
}

// columnsOf returns the queryable columns of a category in schema order.
func columnsOf(category mediatypes.Category) []string {
	names := make([]string, 0, len(commonColumns)+len(categoryColumns[category]))
	for _, c := range commonColumns {
		names = append(names, c.name)
	}
	for _, c := range categoryColumns[category] {
		names = append(names, c.name)
	}
	return names
}
