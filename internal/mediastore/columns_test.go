package mediastore

import (
	"errors"
	"testing"
	"time"

	"media-helper/internal/mediatypes"
)

func TestContentURI(t *testing.T) {
	tests := []struct {
		category mediatypes.Category
		id       int64
		want     string
	}{
		{mediatypes.CategoryAudio, 42, "content://media/external/audio/media/42"},
		{mediatypes.CategoryVideo, 7, "content://media/external/video/media/7"},
		{mediatypes.CategoryImage, 1, "content://media/external/images/media/1"},
	}

	for _, tt := range tests {
		if got := ContentURI(tt.category, tt.id); got != tt.want {
			t.Errorf("ContentURI(%s, %d) = %q, want %q", tt.category, tt.id, got, tt.want)
		}
	}
}

func TestColumnHelpers(t *testing.T) {
	c := &memCursor{pos: 0, rows: []map[string]any{{
		ColumnID:       int64(9),
		ColumnArtist:   "Nina Simone",
		ColumnAlbumID:  int64(3),
		ColumnIsMusic:  int64(1),
		ColumnLatitude: 52.5,
		ColumnTitle:    nil,
	}}}

	if id, err := ID(c); err != nil || id != 9 {
		t.Errorf("ID = %d, %v", id, err)
	}
	if artist, err := AudioArtist(c); err != nil || artist != "Nina Simone" {
		t.Errorf("AudioArtist = %q, %v", artist, err)
	}
	if album, err := AudioAlbumID(c); err != nil || album != 3 {
		t.Errorf("AudioAlbumID = %d, %v", album, err)
	}
	if music, err := Bool(c, ColumnIsMusic); err != nil || !music {
		t.Errorf("Bool(is_music) = %v, %v", music, err)
	}
	if lat, err := Latitude(c); err != nil || lat != 52.5 {
		t.Errorf("Latitude = %v, %v", lat, err)
	}
	if title, err := Title(c); err != nil || title != "" {
		t.Errorf("Title of NULL = %q, %v", title, err)
	}
	if _, err := Width(c); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("Width on missing column: %v, want ErrColumnNotFound", err)
	}
}

func TestItemDecoder(t *testing.T) {
	dec := ItemDecoder(mediatypes.CategoryAudio)

	t.Run("full row", func(t *testing.T) {
		c := &memCursor{pos: 0, rows: []map[string]any{{
			ColumnID:           int64(5),
			ColumnData:         "/music/song.mp3",
			ColumnDisplayName:  "song.mp3",
			ColumnTitle:        "Song",
			ColumnMimeType:     "audio/mpeg",
			ColumnSize:         int64(2048),
			ColumnDateAdded:    int64(1700000000),
			ColumnDateModified: int64(1690000000),
		}}}

		it, err := dec.Decode(c)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if it.ID != 5 || it.URI != "content://media/external/audio/media/5" {
			t.Errorf("id/uri = %d %q", it.ID, it.URI)
		}
		if it.DisplayName != "song.mp3" || it.Title != "Song" || it.MimeType != "audio/mpeg" || it.Size != 2048 {
			t.Errorf("fields = %+v", it)
		}
		if !it.DateAdded.Equal(time.Unix(1700000000, 0)) {
			t.Errorf("DateAdded = %v", it.DateAdded)
		}
	})

	t.Run("projected row", func(t *testing.T) {
		c := &memCursor{pos: 0, rows: []map[string]any{{ColumnID: int64(6)}}}
		it, err := dec.Decode(c)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if it.ID != 6 || it.DisplayName != "" || !it.DateAdded.IsZero() {
			t.Errorf("item = %+v", it)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		c := &memCursor{pos: 0, rows: []map[string]any{{ColumnDisplayName: "x"}}}
		if _, err := dec.Decode(c); !errors.Is(err, ErrColumnNotFound) {
			t.Errorf("Decode without id = %v, want ErrColumnNotFound", err)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		c := &memCursor{pos: 0, rows: []map[string]any{{ColumnID: int64(1), ColumnSize: "big"}}}
		if _, err := dec.Decode(c); err == nil {
			t.Error("Decode with string size should fail")
		}
	})
}
