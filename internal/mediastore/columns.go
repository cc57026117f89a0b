package mediastore

import (
	"errors"
	"fmt"

	"media-helper/internal/mediatypes"
)

// Columns shared by every category.
const (
	ColumnID           = "_id"
	ColumnData         = "_data"
	ColumnDisplayName  = "_display_name"
	ColumnTitle        = "title"
	ColumnMimeType     = "mime_type"
	ColumnSize         = "_size"
	ColumnDateAdded    = "date_added"
	ColumnDateModified = "date_modified"
	ColumnDuration     = "duration"
	ColumnWidth        = "width"
	ColumnHeight       = "height"
)

// Audio columns.
const (
	ColumnArtist         = "artist"
	ColumnArtistID       = "artist_id"
	ColumnAlbum          = "album"
	ColumnAlbumID        = "album_id"
	ColumnTrack          = "track"
	ColumnYear           = "year"
	ColumnIsMusic        = "is_music"
	ColumnIsPodcast      = "is_podcast"
	ColumnIsRingtone     = "is_ringtone"
	ColumnIsAlarm        = "is_alarm"
	ColumnIsNotification = "is_notification"
	ColumnIsAudiobook    = "is_audiobook"
)

// Video and image columns.
const (
	ColumnDescription = "description"
	ColumnLatitude    = "latitude"
	ColumnLongitude   = "longitude"
	ColumnIsPrivate   = "is_private"
	ColumnLanguage    = "language"
	ColumnTags        = "tags"
	ColumnVideoGroup  = "category"
	ColumnOrientation = "orientation"
)

const contentRoot = "content://media/external"

// ContentURI returns the stable URI of a record, e.g.
// content://media/external/audio/media/42.
func ContentURI(category mediatypes.Category, id int64) string {
	segment := string(category)
	if category == mediatypes.CategoryImage {
		segment = "images"
	}
	return fmt.Sprintf("%s/%s/media/%d", contentRoot, segment, id)
}

// ID reads the record id of the current row.
func ID(r Row) (int64, error) { return r.Int64(ColumnID) }

// DisplayName reads the file name shown to users.
func DisplayName(r Row) (string, error) { return r.String(ColumnDisplayName) }

// Title reads the media title.
func Title(r Row) (string, error) { return r.String(ColumnTitle) }

// MimeType reads the MIME type.
func MimeType(r Row) (string, error) { return r.String(ColumnMimeType) }

// Size reads the file size in bytes.
func Size(r Row) (int64, error) { return r.Int64(ColumnSize) }

// DateAdded reads the time the record was added, in Unix seconds.
func DateAdded(r Row) (int64, error) { return r.Int64(ColumnDateAdded) }

// DateModified reads the file modification time, in Unix seconds.
func DateModified(r Row) (int64, error) { return r.Int64(ColumnDateModified) }

// Path reads the file path of the record.
func Path(r Row) (string, error) { return r.String(ColumnData) }

// Duration reads the play length of audio or video in milliseconds.
func Duration(r Row) (int64, error) { return r.Int64(ColumnDuration) }

// Width reads the pixel width of a video or image.
func Width(r Row) (int64, error) { return r.Int64(ColumnWidth) }

// Height reads the pixel height of a video or image.
func Height(r Row) (int64, error) { return r.Int64(ColumnHeight) }

// AudioArtist reads the track artist.
func AudioArtist(r Row) (string, error) { return r.String(ColumnArtist) }

// AudioArtistID reads the artist id.
func AudioArtistID(r Row) (int64, error) { return r.Int64(ColumnArtistID) }

// AudioAlbum reads the album name.
func AudioAlbum(r Row) (string, error) { return r.String(ColumnAlbum) }

// AudioAlbumID reads the album id.
func AudioAlbumID(r Row) (int64, error) { return r.Int64(ColumnAlbumID) }

// AudioTrack reads the track number.
func AudioTrack(r Row) (int64, error) { return r.Int64(ColumnTrack) }

// AudioYear reads the release year.
func AudioYear(r Row) (int64, error) { return r.Int64(ColumnYear) }

// Description reads the free-form description of a video or image.
func Description(r Row) (string, error) { return r.String(ColumnDescription) }

// Latitude reads the capture latitude of a video or image.
func Latitude(r Row) (float64, error) { return r.Float64(ColumnLatitude) }

// Longitude reads the capture longitude of a video or image.
func Longitude(r Row) (float64, error) { return r.Float64(ColumnLongitude) }

// VideoLanguage reads the spoken language of a video.
func VideoLanguage(r Row) (string, error) { return r.String(ColumnLanguage) }

// VideoTags reads the tags of a video.
func VideoTags(r Row) (string, error) { return r.String(ColumnTags) }

// VideoGroup reads the user category of a video.
func VideoGroup(r Row) (string, error) { return r.String(ColumnVideoGroup) }

// Bool reads an integer flag column such as ColumnIsMusic.
func Bool(r Row, column string) (bool, error) {
	v, err := r.Int64(column)
	return v != 0, err
}

// optional maps ErrColumnNotFound to the zero value, for fields a
// projection is allowed to leave out.
func optional[V any](v V, err error) (V, error) {
	if errors.Is(err, ErrColumnNotFound) {
		var zero V
		return zero, nil
	}
	return v, err
}
