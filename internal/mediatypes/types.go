package mediatypes

import "fmt"

// Category identifies one of the fixed record collections of the media store.
type Category string

const (
	// CategoryAudio holds audio tracks.
	CategoryAudio Category = "audio"
	// CategoryVideo holds video clips.
	CategoryVideo Category = "video"
	// CategoryImage holds still images.
	CategoryImage Category = "image"
	// CategoryOther marks a file that belongs to no collection.
	CategoryOther Category = "other"
)

// Categories lists the scannable categories in a stable order.
var Categories = []Category{CategoryAudio, CategoryVideo, CategoryImage}

// ParseCategory converts a user supplied name into a Category.
// Plural forms ("images", "videos") are accepted.
func ParseCategory(name string) (Category, error) {
	switch name {
	case "audio", "music":
		return CategoryAudio, nil
	case "video", "videos":
		return CategoryVideo, nil
	case "image", "images":
		return CategoryImage, nil
	}
	return CategoryOther, fmt.Errorf("unknown media category %q", name)
}

// AudioExtensions maps file extensions to whether they are supported audio formats.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
	".wma":  true,
	".amr":  true,
	".mid":  true,
}

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".heic": true,
	".heif": true,
	".tiff": true,
	".tif":  true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
	".m4v":  true,
	".3gp":  true,
	".mpeg": true,
	".mpg":  true,
	".ts":   true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Audio
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/x-wav",
	".wma":  "audio/x-ms-wma",
	".amr":  "audio/amr",
	".mid":  "audio/midi",

	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".tiff": "image/tiff",
	".tif":  "image/tiff",

	// Videos
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".3gp":  "video/3gpp",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".ts":   "video/mp2t",
}

// GetCategory returns the Category for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".mp3").
// Returns CategoryOther if the extension is not recognized.
func GetCategory(ext string) Category {
	switch {
	case AudioExtensions[ext]:
		return CategoryAudio
	case VideoExtensions[ext]:
		return CategoryVideo
	case ImageExtensions[ext]:
		return CategoryImage
	}
	return CategoryOther
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsMediaFile returns true if the extension represents a scannable media file.
func IsMediaFile(ext string) bool {
	return GetCategory(ext) != CategoryOther
}
