// Package mediatypes provides the media categories shared by the record store,
// the indexer and the scanner.
//
// The package has no dependencies beyond the standard library so that any
// other package can import it without creating import cycles.
//
// # Categories
//
// Every record in the media store belongs to exactly one Category:
//
//	mediatypes.CategoryAudio // mp3, flac, ogg, ...
//	mediatypes.CategoryVideo // mp4, mkv, webm, ...
//	mediatypes.CategoryImage // jpg, png, heic, ...
//
// Use GetCategory to classify a file by its extension:
//
//	ext := strings.ToLower(filepath.Ext(filename))
//	if cat := mediatypes.GetCategory(ext); cat != mediatypes.CategoryOther {
//	    // index it
//	}
//
// GetMimeType returns the MIME type recorded alongside each file.
package mediatypes
