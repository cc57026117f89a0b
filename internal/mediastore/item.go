package mediastore

import (
	"fmt"
	"time"

	"media-helper/internal/mediatypes"
)

// Item is the generic decoded form of a media record.
type Item struct {
	ID           int64               `json:"id"`
	Category     mediatypes.Category `json:"category"`
	URI          string              `json:"uri"`
	Path         string              `json:"path,omitempty"`
	DisplayName  string              `json:"displayName"`
	Title        string              `json:"title,omitempty"`
	MimeType     string              `json:"mimeType,omitempty"`
	Size         int64               `json:"size"`
	DateAdded    time.Time           `json:"dateAdded"`
	DateModified time.Time           `json:"dateModified"`
}

// ItemDecoder decodes rows of category into Items. The id column is
// required; every other column may be projected away.
func ItemDecoder(category mediatypes.Category) Decoder[Item] {
	return DecoderFunc[Item](func(r Row) (Item, error) {
		id, err := ID(r)
		if err != nil {
			return Item{}, fmt.Errorf("decode %s item: %w", category, err)
		}

		it := Item{ID: id, Category: category, URI: ContentURI(category, id)}

		var added, modified int64
		fields := []func() error{
			func() (err error) { it.Path, err = optional(Path(r)); return },
			func() (err error) { it.DisplayName, err = optional(DisplayName(r)); return },
			func() (err error) { it.Title, err = optional(Title(r)); return },
			func() (err error) { it.MimeType, err = optional(MimeType(r)); return },
			func() (err error) { it.Size, err = optional(Size(r)); return },
			func() (err error) { added, err = optional(DateAdded(r)); return },
			func() (err error) { modified, err = optional(DateModified(r)); return },
		}
		for _, read := range fields {
			if err := read(); err != nil {
				return Item{}, fmt.Errorf("decode %s item %d: %w", category, id, err)
			}
		}

		if added > 0 {
			it.DateAdded = time.Unix(added, 0)
		}
		if modified > 0 {
			it.DateModified = time.Unix(modified, 0)
		}
		return it, nil
	})
}
