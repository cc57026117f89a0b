package mediastore

import (
	"fmt"
	"strings"
)

// SortKeys maps user-facing sort keys onto columns.
var SortKeys = map[string]string{
	"name":     ColumnDisplayName,
	"title":    ColumnTitle,
	"size":     ColumnSize,
	"added":    ColumnDateAdded,
	"modified": ColumnDateModified,
}

// OrderBy builds a sort order from a key in SortKeys and a direction of
// "asc" or "desc". Empty values mean name ascending. Text columns sort
// case-insensitively.
func OrderBy(key, direction string) (string, error) {
	if key == "" {
		key = "name"
	}
	column, ok := SortKeys[key]
	if !ok {
		return "", fmt.Errorf("%w key %q", ErrInvalidSort, key)
	}
	switch strings.ToLower(direction) {
	case "", "asc":
		direction = "ASC"
	case "desc":
		direction = "DESC"
	default:
		return "", fmt.Errorf("%w order %q", ErrInvalidSort, direction)
	}
	if column == ColumnDisplayName || column == ColumnTitle {
		return column + " COLLATE NOCASE " + direction, nil
	}
	return column + " " + direction, nil
}

// Contains returns a selection and its argument matching rows whose column
// contains substr literally.
func Contains(column, substr string) (selection string, arg any) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(substr)
	return column + ` LIKE ? ESCAPE '\'`, "%" + escaped + "%"
}
