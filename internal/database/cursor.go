package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"media-helper/internal/mediastore"
	"media-helper/internal/mediatypes"
)

// Query implements mediastore.RecordStore. The row count and the rows are
// read from the same snapshot, and the returned cursor never yields more
// rows than Count.
func (d *Database) Query(ctx context.Context, q mediastore.Query) (mediastore.Cursor, error) {
	table, err := tableFor(q.Category)
	if err != nil {
		return nil, err
	}
	projection, err := resolveProjection(q.Category, q.Projection)
	if err != nil {
		return nil, err
	}

	where := ""
	if strings.TrimSpace(q.Selection) != "" {
		where = " WHERE " + q.Selection
	}
	order := ""
	if strings.TrimSpace(q.SortOrder) != "" {
		order = " ORDER BY " + q.SortOrder
	}

	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read: %w", err)
	}

	count, err := d.count(ctx, tx, table, where, q.SelectionArgs)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	start := time.Now()
	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s%s%s", strings.Join(projection, ", "), table, where, order),
		q.SelectionArgs...,
	)
	recordQuery("query", start, err)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("query %s: %w", table, err)
	}

	index := make(map[string]int, len(projection))
	for i, name := range projection {
		index[name] = i
	}
	return &rowCursor{
		tx:     tx,
		rows:   rows,
		count:  count,
		index:  index,
		values: make([]any, len(projection)),
	}, nil
}

func (d *Database) count(ctx context.Context, tx *sql.Tx, table, where string, args []any) (n int, err error) {
	start := time.Now()
	defer func() { recordQuery("count", start, err) }()

	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// resolveProjection validates requested columns against the category
// table. An empty projection selects every column.
func resolveProjection(category mediatypes.Category, requested []string) ([]string, error) {
	known := columnsOf(category)
	if len(requested) == 0 {
		return known, nil
	}

	out := make([]string, 0, len(requested))
	for _, name := range requested {
		if !slices.Contains(known, name) {
			return nil, fmt.Errorf("%w: %q is not a %s column", ErrInvalidColumn, name, category)
		}
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out, nil
}

type rowCursor struct {
	tx     *sql.Tx
	rows   *sql.Rows
	count  int
	read   int
	index  map[string]int
	values []any
	err    error
	closed bool
}

func (c *rowCursor) Count() int { return c.count }

func (c *rowCursor) Next() bool {
	if c.closed || c.err != nil || c.read >= c.count {
		return false
	}
	if !c.rows.Next() {
		return false
	}

	ptrs := make([]any, len(c.values))
	for i := range c.values {
		ptrs[i] = &c.values[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		c.err = fmt.Errorf("scan row %d: %w", c.read+1, err)
		return false
	}
	c.read++
	return true
}

func (c *rowCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *rowCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.rows.Close()
	if rbErr := c.tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		err = errors.Join(err, rbErr)
	}
	return err
}

func (c *rowCursor) value(column string) (any, error) {
	i, ok := c.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %s", mediastore.ErrColumnNotFound, column)
	}
	return c.values[i], nil
}

func (c *rowCursor) String(column string) (string, error) {
	v, err := c.value(column)
	if err != nil {
		return "", err
	}
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case time.Time:
		return v.Format(time.RFC3339), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func (c *rowCursor) Int64(column string) (int64, error) {
	v, err := c.value(column)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		return parseInt(column, v)
	case []byte:
		return parseInt(column, string(v))
	default:
		return 0, fmt.Errorf("column %s: cannot read %T as integer", column, v)
	}
}

func (c *rowCursor) Float64(column string) (float64, error) {
	v, err := c.value(column)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		return parseFloat(column, v)
	case []byte:
		return parseFloat(column, string(v))
	default:
		return 0, fmt.Errorf("column %s: cannot read %T as float", column, v)
	}
}

func parseInt(column, s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", column, err)
	}
	return n, nil
}

func parseFloat(column, s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", column, err)
	}
	return f, nil
}
