package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-helper/internal/logging"
	"media-helper/internal/mediatypes"
	"media-helper/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

var (
	// ErrUnknownCategory is returned for categories without a table.
	ErrUnknownCategory = errors.New("no table for media category")
	// ErrInvalidColumn is returned for projection or record fields that are
	// not columns of the category table.
	ErrInvalidColumn = errors.New("invalid column")
)

// Database is the SQLite media index. It implements mediastore.RecordStore.
type Database struct {
	db      *sql.DB
	dbPath  string
	mu      sync.RWMutex
	stats   IndexStats
	statsMu sync.RWMutex
}

// New creates a new Database instance.
// dbPath is the path to the database FILE; its parent directory must exist
// and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { recordQuery("initialize_schema", start, err) }()

	var b strings.Builder
	for _, category := range []mediatypes.Category{mediatypes.CategoryAudio, mediatypes.CategoryVideo, mediatypes.CategoryImage} {
		table := tables[category]
		fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", table)
		for _, c := range commonColumns {
			fmt.Fprintf(&b, "\t%s %s,\n", c.name, c.decl)
		}
		for _, c := range categoryColumns[category] {
			fmt.Fprintf(&b, "\t%s %s,\n", c.name, c.decl)
		}
		fmt.Fprintf(&b, "\t%s INTEGER NOT NULL DEFAULT 0\n);\n", indexedAt)
		fmt.Fprintf(&b, "CREATE INDEX IF NOT EXISTS idx_%s_date_added ON %s(date_added);\n", table, table)
		fmt.Fprintf(&b, "CREATE INDEX IF NOT EXISTS idx_%s_indexed_at ON %s(%s);\n", table, table, indexedAt)
		fmt.Fprintf(&b, "CREATE INDEX IF NOT EXISTS idx_%s_name ON %s(_display_name COLLATE NOCASE);\n", table, table)
	}
	b.WriteString(`
	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`)

	_, err = d.db.ExecContext(ctx, b.String())
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping checks that the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

func tableFor(category mediatypes.Category) (string, error) {
	table, ok := tables[category]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return table, nil
}

// Batch is a write transaction opened by BeginBatch.
type Batch struct {
	tx    *sql.Tx
	start time.Time
}

// BeginBatch starts a transaction for batch writes.
// The caller is responsible for calling EndBatch when done.
func (d *Database) BeginBatch(ctx context.Context) (*Batch, error) {
	d.mu.Lock()
	tx, err := d.db.BeginTx(ctx, nil)
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &Batch{tx: tx, start: time.Now()}, nil
}

// EndBatch commits the batch, or rolls it back when err is non-nil.
func (d *Database) EndBatch(b *Batch, err error) error {
	duration := time.Since(b.start).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		if rbErr := b.tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return b.tx.Commit()
}

// UpsertRecord inserts or updates the record keyed by rec.Path within a
// batch. date_added is kept from the first insert; indexed_at is refreshed.
func (d *Database) UpsertRecord(ctx context.Context, b *Batch, category mediatypes.Category, rec Record) (err error) {
	start := time.Now()
	defer func() { recordQuery("upsert", start, err) }()

	table, err := tableFor(category)
	if err != nil {
		return err
	}
	if rec.Path == "" {
		return errors.New("record path must not be empty")
	}

	displayName := rec.DisplayName
	if displayName == "" {
		displayName = filepath.Base(rec.Path)
	}

	cols := []string{"_data", "_display_name", "title", "mime_type", "_size", "date_modified"}
	args := []any{rec.Path, displayName, nullString(rec.Title), nullString(rec.MimeType), rec.Size, rec.ModTime.Unix()}

	extra := slices.Sorted(maps.Keys(rec.Fields))
	known := columnsOf(category)
	for _, name := range extra {
		if !slices.Contains(known, name) || slices.Contains(cols, name) || name == "_id" || name == "date_added" {
			return fmt.Errorf("%w: %s.%s", ErrInvalidColumn, table, name)
		}
		cols = append(cols, name)
		args = append(args, rec.Fields[name])
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	updates := make([]string, 0, len(cols))
	for _, c := range cols[1:] {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (%s, %s)
	VALUES (%s, strftime('%%s', 'now'))
	ON CONFLICT(_data) DO UPDATE SET
		%s,
		%s = strftime('%%s', 'now')
	`, table, strings.Join(cols, ", "), indexedAt, placeholders, strings.Join(updates, ",\n\t\t"), indexedAt)

	result, err := b.tx.ExecContext(ctx, query, args...)
	if err == nil {
		if rows, _ := result.RowsAffected(); rows > 0 {
			metrics.DBRowsAffected.WithLabelValues("upsert").Observe(float64(rows))
		}
	}
	return err
}

// Upsert writes a single record in its own transaction.
func (d *Database) Upsert(ctx context.Context, category mediatypes.Category, rec Record) error {
	b, err := d.BeginBatch(ctx)
	if err != nil {
		return err
	}
	return d.EndBatch(b, d.UpsertRecord(ctx, b, category, rec))
}

// DeleteMissing removes records under root that were not seen since cutoff.
func (d *Database) DeleteMissing(ctx context.Context, b *Batch, category mediatypes.Category, root string, cutoff time.Time) (n int64, err error) {
	start := time.Now()
	defer func() { recordQuery("delete_missing", start, err) }()

	table, err := tableFor(category)
	if err != nil {
		return 0, err
	}

	prefix := likeEscaper.Replace(strings.TrimSuffix(root, string(filepath.Separator))+string(filepath.Separator)) + "%"
	result, err := b.tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s < ? AND _data LIKE ? ESCAPE '\'`, table, indexedAt),
		cutoff.Unix(), prefix,
	)
	if err != nil {
		return 0, err
	}

	n, err = result.RowsAffected()
	if err == nil && n > 0 {
		metrics.DBRowsAffected.WithLabelValues("delete_missing").Observe(float64(n))
	}
	return n, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CountByCategory returns the number of records in each category table.
func (d *Database) CountByCategory(ctx context.Context) (counts map[mediatypes.Category]int64, err error) {
	start := time.Now()
	defer func() { recordQuery("stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	counts = make(map[mediatypes.Category]int64, len(tables))
	for category, table := range tables {
		var n int64
		if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[category] = n
	}
	return counts, nil
}

// UpdateStats updates the cached statistics.
func (d *Database) UpdateStats(stats IndexStats) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	d.stats = stats
}

// GetStats returns the current index statistics.
func (d *Database) GetStats() IndexStats {
	d.statsMu.RLock()
	defer d.statsMu.RUnlock()
	return d.stats
}

// Vacuum optimizes the database.
func (d *Database) Vacuum(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("vacuum", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "VACUUM")
	return err
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("Database file %s is read-only! Mode: %v - this will cause write failures", path, info.Mode())
		}
	}

	return nil
}
