package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"lightbox/internal/config"
)

// Catalog manages the processed-file index backed by SQLite.
type Catalog struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies migrations.
func Open(cfg *config.Config) (*Catalog, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.CatalogPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	catalog := &Catalog{db: db, path: dbPath}
	if err := catalog.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return catalog, nil
}

// Close closes the underlying database connection.
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database file location.
func (c *Catalog) Path() string {
	return c.path
}

// MarkProcessed records that a file finished the given pipeline. Re-marking
// an already-recorded path refreshes its timestamp.
func (c *Catalog) MarkProcessed(ctx context.Context, path string, jobType string) error {
	if path == "" {
		return errors.New("mark processed: path is empty")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := c.db.ExecContext(
		ctx,
		`INSERT INTO processed_files (path, job_type, processed_at) VALUES (?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET job_type = excluded.job_type, processed_at = excluded.processed_at`,
		path,
		jobType,
		now,
	)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// IsProcessed reports whether a path has been recorded.
func (c *Catalog) IsProcessed(ctx context.Context, path string) (bool, error) {
	var count int
	row := c.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM processed_files WHERE path = ?`, path)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}
	return count > 0, nil
}

// Count returns the number of recorded files.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var count int
	row := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_files`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count processed files: %w", err)
	}
	return count, nil
}

// Prune removes records older than the cutoff and returns the number removed.
func (c *Catalog) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(
		ctx,
		`DELETE FROM processed_files WHERE processed_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune catalog: %w", err)
	}
	return res.RowsAffected()
}
