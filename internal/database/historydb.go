package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docseal/docseal/internal/model"
)

// HistoryDB provides SQLite-based storage for watermarking run history.
// It manages connection pooling and provides methods for recording and
// querying runs.
//
// Design decision: We use a single database file for all documents rather
// than one file per document. Runs are keyed by the input container's
// fingerprint, so cross-document queries ("list everything watermarked
// this week") stay cheap.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "docseal.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string.
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple connections just contend.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Runs store one row per completed embed or extract operation
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		operation TEXT NOT NULL,
		container_kind TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		images_total INTEGER NOT NULL,
		images_succeeded INTEGER NOT NULL,
		mean_psnr REAL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

	-- Run images store per-cover outcomes for a run
	CREATE TABLE IF NOT EXISTS run_images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		source_id TEXT NOT NULL,
		width INTEGER,
		height INTEGER,
		psnr REAL,
		quality TEXT,
		error_tag TEXT,
		error_detail TEXT,
		UNIQUE(run_id, idx)
	);

	CREATE INDEX IF NOT EXISTS idx_run_images_run ON run_images(run_id);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// InsertRun records a completed run with its per-image outcomes.
// The insert is transactional: either the run and all its images land,
// or nothing does.
func (hdb *HistoryDB) InsertRun(ctx context.Context, rec *model.RunRecord, images []model.ImageOutcome) error {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (run_id, operation, container_kind, fingerprint, images_total, images_succeeded, mean_psnr)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.RunID,
		rec.Operation,
		rec.Kind,
		rec.Fingerprint,
		rec.ImagesTotal,
		rec.ImagesSucceeded,
		rec.MeanPSNR,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i := range images {
		img := &images[i]
		var psnr float64
		var quality string
		if img.Fidelity != nil {
			psnr = img.Fidelity.PSNR
			quality = img.Fidelity.Quality
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO run_images (run_id, idx, source_id, width, height, psnr, quality, error_tag, error_detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			rec.RunID,
			img.Index,
			img.SourceID,
			img.Width,
			img.Height,
			psnr,
			quality,
			img.ErrorTag,
			img.ErrorDetail,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run image %d: %w", img.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by its run ID. Returns nil without error when the
// run does not exist.
func (hdb *HistoryDB) GetRun(ctx context.Context, runID string) (*model.RunRecord, error) {
	query := `
	SELECT run_id, operation, container_kind, fingerprint, images_total, images_succeeded, mean_psnr, created_at
	FROM runs
	WHERE run_id = ?
	`

	var rec model.RunRecord
	var createdAt string

	err := hdb.db.QueryRowContext(ctx, query, runID).Scan(
		&rec.RunID,
		&rec.Operation,
		&rec.Kind,
		&rec.Fingerprint,
		&rec.ImagesTotal,
		&rec.ImagesSucceeded,
		&rec.MeanPSNR,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rec.CreatedAt = parseTimestamp(createdAt)
	return &rec, nil
}

// ListRuns returns the most recent runs, newest first. A limit of zero or
// less means no limit.
func (hdb *HistoryDB) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	query := `
	SELECT run_id, operation, container_kind, fingerprint, images_total, images_succeeded, mean_psnr, created_at
	FROM runs
	ORDER BY created_at DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetRunsByFingerprint returns every run recorded for a document
// fingerprint, newest first.
func (hdb *HistoryDB) GetRunsByFingerprint(ctx context.Context, fingerprint string) ([]model.RunRecord, error) {
	query := `
	SELECT run_id, operation, container_kind, fingerprint, images_total, images_succeeded, mean_psnr, created_at
	FROM runs
	WHERE fingerprint = ?
	ORDER BY created_at DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// scanRuns drains a runs result set.
func scanRuns(rows *sql.Rows) ([]model.RunRecord, error) {
	var results []model.RunRecord
	for rows.Next() {
		var rec model.RunRecord
		var createdAt string

		err := rows.Scan(
			&rec.RunID,
			&rec.Operation,
			&rec.Kind,
			&rec.Fingerprint,
			&rec.ImagesTotal,
			&rec.ImagesSucceeded,
			&rec.MeanPSNR,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		rec.CreatedAt = parseTimestamp(createdAt)
		results = append(results, rec)
	}
	return results, rows.Err()
}

// GetRunImages retrieves the per-image outcomes of a run in cover order.
func (hdb *HistoryDB) GetRunImages(ctx context.Context, runID string) ([]model.ImageOutcome, error) {
	query := `
	SELECT idx, source_id, width, height, psnr, quality, error_tag, error_detail
	FROM run_images
	WHERE run_id = ?
	ORDER BY idx
	`

	rows, err := hdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run images: %w", err)
	}
	defer rows.Close()

	var results []model.ImageOutcome
	for rows.Next() {
		var img model.ImageOutcome
		var psnr float64
		var quality string

		err := rows.Scan(
			&img.Index,
			&img.SourceID,
			&img.Width,
			&img.Height,
			&psnr,
			&quality,
			&img.ErrorTag,
			&img.ErrorDetail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run image: %w", err)
		}

		if quality != "" {
			img.Fidelity = &model.FidelityScore{PSNR: psnr, Quality: quality}
		}
		results = append(results, img)
	}
	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
