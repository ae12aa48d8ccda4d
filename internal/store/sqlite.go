package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// SQLitePersister keeps the snapshot as one row per posting in a SQLite
// database, plus a history of runs.
type SQLitePersister struct {
	db     *sql.DB
	codec  Codec
	logger *slog.Logger
}

// NewSQLitePersister opens (or creates) a SQLite database at dbPath and
// ensures its tables exist.
func NewSQLitePersister(dbPath string, codec Codec, logger *slog.Logger) (*SQLitePersister, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS postings (
			link     TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			company  TEXT NOT NULL,
			record   TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			started_at  DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			added       INTEGER NOT NULL,
			removed     INTEGER NOT NULL,
			enriched    INTEGER NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating sqlite schema: %w", err)
		}
	}

	return &SQLitePersister{db: db, codec: codec, logger: logger}, nil
}

// Load reads every posting in saved order. Rows that fail to decode are
// skipped with a warning.
func (s *SQLitePersister) Load(ctx context.Context) (*Store, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT record FROM postings ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying postings: %w", err)
	}
	defer rows.Close()

	st := New()
	skipped := 0
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scanning posting row: %w", err)
		}
		p, err := s.codec.DecodeOne([]byte(record))
		if err != nil {
			skipped++
			continue
		}
		st.Put(p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posting rows: %w", err)
	}
	if skipped > 0 {
		s.logger.Warn("skipped unreadable posting rows", "skipped", skipped)
	}
	return st, nil
}

// Save replaces the stored snapshot in one transaction.
func (s *SQLitePersister) Save(ctx context.Context, st *Store) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM postings"); err != nil {
		return fmt.Errorf("clearing postings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO postings (link, position, company, record) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range st.All() {
		record, err := s.codec.EncodeOne(p)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, p.Link, i, p.Company, string(record)); err != nil {
			return fmt.Errorf("inserting posting %s: %w", p.Link, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}

// Run is one recorded run of the monitor.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Added      int
	Removed    int
	Enriched   int
}

// RecordRun appends a run to the history.
func (s *SQLitePersister) RecordRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, started_at, finished_at, added, removed, enriched) VALUES (?, ?, ?, ?, ?, ?)",
		r.ID, r.StartedAt.UTC(), r.FinishedAt.UTC(), r.Added, r.Removed, r.Enriched)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *SQLitePersister) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, started_at, finished_at, added, removed, enriched FROM runs ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Added, &r.Removed, &r.Enriched); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLitePersister) Close() error {
	return s.db.Close()
}
