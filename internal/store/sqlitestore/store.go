// Package sqlitestore keeps message records in an embedded SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/freema/convcom/internal/message"
	"github.com/freema/convcom/internal/store/sqlitestore/migrations"
)

// Store implements message.Store on SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ message.Store = (*Store)(nil)

// New opens (or creates) convcom.db inside dataDir and applies pending
// migrations.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "convcom.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save inserts or replaces a record.
func (s *Store) Save(ctx context.Context, r *message.Record) error {
	c, err := json.Marshal(r.Commit)
	if err != nil {
		return fmt.Errorf("encoding commit: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, source, commit_json, message, breaking, trace_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			commit_json = excluded.commit_json,
			message = excluded.message,
			breaking = excluded.breaking,
			trace_id = excluded.trace_id,
			created_at = excluded.created_at
	`, r.ID, string(r.Source), string(c), r.Message, r.Breaking, nullString(r.TraceID), r.CreatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// Get loads one record.
func (s *Store) Get(ctx context.Context, id string) (*message.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, commit_json, message, breaking, trace_id, created_at
		FROM records WHERE id = ?
	`, id)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, message.ErrRecordNotFound
	}
	return r, err
}

// List returns the newest records first.
func (s *Store) List(ctx context.Context, limit int) ([]*message.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, commit_json, message, breaking, trace_id, created_at
		FROM records ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	records := []*message.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*message.Record, error) {
	var (
		r         message.Record
		source    string
		commitRaw string
		traceID   sql.NullString
		created   int64
	)
	if err := row.Scan(&r.ID, &source, &commitRaw, &r.Message, &r.Breaking, &traceID, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	r.Source = message.Source(source)
	r.TraceID = traceID.String
	r.CreatedAt = time.UnixMicro(created).UTC()
	if err := json.Unmarshal([]byte(commitRaw), &r.Commit); err != nil {
		return nil, fmt.Errorf("decoding commit of record %s: %w", r.ID, err)
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}
