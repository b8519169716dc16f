package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore keeps records as JSON documents in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite record store instance.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// NewSQLiteStoreWithDB wraps an existing connection. The caller is
// responsible for the schema.
func NewSQLiteStoreWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, logger: slog.New(slog.DiscardHandler)}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// a :memory: database lives and dies with its connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs all pending schema migrations.
func (s *SQLiteStore) Migrate() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(s.db)
	if err == nil {
		s.logger.Debug("record store migrated", "path", s.path, "version", version)
	}
	return nil
}

// Load reads the record for table.
func (s *SQLiteStore) Load(ctx context.Context, table string) (*Record, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM table_records WHERE name = ?`, table,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record %s: %w", table, err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, &MalformedRecordError{Table: table, Err: err}
	}
	if rec.Name == "" {
		rec.Name = table
	}
	return &rec, nil
}

// Save inserts or replaces the record.
func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if rec == nil || rec.Name == "" {
		return fmt.Errorf("record name is required")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.Name, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO table_records (name, record, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		rec.Name, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.Name, err)
	}
	return nil
}

// List returns the stored table names, sorted.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM table_records ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan record name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
