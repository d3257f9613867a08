// Package sqlite is the relational store shared with the account service:
// it owns the text_items table and reads users, text sets and access tokens.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // driver "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // driver "sqlite" (pure Go)

	"github.com/kailas-cloud/textset/internal/db"
	"github.com/kailas-cloud/textset/internal/db/sqlite/migrations"
)

// Supported database/sql driver names.
const (
	DriverModernc = "sqlite"
	DriverCGO     = "sqlite3"
)

const memoryPath = ":memory:"

// Config selects the driver and database file.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration
}

// Store wraps a *sql.DB opened with foreign keys enforced.
type Store struct {
	db     *sql.DB
	path   string
	driver string
	now    func() time.Time
}

// Open opens (creating if needed) the database and applies pending migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if cfg.Path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, &db.Error{Op: db.OpOpen, Err: err}
	}
	if cfg.Path == memoryPath {
		// Every pooled connection would otherwise get its own empty database.
		conn.SetMaxOpenConns(1)
	}

	s := &Store{db: conn, path: cfg.Path, driver: cfg.Driver, now: time.Now}
	if err := s.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// buildDSN puts per-connection pragmas in the DSN so every pooled connection gets them.
func buildDSN(cfg Config) (string, error) {
	ms := cfg.BusyTimeout.Milliseconds()
	journal := "WAL"
	if cfg.Path == memoryPath {
		journal = "MEMORY"
	}
	switch cfg.Driver {
	case DriverModernc:
		return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=journal_mode(%s)",
			cfg.Path, ms, journal), nil
	case DriverCGO:
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=%d&_journal_mode=%s",
			cfg.Path, ms, journal), nil
	default:
		return "", fmt.Errorf("unknown sqlite driver %q", cfg.Driver)
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string { return s.driver }

// migrate applies every NNN_name.up.sql newer than the recorded version,
// each in its own transaction together with its schema_migrations row.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		)
	`); err != nil {
		return &db.Error{Op: db.OpMigrate, Err: err}
	}

	var current int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations",
	).Scan(&current); err != nil {
		return &db.Error{Op: db.OpMigrate, Err: err}
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
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
		if err := s.applyMigration(ctx, version, string(content)); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) applyMigration(ctx context.Context, version int, script string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpBegin, Err: err}
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, ignoreDone(tx.Rollback()))
		}
	}()

	if _, err = tx.ExecContext(ctx, script); err != nil {
		return &db.Error{Op: db.OpMigrate, Err: err}
	}
	if _, err = tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return &db.Error{Op: db.OpMigrate, Err: err}
	}
	if err = tx.Commit(); err != nil {
		return &db.Error{Op: db.OpCommit, Err: err}
	}
	return nil
}

// ignoreDone drops the error Rollback returns after a successful Commit or a
// context-triggered rollback.
func ignoreDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
