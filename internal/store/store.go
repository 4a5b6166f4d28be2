// Package store opens the SQLite database shared by every RigForge module
// and applies each module's schema migrations.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/HerbHall/rigforge/pkg/plugin"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// ErrMigrationOrder is returned when a module's migrations are not listed in
// strictly ascending version order.
var ErrMigrationOrder = errors.New("migrations out of order")

// pragmas run on open, in order. In-memory databases skip journal_mode since
// they cannot use WAL.
var pragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"busy_timeout", "5000"},
	{"synchronous", "NORMAL"},
	{"foreign_keys", "ON"},
	{"cache_size", "-20000"},
}

// Compile-time interface guard.
var _ plugin.Store = (*SQLiteStore)(nil)

// SQLiteStore implements plugin.Store on a single modernc.org/sqlite
// connection.
type SQLiteStore struct {
	db   *sql.DB
	path string

	mu      sync.Mutex // serializes migrations
	tracked bool       // _migrations exists
}

// New opens the database at path, creating it and its parent directory when
// missing.
func New(path string) (*SQLiteStore, error) {
	memory := path == MemoryPath
	if !memory && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One connection: SQLite has a single writer, and an in-memory database
	// exists only on the connection that created it.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, p := range pragmas {
		if memory && p.name == "journal_mode" {
			continue
		}
		if _, err := db.ExecContext(ctx, "PRAGMA "+p.name+"="+p.value); err != nil {
			db.Close()
			return nil, fmt.Errorf("open sqlite %q: pragma %s: %w", path, p.name, err)
		}
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the path the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Tx runs fn in a transaction, committing when fn returns nil.
func (s *SQLiteStore) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Migrate applies the migrations of module newer than its recorded schema
// version. Each migration commits on its own, so a failure keeps the ones
// before it.
func (s *SQLiteStore) Migrate(ctx context.Context, module string, migrations []plugin.Migration) error {
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version <= migrations[i-1].Version {
			return fmt.Errorf("%w: %s version %d listed after %d",
				ErrMigrationOrder, module, migrations[i].Version, migrations[i-1].Version)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureTracking(ctx); err != nil {
		return err
	}
	current, err := s.version(ctx, module)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := s.apply(ctx, module, m); err != nil {
			return fmt.Errorf("migration %s/%d (%s): %w", module, m.Version, m.Description, err)
		}
	}
	return nil
}

// Versions returns the schema version of every migrated module.
func (s *SQLiteStore) Versions(ctx context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int)
	if err := s.ensureTracking(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT module, MAX(version) FROM _migrations GROUP BY module`)
	if err != nil {
		return nil, fmt.Errorf("list schema versions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var module string
		var v int
		if err := rows.Scan(&module, &v); err != nil {
			return nil, fmt.Errorf("scan schema version: %w", err)
		}
		out[module] = v
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ensureTracking creates the _migrations table. Callers hold s.mu.
func (s *SQLiteStore) ensureTracking(ctx context.Context) error {
	if s.tracked {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _migrations (
			module      TEXT     NOT NULL,
			version     INTEGER  NOT NULL,
			description TEXT     NOT NULL,
			applied_at  DATETIME NOT NULL,
			PRIMARY KEY (module, version)
		)`)
	if err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	s.tracked = true
	return nil
}

func (s *SQLiteStore) version(ctx context.Context, module string) (int, error) {
	var v sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM _migrations WHERE module = ?`, module,
	).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("schema version of %s: %w", module, err)
	}
	return int(v.Int64), nil
}

func (s *SQLiteStore) apply(ctx context.Context, module string, m plugin.Migration) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		if err := m.Up(tx); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO _migrations (module, version, description, applied_at) VALUES (?, ?, ?, ?)`,
			module, m.Version, m.Description, time.Now().UTC(),
		)
		return err
	})
}
