// Package store keeps cleaned datasets as named snapshots in SQL, either a
// local sqlite file or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/HamletTheHamster/goat-explorer/internal/retry"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ErrNoSnapshot is returned for an unknown snapshot id.
var ErrNoSnapshot = errors.New("snapshot not found")

// Store is a snapshot database.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database, retrying while it comes up, and creates the
// tables if they do not exist.
func Open(ctx context.Context, driver, dsn string, policy retry.Policy) (*Store, error) {
	switch driver {
	case SQLite:
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	case Postgres:
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == SQLite {
		// one connection so :memory: databases are shared and writes serialise
		db.SetMaxOpenConns(1)
	}

	_, err = retry.WithRetry(ctx, policy, "ping "+driver, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, pingError(db.PingContext(ctx))
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Info().Str("driver", driver).Msg("Snapshot store ready")
	return s, nil
}

// pingError stops the retry loop for postgres errors that waiting cannot fix:
// bad credentials and missing databases.
func pingError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "28", "3D":
			return retry.Permanent(err)
		}
	}
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver is the driver name the store was opened with.
func (s *Store) Driver() string { return s.driver }

// ensureDir creates the parent directory of a file-backed sqlite DSN.
func ensureDir(dsn string) error {
	if dsn == "" || strings.HasPrefix(dsn, ":memory:") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		reference_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS snapshot_shoes (
		snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		shoe TEXT NOT NULL,
		sku TEXT NOT NULL,
		nickname TEXT NOT NULL,
		shoe_rank DOUBLE PRECISION,
		price DOUBLE PRECISION,
		release_date TEXT NOT NULL,
		days_from_march INTEGER NOT NULL,
		designer TEXT NOT NULL,
		main_color TEXT NOT NULL,
		technology TEXT NOT NULL,
		category TEXT NOT NULL,
		product_link TEXT NOT NULL,
		PRIMARY KEY (snapshot_id, position)
	)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	log.Debug().Msg("Snapshot tables verified")
	return nil
}

// rebind rewrites ? placeholders to $1, $2, ... for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
