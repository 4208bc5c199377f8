package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema_postgres.sql
var postgresSchema string

//go:embed schema_sqlite.sql
var sqliteSchema string

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Ensure SQLStore satisfies the Store interface at compile time.
var _ Store = (*SQLStore)(nil)

// SQLStore is the relational store. Queries are written with '?' placeholders
// and rebound for the active driver.
type SQLStore struct {
	db     *sqlx.DB
	driver string
	now    func() time.Time
}

// Open connects to "postgres" (lib/pq) or "sqlite" (modernc) and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		// every connection to ":memory:" is a separate database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{db: db, driver: driver, now: func() time.Time { return time.Now().UTC() }}
	if err := s.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenSQLite is shorthand for Open(ctx, "sqlite", dsn).
func OpenSQLite(ctx context.Context, dsn string) (*SQLStore, error) {
	return Open(ctx, "sqlite", dsn)
}

// RunMigrations creates tables if they don't exist.
func (s *SQLStore) RunMigrations(ctx context.Context) error {
	schema := postgresSchema
	if s.driver == "sqlite" {
		schema = sqliteSchema
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases database resources.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
