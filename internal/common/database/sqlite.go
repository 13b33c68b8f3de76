// internal/common/database/sqlite.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"morvo-assistant/internal/common/config"

	_ "modernc.org/sqlite"
)

// SQLiteClient is the single-node alternative to PostgresClient.
type SQLiteClient struct {
	DB *sql.DB
}

// NewSQLite opens path with WAL journaling and foreign keys on. ":memory:"
// is accepted for tests.
func NewSQLite(cfg config.SQLiteConfig) (*SQLiteClient, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	dsn := cfg.Path + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// modernc serializes writers; one connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	return &SQLiteClient{DB: db}, nil
}

func (c *SQLiteClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *SQLiteClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
