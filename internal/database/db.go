package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// postgres driver
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a row does not exist or belongs to another user
var ErrNotFound = errors.New("record not found")

// DB wraps the connection pool shared by every repository
type DB struct {
	*sql.DB
}

// New opens a Postgres pool and verifies it with a ping
func New(dsn string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}

// Wrap adapts an existing *sql.DB (tests pass a sqlmock connection)
func Wrap(sqlDB *sql.DB) *DB {
	return &DB{DB: sqlDB}
}
