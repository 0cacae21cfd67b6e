package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/careboard/careboard/internal/config"
	_ "modernc.org/sqlite"
)

// NewInMemory opens a private in-memory database with foreign keys on.
// No migrations are applied.
func NewInMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return &DB{
		DB:     sqlDB,
		path:   ":memory:",
		config: config.DatabaseConfig{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// NewMigratedInMemory returns an in-memory database with the full schema.
func NewMigratedInMemory(ctx context.Context) (*DB, error) {
	db, err := NewInMemory()
	if err != nil {
		return nil, err
	}

	m, err := NewMigrator(db)
	if err == nil {
		_, err = m.MigrateUp(ctx)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating in-memory database: %w", err)
	}
	return db, nil
}
