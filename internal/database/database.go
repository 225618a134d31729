// Package database provides the pgx-backed stores for the card catalog
// and player records.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// DB is the shared connection pool, initialized once by Connect.
var DB *pgxpool.Pool

// Connect establishes the pool and verifies connectivity.
func Connect(ctx context.Context, url string) error {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	DB = pool
	logrus.Info("database pool established")
	return nil
}

// CreateTables bootstraps the schema. Safe to call on every start.
func CreateTables(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS cards (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	image TEXT NOT NULL DEFAULT '',
	strength INT NOT NULL,
	speed INT NOT NULL,
	intelligence INT NOT NULL,
	rarity INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS players (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	hand UUID[] NOT NULL DEFAULT '{}',
	wins INT NOT NULL DEFAULT 0,
	losses INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS matches (
	code TEXT PRIMARY KEY,
	mode TEXT NOT NULL,
	phase TEXT NOT NULL,
	host_id UUID,
	winner_id UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);`
	if _, err := DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Close releases the pool.
func Close() {
	if DB != nil {
		DB.Close()
	}
}
