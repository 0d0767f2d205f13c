// Package database provides PostgreSQL connection management using pgx.
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/woramet12/fitnu/internal/config"
)

// NewPool creates and validates a pgxpool connection pool.
// It retries up to 5 times to accommodate containers starting up.
func NewPool(ctx context.Context, cfg config.Database) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	// Sensible pool defaults for a small service.
	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				break
			}
			pool.Close()
		}
		log.Printf("db connect attempt %d/5 failed: %v - retrying in 2s", attempt, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return pool, nil
}

// Migrate creates the schema if it does not exist yet. Events keep their
// creator and participant set as jsonb documents; tokens are a text array
// so search can use array overlap.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id             TEXT PRIMARY KEY,
			student_id     TEXT NOT NULL,
			name           TEXT NOT NULL,
			year           TEXT NOT NULL DEFAULT '',
			interest       TEXT NOT NULL DEFAULT '',
			bio            TEXT NOT NULL DEFAULT '',
			avatar         TEXT NOT NULL DEFAULT '',
			email          TEXT NOT NULL UNIQUE,
			password_hash  TEXT NOT NULL,
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			skip_verify    BOOLEAN NOT NULL DEFAULT FALSE,
			verify_token   TEXT NOT NULL DEFAULT '',
			reset_token    TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL,
			date         TEXT NOT NULL,
			time         TEXT NOT NULL,
			location     TEXT NOT NULL,
			creator      JSONB NOT NULL,
			participants JSONB NOT NULL DEFAULT '[]',
			tokens       TEXT[] NOT NULL DEFAULT '{}',
			created_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS events_tokens_idx ON events USING GIN (tokens)`,
		`CREATE INDEX IF NOT EXISTS events_created_at_idx ON events (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id         TEXT PRIMARY KEY,
			event_id   TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			type       TEXT NOT NULL,
			text       TEXT NOT NULL DEFAULT '',
			image_url  TEXT NOT NULL DEFAULT '',
			sender     JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS messages_event_created_idx ON messages (event_id, created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
