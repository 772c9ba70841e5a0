package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avvvet/idcard-services/internal/cardsvc/apperr"
)

var DB *pgxpool.Pool

const schema = `
CREATE TABLE IF NOT EXISTS cards (
	card_id      TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS cards_display_name_lower_key ON cards (lower(display_name));
CREATE TABLE IF NOT EXISTS logs (
	id                BIGSERIAL PRIMARY KEY,
	event_name        TEXT NOT NULL,
	display_name      TEXT,
	card_id           TEXT,
	operator_identity TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Connect initializes the connection pool
func Connect(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, apperr.Configuration("db.Connect", "database url not set")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, apperr.Configuration("db.Connect", err.Error())
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnIdleTime = 30 * time.Second

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Try pinging to make sure it's valid
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	DB = pool

	return pool, nil
}

// EnsureSchema creates the cards and logs tables when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return apperr.Store("db.EnsureSchema", err)
	}
	return nil
}

// ClosePool is for graceful shutdown
func ClosePool() {
	if DB != nil {
		DB.Close()
	}
}
