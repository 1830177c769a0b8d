// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of *pgxpool.Pool the store queries through.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Store wraps the connection pool used by the historian.
type Store struct {
	pool *pgxpool.Pool
	db   DBTX
}

// NewStore returns a store issuing its queries through db. Close is a no-op
// for stores not created by Connect.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// Connect parses connStr, opens a pool and pings it.
func Connect(ctx context.Context, connStr string) (*Store, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return &Store{pool: pool, db: pool}, nil
}

// Close releases every pooled connection.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS game_actions (
	game_id      UUID        NOT NULL,
	round        INT         NOT NULL,
	action_index INT         NOT NULL,
	action_type  TEXT        NOT NULL,
	payload      JSONB       NOT NULL DEFAULT '{}',
	ts           TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, action_index)
);

CREATE TABLE IF NOT EXISTS round_results (
	game_id    UUID        NOT NULL,
	round      INT         NOT NULL,
	score      INT         NOT NULL,
	sets_found INT         NOT NULL,
	mismatches INT         NOT NULL,
	ended_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, round)
);

CREATE INDEX IF NOT EXISTS round_results_score_idx ON round_results (score DESC);
`

// Migrate creates the historian tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
