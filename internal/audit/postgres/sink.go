// Package postgres stores audit records in a Postgres table.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/index-submitter/internal/audit"
)

const defaultTable = "submissions"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Sink inserts one row per record.
type Sink struct {
	pool  execCloser
	table string
}

// New connects a pool and returns a Sink.
func New(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Sink{pool: pool, table: table}, nil
}

// NewWithPool builds a Sink on an existing pool.
func NewWithPool(pool execCloser, table string) (*Sink, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &Sink{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		return defaultTable, nil
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the pool.
func (s *Sink) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Record inserts rec.
func (s *Sink) Record(ctx context.Context, rec audit.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	host,
	url_count,
	success,
	indexnow_ok,
	message,
	submitted_at,
	duration_ms
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8
)`, s.table)

	args := []any{
		rec.ID,
		rec.Host,
		rec.URLCount,
		rec.Success,
		rec.IndexNowOK,
		rec.Message,
		rec.SubmittedAt,
		rec.Duration.Milliseconds(),
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}
