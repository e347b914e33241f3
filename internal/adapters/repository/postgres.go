package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/guildstats/internal/domain/model"
)

// Statements used against the guild_datasets table.
const (
	createDatasetsTable = `
		CREATE TABLE IF NOT EXISTS guild_datasets (
			name       text PRIMARY KEY,
			payload    jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT NOW()
		)`
	selectDataset = `SELECT payload FROM guild_datasets WHERE name = $1`
	upsertDataset = `
		INSERT INTO guild_datasets (name, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = NOW()`
)

// Querier is the subset of *pgxpool.Pool used by PostgresSource.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresSource reads each dataset from one JSONB array row of
// guild_datasets, keyed by dataset name.
type PostgresSource struct {
	db   Querier
	pool *pgxpool.Pool
	opts options
}

// NewPostgresSource connects a pool to databaseURL and verifies it.
func NewPostgresSource(ctx context.Context, databaseURL string, opts ...Option) (*PostgresSource, error) {
	o := newOptions(opts)

	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse database URL: %w", ErrSourceNotConfigured, err)
	}
	poolCfg.MaxConns = 4
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping database: %w", ErrUpstream, err)
	}
	return &PostgresSource{db: pool, pool: pool, opts: o}, nil
}

// NewPostgresSourceWithQuerier wraps an existing connection or pool.
func NewPostgresSourceWithQuerier(db Querier, opts ...Option) *PostgresSource {
	return &PostgresSource{db: db, opts: newOptions(opts)}
}

// Name implements Source.
func (s *PostgresSource) Name() string { return KindPostgres }

// Close releases the pool opened by NewPostgresSource.
func (s *PostgresSource) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Members implements Source.
func (s *PostgresSource) Members(ctx context.Context) ([]model.Member, error) {
	data, err := s.payload(ctx, DatasetMembers)
	if err != nil {
		return nil, err
	}
	return decodeDataset[model.Member](ctx, s.opts.logger, DatasetMembers, data)
}

// Achievements implements Source.
func (s *PostgresSource) Achievements(ctx context.Context) ([]model.Achievement, error) {
	data, err := s.payload(ctx, DatasetAchievements)
	if err != nil {
		return nil, err
	}
	return decodeDataset[model.Achievement](ctx, s.opts.logger, DatasetAchievements, data)
}

// EnsureSchema creates the guild_datasets table when missing.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createDatasetsTable); err != nil {
		return fmt.Errorf("create guild_datasets: %w", err)
	}
	return nil
}

// Put stores payload as the named dataset, replacing any previous value.
func (s *PostgresSource) Put(ctx context.Context, dataset string, payload []byte) error {
	if _, err := s.db.Exec(ctx, upsertDataset, dataset, payload); err != nil {
		return fmt.Errorf("store %s: %w", dataset, err)
	}
	return nil
}

func (s *PostgresSource) payload(ctx context.Context, dataset string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	var data []byte
	err := s.db.QueryRow(ctx, selectDataset, dataset).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, dataset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", ErrUpstream, dataset, err)
	}
	return data, nil
}
