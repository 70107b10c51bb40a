package client

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/windfall/spellcheck_service/internal/errors"
)

// PostgresClient wraps the pgxpool.Pool.
type PostgresClient struct {
	Pool *pgxpool.Pool
}

// NewPostgresClient creates a new PostgreSQL client.
// A non-empty databaseName overrides the database named in the connection
// string; maxConns <= 0 keeps the pgxpool default.
func NewPostgresClient(ctx context.Context, connectionString, databaseName string, maxConns int32) (*PostgresClient, error) {
	if connectionString == "" {
		return nil, errors.Configuration("database connection string is empty")
	}

	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, "failed to parse postgres config", err)
	}
	if databaseName != "" {
		config.ConnConfig.Database = databaseName
	}
	if maxConns > 0 {
		config.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresClient{Pool: pool}, nil
}

// Ping checks database connectivity.
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}

// Close closes the database connection pool.
func (c *PostgresClient) Close() {
	c.Pool.Close()
}
