package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database/memory"
	"github.com/sagarc03/gallery/database/postgres"
	"github.com/sagarc03/gallery/database/redis"
	"github.com/sagarc03/gallery/database/sqlite"
)

// Config holds the configuration for connecting to an index backend.
type Config struct {
	// Type specifies the backend: "memory", "sqlite", "postgres" or "redis"
	Type string `mapstructure:"type" validate:"required,oneof=memory sqlite postgres redis"`
	// DSN is the data source name (connection string). Unused for memory.
	DSN string `mapstructure:"dsn" validate:"required_unless=Type memory"`
	// Table is the table name, or the hash key for redis
	Table string `mapstructure:"table" validate:"required,max=63"`
}

// Connect establishes a connection to the configured index backend, runs
// migrations where the backend has a schema, and returns a gallery.Index.
// The returned cleanup function should be called to close the connection.
func Connect(ctx context.Context, cfg Config) (gallery.Index, func(), error) {
	tables := gallery.Tables{Images: cfg.Table}

	switch cfg.Type {
	case "memory":
		return memory.NewIndex(), func() {}, nil
	case "sqlite":
		return connectSQLite(ctx, cfg.DSN, tables)
	case "postgres":
		return connectPostgres(ctx, cfg.DSN, tables)
	case "redis":
		return connectRedis(ctx, cfg.DSN, tables)
	default:
		return nil, nil, fmt.Errorf("unsupported index type: %s", cfg.Type)
	}
}

func connectSQLite(ctx context.Context, dsn string, tables gallery.Tables) (gallery.Index, func(), error) {
	db, err := sqlite.Open(ctx, dsn, tables)
	if err != nil {
		return nil, nil, err
	}

	index, err := sqlite.NewIndex(db, tables)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create sqlite index: %w", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return index, cleanup, nil
}

func connectPostgres(ctx context.Context, dsn string, tables gallery.Tables) (gallery.Index, func(), error) {
	pool, err := postgres.Open(ctx, dsn, tables)
	if err != nil {
		return nil, nil, err
	}

	index, err := postgres.NewIndex(pool, tables)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("create postgres index: %w", err)
	}

	return index, pool.Close, nil
}

func connectRedis(ctx context.Context, dsn string, tables gallery.Tables) (gallery.Index, func(), error) {
	client, err := redis.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}

	index, err := redis.NewIndex(client, tables)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("create redis index: %w", err)
	}

	cleanup := func() {
		_ = client.Close()
	}

	return index, cleanup, nil
}
