package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/gallery"
)

// Migrate creates the index tables if they don't exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables gallery.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := createImagesTable(ctx, pool, tables.Images); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Images, err)
	}

	return nil
}

// DropTables removes the index tables.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables gallery.Tables) error {
	quotedTable := pgx.Identifier{tables.Images}.Sanitize()

	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.Images, err)
	}

	return nil
}

func createImagesTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexNewest := pgx.Identifier{fmt.Sprintf("idx_%s_newest", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			file_name TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			tags TEXT NOT NULL,
			location TEXT NOT NULL,
			upload_date TIMESTAMPTZ NOT NULL,
			size BIGINT NOT NULL,
			mime_type TEXT NOT NULL,
			url TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (upload_date DESC, file_name DESC);
	`,
		quotedTable,
		indexNewest, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create images table: %w", err)
	}
	return nil
}
