package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/gallery"
)

var imageColumns = gallery.ImageColumns("text", "timestamp with time zone", "bigint")

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)`, tableName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check table exists: %w", err)
	}
	return exists, nil
}

func tableColumns(ctx context.Context, pool *pgxpool.Pool, tableName string) ([]gallery.Column, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`, tableName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []gallery.Column
	for rows.Next() {
		var c gallery.Column
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}

	return columns, rows.Err()
}

// ValidateSchema checks that the images table exists with the expected columns.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables gallery.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	exists, err := tableExists(ctx, pool, tables.Images)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Images, err)
	}
	if !exists {
		return fmt.Errorf("validate schema: table %s does not exist", tables.Images)
	}

	columns, err := tableColumns(ctx, pool, tables.Images)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Images, err)
	}

	if err := gallery.CompareColumns(tables.Images, imageColumns, columns); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	return nil
}
