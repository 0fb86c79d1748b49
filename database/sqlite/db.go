package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sagarc03/gallery"
)

var imageColumns = gallery.ImageColumns("text", "text", "integer")

func tableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, tableName).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check table exists: %w", err)
	}
	return true, nil
}

func tableColumns(ctx context.Context, db *sql.DB, tableName string) ([]gallery.Column, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, type, "notnull" FROM pragma_table_info(?)`, tableName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []gallery.Column
	for rows.Next() {
		var c gallery.Column
		var notNull int
		if err := rows.Scan(&c.Name, &c.Type, &notNull); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.Nullable = notNull == 0
		columns = append(columns, c)
	}

	return columns, rows.Err()
}

// ValidateSchema checks that the images table exists with the expected columns.
func ValidateSchema(ctx context.Context, db *sql.DB, tables gallery.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	exists, err := tableExists(ctx, db, tables.Images)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Images, err)
	}
	if !exists {
		return fmt.Errorf("validate schema: table %s does not exist", tables.Images)
	}

	columns, err := tableColumns(ctx, db, tables.Images)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Images, err)
	}

	if err := gallery.CompareColumns(tables.Images, imageColumns, columns); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	return nil
}
