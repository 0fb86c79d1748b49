// Package postgres implements the gallery index using PostgreSQL
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/gallery"
)

// Tables is an alias for gallery.Tables for package compatibility.
type Tables = gallery.Tables

const selectColumns = `file_name, id, title, description, tags, location, upload_date, size, mime_type, url`

// Index stores gallery records in a single table keyed by file name.
// Adding a record whose file name already exists replaces it.
type Index struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewIndex(pool *pgxpool.Pool, tables Tables) (*Index, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new index: %w", err)
	}

	return &Index{pool: pool, tableName: pgx.Identifier{tables.Images}.Sanitize()}, nil
}

// Ping verifies database connectivity
func (r *Index) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Index) Add(ctx context.Context, img gallery.Image) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (`+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (file_name) DO UPDATE
		SET id = EXCLUDED.id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			tags = EXCLUDED.tags,
			location = EXCLUDED.location,
			upload_date = EXCLUDED.upload_date,
			size = EXCLUDED.size,
			mime_type = EXCLUDED.mime_type,
			url = EXCLUDED.url
	`, r.tableName)

	_, err := r.pool.Exec(ctx, query,
		img.FileName, img.ID, img.Title, img.Description, img.Tags, img.Location,
		img.UploadDate.UTC(), img.Size, img.MimeType, img.URL,
	)
	if err != nil {
		return fmt.Errorf("add %s: %w", img.FileName, err)
	}

	return nil
}

func (r *Index) Remove(ctx context.Context, fileName string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE file_name = $1`, r.tableName)

	if _, err := r.pool.Exec(ctx, query, fileName); err != nil {
		return fmt.Errorf("remove %s: %w", fileName, err)
	}

	return nil
}

func (r *Index) Reset(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, r.tableName)); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	return nil
}

func (r *Index) List(ctx context.Context) ([]gallery.Image, error) {
	query := fmt.Sprintf(`
		SELECT `+selectColumns+`
		FROM %s
		ORDER BY upload_date DESC, file_name DESC
	`, r.tableName)

	return r.query(ctx, "list", query)
}

func (r *Index) Search(ctx context.Context, q string) ([]gallery.Image, error) {
	pattern := "%" + gallery.EscapeLikePattern(strings.ToLower(q)) + "%"

	query := fmt.Sprintf(`
		SELECT `+selectColumns+`
		FROM %s
		WHERE LOWER(title) LIKE $1 ESCAPE '\'
			OR LOWER(description) LIKE $1 ESCAPE '\'
			OR LOWER(tags) LIKE $1 ESCAPE '\'
		ORDER BY upload_date DESC, file_name DESC
	`, r.tableName)

	return r.query(ctx, "search", query, pattern)
}

func (r *Index) query(ctx context.Context, opName, query string, args ...any) ([]gallery.Image, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opName, err)
	}
	defer rows.Close()

	images := []gallery.Image{}
	for rows.Next() {
		var img gallery.Image
		if err := rows.Scan(
			&img.FileName, &img.ID, &img.Title, &img.Description, &img.Tags, &img.Location,
			&img.UploadDate, &img.Size, &img.MimeType, &img.URL,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", opName, err)
		}
		img.UploadDate = img.UploadDate.UTC()
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", opName, err)
	}

	return images, nil
}
