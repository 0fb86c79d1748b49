// Package sqlite implements the gallery index using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sagarc03/gallery"
)

// uploadDateLayout is fixed width so that text ordering matches time ordering.
const uploadDateLayout = "2006-01-02T15:04:05.000000000Z"

const selectColumns = `file_name, id, title, description, tags, location, upload_date, size, mime_type, url`

// Index stores gallery records in a single SQLite table keyed by file name.
// Adding a record whose file name already exists replaces it.
type Index struct {
	db        *sql.DB
	tableName string
}

func NewIndex(db *sql.DB, tables gallery.Tables) (*Index, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new index: %w", err)
	}

	return &Index{db: db, tableName: tables.Images}, nil
}

// Ping verifies database connectivity
func (r *Index) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Index) Add(ctx context.Context, img gallery.Image) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (file_name) DO UPDATE
		SET id = excluded.id,
			title = excluded.title,
			description = excluded.description,
			tags = excluded.tags,
			location = excluded.location,
			upload_date = excluded.upload_date,
			size = excluded.size,
			mime_type = excluded.mime_type,
			url = excluded.url`, quoteIdentifier(r.tableName))

	_, err := r.db.ExecContext(ctx, query,
		img.FileName, img.ID, img.Title, img.Description, img.Tags, img.Location,
		img.UploadDate.UTC().Format(uploadDateLayout), img.Size, img.MimeType, img.URL,
	)
	if err != nil {
		return fmt.Errorf("add %s: %w", img.FileName, err)
	}

	return nil
}

func (r *Index) Remove(ctx context.Context, fileName string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE file_name = ?`, quoteIdentifier(r.tableName)) //nolint:gosec // table name is validated

	if _, err := r.db.ExecContext(ctx, query, fileName); err != nil {
		return fmt.Errorf("remove %s: %w", fileName, err)
	}

	return nil
}

func (r *Index) Reset(ctx context.Context) error {
	query := fmt.Sprintf(`DELETE FROM %s`, quoteIdentifier(r.tableName)) //nolint:gosec // table name is validated

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	return nil
}

func (r *Index) List(ctx context.Context) ([]gallery.Image, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT `+selectColumns+`
		FROM %s
		ORDER BY upload_date DESC, file_name DESC`, quoteIdentifier(r.tableName))

	return r.query(ctx, "list", query)
}

// Search matches title, description and tags with LIKE. SQLite's LOWER only
// folds ASCII letters.
func (r *Index) Search(ctx context.Context, q string) ([]gallery.Image, error) {
	pattern := "%" + gallery.EscapeLikePattern(strings.ToLower(q)) + "%"

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT `+selectColumns+`
		FROM %s
		WHERE LOWER(title) LIKE ? ESCAPE '\'
			OR LOWER(description) LIKE ? ESCAPE '\'
			OR LOWER(tags) LIKE ? ESCAPE '\'
		ORDER BY upload_date DESC, file_name DESC`, quoteIdentifier(r.tableName))

	return r.query(ctx, "search", query, pattern, pattern, pattern)
}

func (r *Index) query(ctx context.Context, opName, query string, args ...any) ([]gallery.Image, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opName, err)
	}
	defer func() { _ = rows.Close() }()

	images := []gallery.Image{}
	for rows.Next() {
		var img gallery.Image
		var uploadDate string

		if scanErr := rows.Scan(
			&img.FileName, &img.ID, &img.Title, &img.Description, &img.Tags, &img.Location,
			&uploadDate, &img.Size, &img.MimeType, &img.URL,
		); scanErr != nil {
			return nil, fmt.Errorf("%s: scan: %w", opName, scanErr)
		}

		var parseErr error
		img.UploadDate, parseErr = time.Parse(time.RFC3339Nano, uploadDate)
		if parseErr != nil {
			return nil, fmt.Errorf("%s: parse upload_date: %w", opName, parseErr)
		}

		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", opName, err)
	}

	return images, nil
}
