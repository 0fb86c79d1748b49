// Package redis implements the gallery index as a single Redis hash.
//
// Each record is stored as JSON under its file name, so adding a record with
// an existing file name replaces it. Ordering and search happen client side.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v7"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database/memory"
)

type Index struct {
	client *redis.Client
	key    string
}

// Open parses a redis:// URL and verifies the server is reachable.
func Open(ctx context.Context, dsn string) (*redis.Client, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.WithContext(ctx).Ping().Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// NewIndex stores records in the hash named after tables.Images.
func NewIndex(client *redis.Client, tables gallery.Tables) (*Index, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new index: %w", err)
	}

	return &Index{client: client, key: tables.Images}, nil
}

func (r *Index) Ping(ctx context.Context) error {
	return r.client.WithContext(ctx).Ping().Err()
}

func (r *Index) Add(ctx context.Context, img gallery.Image) error {
	data, err := json.Marshal(img)
	if err != nil {
		return fmt.Errorf("add %s: marshal: %w", img.FileName, err)
	}

	if err := r.client.WithContext(ctx).HSet(r.key, img.FileName, data).Err(); err != nil {
		return fmt.Errorf("add %s: %w", img.FileName, err)
	}

	return nil
}

func (r *Index) Remove(ctx context.Context, fileName string) error {
	if err := r.client.WithContext(ctx).HDel(r.key, fileName).Err(); err != nil {
		return fmt.Errorf("remove %s: %w", fileName, err)
	}
	return nil
}

func (r *Index) Reset(ctx context.Context) error {
	if err := r.client.WithContext(ctx).Del(r.key).Err(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

func (r *Index) List(ctx context.Context) ([]gallery.Image, error) {
	return r.load(ctx, "list", func(gallery.Image) bool { return true })
}

func (r *Index) Search(ctx context.Context, query string) ([]gallery.Image, error) {
	q := strings.ToLower(query)
	return r.load(ctx, "search", func(img gallery.Image) bool {
		return strings.Contains(strings.ToLower(img.Title), q) ||
			strings.Contains(strings.ToLower(img.Description), q) ||
			strings.Contains(strings.ToLower(img.Tags), q)
	})
}

func (r *Index) load(ctx context.Context, opName string, keep func(gallery.Image) bool) ([]gallery.Image, error) {
	entries, err := r.client.WithContext(ctx).HGetAll(r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opName, err)
	}

	images := make([]gallery.Image, 0, len(entries))
	for field, raw := range entries {
		var img gallery.Image
		if err := json.Unmarshal([]byte(raw), &img); err != nil {
			return nil, fmt.Errorf("%s: decode %s: %w", opName, field, err)
		}
		if keep(img) {
			images = append(images, img)
		}
	}

	memory.SortNewestFirst(images)
	return images, nil
}
