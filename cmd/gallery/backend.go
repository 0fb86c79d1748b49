package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/config"
	"github.com/sagarc03/gallery/database"
	"github.com/sagarc03/gallery/filesystem"
	"github.com/sagarc03/gallery/objectstore"
)

// openStore builds the configured object store. The bucket is only
// meaningful for MinIO and is empty for the filesystem store.
func openStore(cfg config.StorageConfig) (store gallery.ObjectStore, bucket string, cleanup func(), err error) {
	switch cfg.Type {
	case "minio":
		s, err := objectstore.New(cfg.MinIO)
		if err != nil {
			return nil, "", nil, err
		}
		return s, s.Bucket(), func() {}, nil

	case "filesystem":
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, "", nil, fmt.Errorf("create storage directory: %w", err)
		}

		root, err := os.OpenRoot(cfg.Path)
		if err != nil {
			return nil, "", nil, fmt.Errorf("open storage root: %w", err)
		}
		return filesystem.NewFileStorage(root), "", func() { _ = root.Close() }, nil

	default:
		return nil, "", nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// newService wires the object store and index into a GalleryService.
// The returned cleanup closes both.
func newService(ctx context.Context, cfg *config.Config) (*gallery.GalleryService, gallery.ObjectStore, func(), error) {
	store, bucket, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open object store: %w", err)
	}
	slog.Info("object store configured", "type", cfg.Storage.Type, "bucket", bucket, "path", cfg.Storage.Path)

	index, closeIndex, err := database.Connect(ctx, cfg.Index)
	if err != nil {
		closeStore()
		return nil, nil, nil, fmt.Errorf("connect index: %w", err)
	}
	slog.Info("connected to index", "type", cfg.Index.Type, "table", cfg.Index.Table)

	cleanup := func() {
		closeIndex()
		closeStore()
	}

	service, err := gallery.NewGalleryService(store, index, gallery.ServiceConfig{
		URLFor: gallery.NewURLBuilder(cfg.Storage.PublicURL, bucket),
	})
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("create service: %w", err)
	}

	return service, store, cleanup, nil
}
