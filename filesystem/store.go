// Package filesystem provides a local disk object store for the gallery.
// Image bytes are written atomically using temp files, and each object's
// content type and metadata headers are kept in a YAML sidecar under .meta/.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/gallery"
)

const metaDir = ".meta"

// sidecar is the on-disk form of an object's headers.
type sidecar struct {
	ContentType string            `yaml:"content_type"`
	ETag        string            `yaml:"etag"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`
}

// Store provides file system storage operations.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Init creates the sidecar directory.
func (s *Store) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.root.MkdirAll(metaDir, 0o755); err != nil {
		return fmt.Errorf("init filesystem store: %w", err)
	}
	return nil
}

func validKey(key string) error {
	if !gallery.IsValidFileName(key) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: invalid object key %q", gallery.ErrInvalidInput, key)
	}
	return nil
}

func sidecarPath(key string) string {
	return path.Join(metaDir, key+".yaml")
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes content under obj.Key using a temp file and rename,
// then records the content type, SHA256 etag and metadata in the sidecar.
// The operation respects context cancellation.
func (s *Store) Put(ctx context.Context, obj gallery.PutObject, content io.Reader) (gallery.ObjectInfo, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return gallery.ObjectInfo{}, ctxErr
	}

	if err := validKey(obj.Key); err != nil {
		return gallery.ObjectInfo{}, err
	}

	etag, _, err := s.writeAtomic(obj.Key, func(w io.Writer) error {
		_, copyErr := io.Copy(w, &ctxReader{ctx: ctx, r: content})
		return copyErr
	})
	if err != nil {
		return gallery.ObjectInfo{}, err
	}

	meta := sidecar{
		ContentType: obj.ContentType,
		ETag:        etag,
		Metadata:    obj.Metadata,
	}

	data, err := yaml.Marshal(meta)
	if err != nil {
		return gallery.ObjectInfo{}, fmt.Errorf("encode sidecar: %w", err)
	}

	if err := s.root.MkdirAll(metaDir, 0o755); err != nil {
		return gallery.ObjectInfo{}, fmt.Errorf("could not create sidecar directory: %w", err)
	}

	if _, _, err := s.writeAtomic(sidecarPath(obj.Key), func(w io.Writer) error {
		_, writeErr := w.Write(data)
		return writeErr
	}); err != nil {
		return gallery.ObjectInfo{}, fmt.Errorf("write sidecar: %w", err)
	}

	return s.Stat(ctx, obj.Key)
}

// writeAtomic writes to a temp file in the root and renames it to dest.
func (s *Store) writeAtomic(dest string, write func(io.Writer) error) (string, int64, error) {
	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return "", 0, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	counter := &countingWriter{w: io.MultiWriter(h, t)}

	if err := write(counter); err != nil {
		return "", 0, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return "", 0, fmt.Errorf("could not sync written file: %w", err)
	}

	if renameErr := s.root.Rename(tmpFile, dest); renameErr != nil {
		return "", 0, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return hex.EncodeToString(h.Sum(nil)), counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Stat returns the object's size, modification time and sidecar headers.
// Objects without a sidecar report a content type guessed from the extension.
func (s *Store) Stat(ctx context.Context, key string) (gallery.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return gallery.ObjectInfo{}, err
	}

	if err := validKey(key); err != nil {
		return gallery.ObjectInfo{}, err
	}

	fi, err := s.root.Stat(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return gallery.ObjectInfo{}, gallery.ErrNotFound
		}
		return gallery.ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}

	if fi.IsDir() {
		return gallery.ObjectInfo{}, gallery.ErrNotFound
	}

	meta, err := s.readSidecar(key)
	if err != nil {
		return gallery.ObjectInfo{}, err
	}

	contentType := meta.ContentType
	if contentType == "" {
		contentType = detectContentType(key)
	}

	metadata := make(map[string]string, len(meta.Metadata)+1)
	for k, v := range meta.Metadata {
		metadata[k] = v
	}
	metadata[gallery.HeaderContentType] = contentType

	return gallery.ObjectInfo{
		Key:          key,
		Size:         fi.Size(),
		LastModified: fi.ModTime().UTC().Truncate(time.Millisecond),
		ContentType:  contentType,
		Metadata:     metadata,
	}, nil
}

func (s *Store) readSidecar(key string) (sidecar, error) {
	var meta sidecar

	data, err := fs.ReadFile(s.root.FS(), sidecarPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return meta, nil
		}
		return meta, fmt.Errorf("read sidecar %s: %w", key, err)
	}

	if err := yaml.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("decode sidecar %s: %w", key, err)
	}

	return meta, nil
}

// Get opens a file for reading. Returns gallery.ErrNotFound if the file does not exist.
func (s *Store) Get(ctx context.Context, key string) (gallery.ObjectInfo, io.ReadCloser, error) {
	info, err := s.Stat(ctx, key)
	if err != nil {
		return gallery.ObjectInfo{}, nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return gallery.ObjectInfo{}, nil, gallery.ErrNotFound
		}
		return gallery.ObjectInfo{}, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return info, f, nil
}

// Delete removes a file and its sidecar. Returns gallery.ErrNotFound if the
// file does not exist.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := validKey(key); err != nil {
		return err
	}

	err := s.root.Remove(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return gallery.ErrNotFound
		}
		return fmt.Errorf("could not delete file: %w", err)
	}

	if err := s.root.Remove(sidecarPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove sidecar", "key", key, "err", err)
	}

	return nil
}

// List returns every object key in the root directory. Keys are flat, so
// subdirectories and dot-prefixed entries (sidecars, temp files) are skipped.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	keys := make([]string, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		keys = append(keys, entry.Name())
	}

	return keys, nil
}

func detectContentType(key string) string {
	contentType := mime.TypeByExtension(filepath.Ext(key))

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
