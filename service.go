package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ObjectStore defines the interface for the durable blob store holding image
// bytes and their metadata headers. Implementations are the source of truth
// for the gallery; the Index is rebuilt from them.
//
// All methods accept a context for cancellation and timeout control.
type ObjectStore interface {
	// Init prepares the store for use, e.g. creating the bucket and applying
	// its access policy. It is safe to call on an already initialized store.
	Init(ctx context.Context) error

	// Put writes content under obj.Key together with its content type and
	// metadata headers, overwriting any existing object.
	//
	// Returns:
	//   - ObjectInfo: The stored object's key, size and headers
	//   - error: Any storage or I/O error
	Put(ctx context.Context, obj PutObject, content io.Reader) (ObjectInfo, error)

	// Stat returns size, modification time and headers for a key.
	//
	// Returns:
	//   - error: ErrNotFound if the key doesn't exist, or other storage errors
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// Get opens an object for reading. The caller closes the reader.
	//
	// Returns:
	//   - error: ErrNotFound if the key doesn't exist, or other storage errors
	Get(ctx context.Context, key string) (ObjectInfo, io.ReadCloser, error)

	// Delete removes an object.
	//
	// Returns:
	//   - error: ErrNotFound if the key doesn't exist, or other storage errors
	Delete(ctx context.Context, key string) error

	// List returns every key in the store, recursively. Returns an empty
	// slice (not nil) when the store is empty.
	List(ctx context.Context) ([]string, error)
}

// Index defines the interface for the metadata cache used for listing and
// search. It is never the source of truth: Rebuild resets and repopulates it
// from the ObjectStore.
type Index interface {
	// Add appends a record. Whether duplicates are kept is backend specific.
	Add(ctx context.Context, img Image) error

	// Remove deletes the first record with the given file name.
	// It is a no-op, returning nil, when no record matches.
	Remove(ctx context.Context, fileName string) error

	// Reset removes every record.
	Reset(ctx context.Context) error

	// List returns all records sorted descending by upload date, ties broken
	// by file name descending. Returns an empty slice (not nil) when empty.
	List(ctx context.Context) ([]Image, error)

	// Search returns records whose title, description or tags contain query,
	// compared case-insensitively, in List order.
	Search(ctx context.Context, query string) ([]Image, error)
}

// GalleryService combines an ObjectStore with an Index. It is constructed once
// per process and shared by all request handlers.
type GalleryService struct {
	store  ObjectStore
	index  Index
	urlFor URLBuilder
	now    func() time.Time
	newID  func() string
	ready  atomic.Bool
}

// ServiceConfig holds configuration options for GalleryService.
type ServiceConfig struct {
	// URLFor builds record URLs. Defaults to NewURLBuilder("", "").
	URLFor URLBuilder
	// Now is the clock used for upload keys and dates. Defaults to time.Now.
	Now func() time.Time
}

func NewGalleryService(store ObjectStore, index Index, cfg ServiceConfig) (*GalleryService, error) {
	if store == nil {
		return nil, errors.New("new gallery service: object store is required")
	}
	if index == nil {
		return nil, errors.New("new gallery service: index is required")
	}

	urlFor := cfg.URLFor
	if urlFor == nil {
		urlFor = NewURLBuilder("", "")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &GalleryService{
		store:  store,
		index:  index,
		urlFor: urlFor,
		now:    now,
		newID:  uuid.NewString,
	}
	s.ready.Store(true)

	return s, nil
}

// Upload stores content in the object store under a timestamp-prefixed key
// and then appends the corresponding record to the index.
//
// Error types returned:
//   - ErrInvalidInput: Empty original file name
//   - Wrapped storage errors: Issues writing to the store
//   - Wrapped index errors: The object was stored but the record was not
//     indexed; it will reappear after the next rebuild
func (s *GalleryService) Upload(ctx context.Context, in UploadInput, content io.Reader) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, fmt.Errorf("upload: %w", err)
	}

	if SafeFileName(in.OriginalName) == "" {
		return Image{}, fmt.Errorf("upload: %w: file name cannot be empty", ErrInvalidInput)
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = defaultMimeType
	}

	uploadedAt := s.now()
	key := StorageKey(in.OriginalName, uploadedAt)

	size := in.Size
	if size <= 0 {
		size = -1
	}

	info, err := s.store.Put(ctx, PutObject{
		Key:         key,
		ContentType: contentType,
		Size:        size,
		Metadata:    UploadHeaders(in, uploadedAt),
	}, content)
	if err != nil {
		return Image{}, fmt.Errorf("upload %s: %w", key, err)
	}

	title := in.Title
	if title == "" {
		title = key
	}

	img := Image{
		ID:          s.newID(),
		FileName:    key,
		Title:       title,
		Description: in.Description,
		Tags:        in.Tags,
		Location:    in.Location,
		UploadDate:  uploadedAt.UTC().Truncate(time.Millisecond),
		Size:        info.Size,
		MimeType:    contentType,
		URL:         s.urlFor(key),
	}

	if err := s.index.Add(ctx, img); err != nil {
		slog.Error("object stored but not indexed", "key", key, "err", err)
		return Image{}, fmt.Errorf("upload %s: index: %w", key, err)
	}

	return img, nil
}

// List returns every indexed record, newest first.
func (s *GalleryService) List(ctx context.Context) ([]Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	images, err := s.index.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	return images, nil
}

// Search returns records matching query. A blank query lists everything.
func (s *GalleryService) Search(ctx context.Context, query string) ([]Image, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search images: %w", err)
	}

	images, err := s.index.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search images: %w", err)
	}

	return images, nil
}

// Delete removes the object from the store and then its record from the
// index. The two steps are independent and not transactional.
//
// If the store reports ErrNotFound, a stale index record for the same name is
// still removed and ErrNotFound is returned. Any other store error leaves the
// index untouched.
func (s *GalleryService) Delete(ctx context.Context, fileName string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}

	if !IsValidKey(fileName) {
		return fmt.Errorf("delete image: %w: invalid file name", ErrInvalidInput)
	}

	storeErr := s.store.Delete(ctx, fileName)
	if storeErr != nil && !errors.Is(storeErr, ErrNotFound) {
		return fmt.Errorf("delete image %s: %w", fileName, storeErr)
	}

	if err := s.index.Remove(ctx, fileName); err != nil {
		slog.Warn("failed to remove index record", "file", fileName, "err", err)
	}

	if storeErr != nil {
		return fmt.Errorf("delete image %s: %w", fileName, storeErr)
	}

	return nil
}

// Open returns a reader for the stored bytes of fileName.
// The caller is responsible for closing the returned reader.
func (s *GalleryService) Open(ctx context.Context, fileName string) (ObjectInfo, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, nil, fmt.Errorf("open image: %w", err)
	}

	if !IsValidKey(fileName) {
		return ObjectInfo{}, nil, fmt.Errorf("open image: %w: invalid file name", ErrInvalidInput)
	}

	info, r, err := s.store.Get(ctx, fileName)
	if err != nil {
		return ObjectInfo{}, nil, fmt.Errorf("open image %s: %w", fileName, err)
	}

	return info, r, nil
}

// Rebuild resets the index and repopulates it from the object store.
//
// The operation is not atomic: readers may observe a partial or empty index
// while it runs. Objects that cannot be stat'ed or indexed are logged and
// skipped; only a failure to reset the index or list the store aborts the
// rebuild.
func (s *GalleryService) Rebuild(ctx context.Context) (RebuildResult, error) {
	var result RebuildResult

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("rebuild: %w", err)
	}

	if err := s.index.Reset(ctx); err != nil {
		return result, fmt.Errorf("rebuild: reset index: %w", err)
	}

	keys, err := s.store.List(ctx)
	if err != nil {
		return result, fmt.Errorf("rebuild: list objects: %w", err)
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("rebuild: %w", err)
		}

		info, statErr := s.store.Stat(ctx, key)
		if statErr != nil {
			slog.Error("failed to recover object", "key", key, "err", statErr)
			result.Skipped++
			continue
		}

		img := RecordFromObject(info, s.urlFor)
		img.ID = s.newID()

		if addErr := s.index.Add(ctx, img); addErr != nil {
			slog.Error("failed to index recovered object", "key", key, "err", addErr)
			result.Skipped++
			continue
		}

		result.Indexed++
	}

	return result, nil
}

// StartRecovery rebuilds the index in the background. The returned channel
// is closed once the scan has finished, successfully or not; Ready reports
// true from then on.
func (s *GalleryService) StartRecovery(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	s.ready.Store(false)

	go func() {
		defer close(done)
		defer s.ready.Store(true)

		slog.Info("recovering metadata from object store")

		result, err := s.Rebuild(ctx)
		if err != nil {
			slog.Error("recovery failed", "err", err, "indexed", result.Indexed, "skipped", result.Skipped)
			return
		}

		slog.Info("recovery complete", "indexed", result.Indexed, "skipped", result.Skipped)
	}()

	return done
}

// Ready reports whether the startup recovery scan has completed.
// A service that never started recovery is ready.
func (s *GalleryService) Ready() bool {
	return s.ready.Load()
}
