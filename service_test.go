package gallery_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/gallery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SpyObjectStore struct {
	mock.Mock
}

func (s *SpyObjectStore) Init(ctx context.Context) error {
	args := s.Called(ctx)
	return args.Error(0)
}

func (s *SpyObjectStore) Put(ctx context.Context, obj gallery.PutObject, content io.Reader) (gallery.ObjectInfo, error) {
	args := s.Called(ctx, obj, content)
	return args.Get(0).(gallery.ObjectInfo), args.Error(1)
}

func (s *SpyObjectStore) Stat(ctx context.Context, key string) (gallery.ObjectInfo, error) {
	args := s.Called(ctx, key)
	return args.Get(0).(gallery.ObjectInfo), args.Error(1)
}

func (s *SpyObjectStore) Get(ctx context.Context, key string) (gallery.ObjectInfo, io.ReadCloser, error) {
	args := s.Called(ctx, key)
	if args.Get(1) == nil {
		return args.Get(0).(gallery.ObjectInfo), nil, args.Error(2)
	}
	return args.Get(0).(gallery.ObjectInfo), args.Get(1).(io.ReadCloser), args.Error(2)
}

func (s *SpyObjectStore) Delete(ctx context.Context, key string) error {
	args := s.Called(ctx, key)
	return args.Error(0)
}

func (s *SpyObjectStore) List(ctx context.Context) ([]string, error) {
	args := s.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type SpyIndex struct {
	mock.Mock
}

func (s *SpyIndex) Add(ctx context.Context, img gallery.Image) error {
	args := s.Called(ctx, img)
	return args.Error(0)
}

func (s *SpyIndex) Remove(ctx context.Context, fileName string) error {
	args := s.Called(ctx, fileName)
	return args.Error(0)
}

func (s *SpyIndex) Reset(ctx context.Context) error {
	args := s.Called(ctx)
	return args.Error(0)
}

func (s *SpyIndex) List(ctx context.Context) ([]gallery.Image, error) {
	args := s.Called(ctx)
	return args.Get(0).([]gallery.Image), args.Error(1)
}

func (s *SpyIndex) Search(ctx context.Context, query string) ([]gallery.Image, error) {
	args := s.Called(ctx, query)
	return args.Get(0).([]gallery.Image), args.Error(1)
}

var fixedNow = time.Date(2024, 5, 1, 12, 30, 0, 123_000_000, time.UTC)

func NewGalleryService(t *testing.T) (*gallery.GalleryService, *SpyObjectStore, *SpyIndex) {
	t.Helper()
	store := new(SpyObjectStore)
	index := new(SpyIndex)
	s, err := gallery.NewGalleryService(store, index, gallery.ServiceConfig{
		Now: func() time.Time { return fixedNow },
	})
	require.NoError(t, err, "new gallery service")
	return s, store, index
}

func TestNewGalleryService(t *testing.T) {
	t.Run("nil store", func(t *testing.T) {
		_, err := gallery.NewGalleryService(nil, new(SpyIndex), gallery.ServiceConfig{})
		assert.Error(t, err)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := gallery.NewGalleryService(new(SpyObjectStore), nil, gallery.ServiceConfig{})
		assert.Error(t, err)
	})

	t.Run("ready without recovery", func(t *testing.T) {
		s, _, _ := NewGalleryService(t)
		assert.True(t, s.Ready())
	})
}

func TestGalleryService_Upload(t *testing.T) {
	t.Run("stores object then indexes record", func(t *testing.T) {
		service, store, index := NewGalleryService(t)
		ctx := context.Background()
		content := strings.NewReader("jpeg bytes")
		wantKey := "1714566600123_my_holiday_photo.jpg"

		store.On("Put", ctx, mock.MatchedBy(func(obj gallery.PutObject) bool {
			return obj.Key == wantKey &&
				obj.ContentType == "image/jpeg" &&
				obj.Size == 10 &&
				obj.Metadata[gallery.HeaderTitle] == "A" &&
				obj.Metadata[gallery.HeaderTags] == "beach,sun" &&
				obj.Metadata[gallery.HeaderUploadDate] == "2024-05-01T12:30:00.123Z"
		}), content).Return(gallery.ObjectInfo{Key: wantKey, Size: 10}, nil)

		index.On("Add", ctx, mock.MatchedBy(func(img gallery.Image) bool {
			return img.FileName == wantKey && img.Title == "A" && img.Size == 10 && img.ID != ""
		})).Return(nil)

		img, err := service.Upload(ctx, gallery.UploadInput{
			OriginalName: "my holiday  photo.jpg",
			ContentType:  "image/jpeg",
			Size:         10,
			Title:        "A",
			Tags:         "beach,sun",
		}, content)
		require.NoError(t, err)

		assert.Equal(t, wantKey, img.FileName)
		assert.Equal(t, "A", img.Title)
		assert.Equal(t, int64(10), img.Size)
		assert.Equal(t, "image/jpeg", img.MimeType)
		assert.Equal(t, fixedNow, img.UploadDate)
		assert.Equal(t, "/files/"+wantKey, img.URL)

		store.AssertExpectations(t)
		index.AssertExpectations(t)
	})

	t.Run("title defaults to file name", func(t *testing.T) {
		service, store, index := NewGalleryService(t)
		ctx := context.Background()
		wantKey := "1714566600123_a.png"

		store.On("Put", ctx, mock.Anything, mock.Anything).Return(gallery.ObjectInfo{Key: wantKey, Size: 3}, nil)
		index.On("Add", ctx, mock.Anything).Return(nil)

		img, err := service.Upload(ctx, gallery.UploadInput{OriginalName: "a.png"}, strings.NewReader("abc"))
		require.NoError(t, err)
		assert.Equal(t, wantKey, img.Title)
		assert.Equal(t, "application/octet-stream", img.MimeType)
	})

	t.Run("empty file name", func(t *testing.T) {
		service, store, index := NewGalleryService(t)

		_, err := service.Upload(context.Background(), gallery.UploadInput{OriginalName: "   "}, strings.NewReader("x"))
		assert.ErrorIs(t, err, gallery.ErrInvalidInput)

		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
		index.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("store error skips index", func(t *testing.T) {
		service, store, index := NewGalleryService(t)
		ctx := context.Background()
		storeErr := errors.New("bucket unavailable")

		store.On("Put", ctx, mock.Anything, mock.Anything).Return(gallery.ObjectInfo{}, storeErr)

		_, err := service.Upload(ctx, gallery.UploadInput{OriginalName: "a.png"}, strings.NewReader("abc"))
		assert.ErrorIs(t, err, storeErr)
		assert.Contains(t, err.Error(), "bucket unavailable")

		index.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("index error after store write", func(t *testing.T) {
		service, store, index := NewGalleryService(t)
		ctx := context.Background()
		indexErr := errors.New("index down")

		store.On("Put", ctx, mock.Anything, mock.Anything).Return(gallery.ObjectInfo{Size: 3}, nil)
		index.On("Add", ctx, mock.Anything).Return(indexErr)

		_, err := service.Upload(ctx, gallery.UploadInput{OriginalName: "a.png"}, strings.NewReader("abc"))
		assert.ErrorIs(t, err, indexErr)

		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("cancelled context", func(t *testing.T) {
		service, store, _ := NewGalleryService(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := service.Upload(ctx, gallery.UploadInput{OriginalName: "a.png"}, strings.NewReader("abc"))
		assert.ErrorIs(t, err, context.Canceled)
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGalleryService_Search(t *testing.T) {
	t.Run("blank query lists everything", func(t *testing.T) {
		service, _, index := NewGalleryService(t)
		ctx := context.Background()
		all := []gallery.Image{{FileName: "1_a.jpg"}, {FileName: "2_b.jpg"}}

		index.On("List", ctx).Return(all, nil)

		got, err := service.Search(ctx, "   ")
		require.NoError(t, err)
		assert.Equal(t, all, got)
		index.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})

	t.Run("query is trimmed and delegated", func(t *testing.T) {
		service, _, index := NewGalleryService(t)
		ctx := context.Background()
		hits := []gallery.Image{{FileName: "1_a.jpg", Tags: "beach"}}

		index.On("Search", ctx, "beach").Return(hits, nil)

		got, err := service.Search(ctx, "  beach ")
		require.NoError(t, err)
		assert.Equal(t, hits, got)
	})

	t.Run("index error", func(t *testing.T) {
		service, _, index := NewGalleryService(t)
		ctx := context.Background()

		index.On("Search", ctx, "x").Return([]gallery.Image{}, io.ErrUnexpectedEOF)

		_, err := service.Search(ctx, "x")
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}

func TestGalleryService_Delete(t *testing.T) {
	t.Run("removes object then record", func(t *testing.T) {
		service, store, index := NewGalleryService(t)
		ctx := context.Background()

		store.On("Delete", ctx, "1_a.jpg").Return(nil)
		index.On("Remove", ctx, "1_a.jpg").Return(nil)

		err := service.Delete(ctx, "1_a.jpg")
		assert.NoError(t, err)

		store.AssertExpectations(t)
		index.AssertExpectations(t)
	})

	t.Run("store not found still drops stale record", func(t *testing.T) {
		service, store, index := NewGalleryService(t)
		ctx := context.Background()

		store.On("Delete", ctx, "1_a.jpg").Return(gallery.ErrNotFound)
		index.On("Remove", ctx, "1_a.jpg").Return(nil)

		err := service.Delete(ctx, "1_a.jpg")
		assert.ErrorIs(t, err, gallery.ErrNotFound)

		index.AssertExpectations(t)
	})

	t.Run("store failure leaves index untouched", func(t *testing.T) {
		service, store, index := NewGalleryService(t)
		ctx := context.Background()
		storeErr := errors.New("access denied")

		store.On("Delete", ctx, "1_a.jpg").Return(storeErr)

		err := service.Delete(ctx, "1_a.jpg")
		assert.ErrorIs(t, err, storeErr)

		index.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	})

	t.Run("index failure is not reported", func(t *testing.T) {
		service, store, index := NewGalleryService(t)
		ctx := context.Background()

		store.On("Delete", ctx, "1_a.jpg").Return(nil)
		index.On("Remove", ctx, "1_a.jpg").Return(errors.New("index down"))

		assert.NoError(t, service.Delete(ctx, "1_a.jpg"))
	})

	t.Run("keys written by other tools", func(t *testing.T) {
		for _, key := range []string{"albums/cat.jpg", "my photo.jpg"} {
			t.Run(key, func(t *testing.T) {
				service, store, index := NewGalleryService(t)
				ctx := context.Background()

				store.On("Delete", ctx, key).Return(nil)
				index.On("Remove", ctx, key).Return(nil)

				assert.NoError(t, service.Delete(ctx, key))
				store.AssertExpectations(t)
				index.AssertExpectations(t)
			})
		}
	})

	t.Run("invalid file name", func(t *testing.T) {
		for _, key := range []string{"", "a\x00b", "a\nb"} {
			service, store, _ := NewGalleryService(t)

			err := service.Delete(context.Background(), key)
			assert.ErrorIs(t, err, gallery.ErrInvalidInput)
			store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		}
	})
}

func TestGalleryService_Open(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service, store, _ := NewGalleryService(t)
		ctx := context.Background()
		body := io.NopCloser(strings.NewReader("bytes"))

		store.On("Get", ctx, "1_a.jpg").Return(gallery.ObjectInfo{Key: "1_a.jpg", ContentType: "image/jpeg"}, body, nil)

		info, r, err := service.Open(ctx, "1_a.jpg")
		require.NoError(t, err)
		defer func() { _ = r.Close() }()

		assert.Equal(t, "image/jpeg", info.ContentType)
		data, _ := io.ReadAll(r)
		assert.Equal(t, "bytes", string(data))
	})

	t.Run("not found", func(t *testing.T) {
		service, store, _ := NewGalleryService(t)
		ctx := context.Background()

		store.On("Get", ctx, "missing.jpg").Return(gallery.ObjectInfo{}, nil, gallery.ErrNotFound)

		_, _, err := service.Open(ctx, "missing.jpg")
		assert.ErrorIs(t, err, gallery.ErrNotFound)
	})

	t.Run("nested key and key with space", func(t *testing.T) {
		for _, key := range []string{"albums/cat.jpg", "my photo.jpg"} {
			service, store, _ := NewGalleryService(t)
			ctx := context.Background()

			store.On("Get", ctx, key).Return(gallery.ObjectInfo{Key: key}, io.NopCloser(strings.NewReader("x")), nil)

			info, r, err := service.Open(ctx, key)
			require.NoError(t, err)
			_ = r.Close()
			assert.Equal(t, key, info.Key)
		}
	})

	t.Run("control character", func(t *testing.T) {
		service, store, _ := NewGalleryService(t)

		_, _, err := service.Open(context.Background(), "a\x7fb")
		assert.ErrorIs(t, err, gallery.ErrInvalidInput)
		store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestGalleryService_Rebuild(t *testing.T) {
	t.Run("repopulates from store headers", func(t *testing.T) {
		service, store, index := NewGalleryService(t)
		ctx := context.Background()
		modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

		index.On("Reset", ctx).Return(nil)
		store.On("List", ctx).Return([]string{"1_a.jpg", "2_b.png"}, nil)
		store.On("Stat", ctx, "1_a.jpg").Return(gallery.ObjectInfo{
			Key:          "1_a.jpg",
			Size:         100,
			LastModified: modified,
			ContentType:  "image/jpeg",
			Metadata: map[string]string{
				"X-Amz-Meta-Title": "Sunset",
				"X-Amz-Meta-Tags":  "beach",
				"Content-Type":     "image/jpeg",
			},
		}, nil)
		store.On("Stat", ctx, "2_b.png").Return(gallery.ObjectInfo{
			Key:          "2_b.png",
			Size:         50,
			LastModified: modified,
		}, nil)

		index.On("Add", ctx, mock.MatchedBy(func(img gallery.Image) bool {
			return img.FileName == "1_a.jpg" && img.Title == "Sunset" && img.Tags == "beach" && img.Size == 100
		})).Return(nil)
		index.On("Add", ctx, mock.MatchedBy(func(img gallery.Image) bool {
			return img.FileName == "2_b.png" && img.Title == "2_b.png" && img.MimeType == "application/octet-stream"
		})).Return(nil)

		result, err := service.Rebuild(ctx)
		require.NoError(t, err)
		assert.Equal(t, gallery.RebuildResult{Indexed: 2}, result)

		store.AssertExpectations(t)
		index.AssertExpectations(t)
	})

	t.Run("per object failures are skipped", func(t *testing.T) {
		service, store, index := NewGalleryService(t)
		ctx := context.Background()

		index.On("Reset", ctx).Return(nil)
		store.On("List", ctx).Return([]string{"1_a.jpg", "2_b.jpg", "3_c.jpg"}, nil)
		store.On("Stat", ctx, "1_a.jpg").Return(gallery.ObjectInfo{}, errors.New("stat failed"))
		store.On("Stat", ctx, "2_b.jpg").Return(gallery.ObjectInfo{Key: "2_b.jpg", Size: 1}, nil)
		store.On("Stat", ctx, "3_c.jpg").Return(gallery.ObjectInfo{Key: "3_c.jpg", Size: 1}, nil)
		index.On("Add", ctx, mock.MatchedBy(func(img gallery.Image) bool { return img.FileName == "2_b.jpg" })).Return(errors.New("add failed"))
		index.On("Add", ctx, mock.MatchedBy(func(img gallery.Image) bool { return img.FileName == "3_c.jpg" })).Return(nil)

		result, err := service.Rebuild(ctx)
		require.NoError(t, err)
		assert.Equal(t, gallery.RebuildResult{Indexed: 1, Skipped: 2}, result)
	})

	t.Run("empty store", func(t *testing.T) {
		service, store, index := NewGalleryService(t)
		ctx := context.Background()

		index.On("Reset", ctx).Return(nil)
		store.On("List", ctx).Return([]string{}, nil)

		result, err := service.Rebuild(ctx)
		require.NoError(t, err)
		assert.Equal(t, gallery.RebuildResult{}, result)
		index.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("list error aborts", func(t *testing.T) {
		service, store, index := NewGalleryService(t)
		ctx := context.Background()

		index.On("Reset", ctx).Return(nil)
		store.On("List", ctx).Return([]string{}, io.ErrUnexpectedEOF)

		_, err := service.Rebuild(ctx)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
		store.AssertNotCalled(t, "Stat", mock.Anything, mock.Anything)
	})

	t.Run("reset error aborts", func(t *testing.T) {
		service, store, index := NewGalleryService(t)
		ctx := context.Background()

		index.On("Reset", ctx).Return(errors.New("reset failed"))

		_, err := service.Rebuild(ctx)
		assert.Error(t, err)
		store.AssertNotCalled(t, "List", mock.Anything)
	})
}

func TestGalleryService_StartRecovery(t *testing.T) {
	service, store, index := NewGalleryService(t)
	ctx := context.Background()

	release := make(chan struct{})
	index.On("Reset", ctx).Return(nil)
	store.On("List", ctx).Run(func(mock.Arguments) { <-release }).Return([]string{"1_a.jpg"}, nil)
	store.On("Stat", ctx, "1_a.jpg").Return(gallery.ObjectInfo{Key: "1_a.jpg", Size: 1}, nil)
	index.On("Add", ctx, mock.Anything).Return(nil)

	done := service.StartRecovery(ctx)
	assert.False(t, service.Ready())

	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("recovery did not finish")
	}

	assert.True(t, service.Ready())
	index.AssertExpectations(t)
}
