// Package memory implements the gallery index as an in-process slice.
//
// Records are lost on restart and recovered from the object store by the
// startup rebuild.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/sagarc03/gallery"
)

// Index keeps records in insertion order and sorts on read.
// It is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	records []gallery.Image
}

func NewIndex() *Index {
	return &Index{}
}

// Add appends img. Records with the same file name are kept side by side.
func (i *Index) Add(ctx context.Context, img gallery.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.records = append(i.records, img)
	return nil
}

// Remove drops the first record with the given file name.
func (i *Index) Remove(ctx context.Context, fileName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	idx := slices.IndexFunc(i.records, func(img gallery.Image) bool {
		return img.FileName == fileName
	})
	if idx >= 0 {
		i.records = slices.Delete(i.records, idx, idx+1)
	}

	return nil
}

func (i *Index) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.records = nil
	return nil
}

func (i *Index) List(ctx context.Context) ([]gallery.Image, error) {
	return i.filter(ctx, func(gallery.Image) bool { return true })
}

func (i *Index) Search(ctx context.Context, query string) ([]gallery.Image, error) {
	q := strings.ToLower(query)
	return i.filter(ctx, func(img gallery.Image) bool {
		return strings.Contains(strings.ToLower(img.Title), q) ||
			strings.Contains(strings.ToLower(img.Description), q) ||
			strings.Contains(strings.ToLower(img.Tags), q)
	})
}

// Len returns the number of records held.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.records)
}

func (i *Index) filter(ctx context.Context, keep func(gallery.Image) bool) ([]gallery.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.mu.RLock()
	out := make([]gallery.Image, 0, len(i.records))
	for _, img := range i.records {
		if keep(img) {
			out = append(out, img)
		}
	}
	i.mu.RUnlock()

	SortNewestFirst(out)
	return out, nil
}

// SortNewestFirst orders images by upload date descending, then file name
// descending.
func SortNewestFirst(images []gallery.Image) {
	slices.SortStableFunc(images, func(a, b gallery.Image) int {
		if c := b.UploadDate.Compare(a.UploadDate); c != 0 {
			return c
		}
		return strings.Compare(b.FileName, a.FileName)
	})
}
