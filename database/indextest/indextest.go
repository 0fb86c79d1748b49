// Package indextest provides a conformance suite shared by the gallery.Index
// implementations.
package indextest

import (
	"context"
	"testing"
	"time"

	"github.com/sagarc03/gallery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Image returns a populated record uploaded at base plus offset seconds.
func Image(fileName string, offset int) gallery.Image {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return gallery.Image{
		ID:         "id-" + fileName,
		FileName:   fileName,
		Title:      fileName,
		UploadDate: base.Add(time.Duration(offset) * time.Second),
		Size:       int64(100 + offset),
		MimeType:   "image/jpeg",
		URL:        "/files/" + fileName,
	}
}

func fileNames(images []gallery.Image) []string {
	names := make([]string, 0, len(images))
	for _, img := range images {
		names = append(names, img.FileName)
	}
	return names
}

// Run exercises an Index created fresh for every subtest by newIndex.
func Run(t *testing.T, newIndex func(t *testing.T) gallery.Index) {
	t.Helper()

	t.Run("empty list", func(t *testing.T) {
		index := newIndex(t)

		images, err := index.List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, images)
		assert.Empty(t, images)
	})

	t.Run("add preserves every field", func(t *testing.T) {
		index := newIndex(t)
		ctx := context.Background()

		want := gallery.Image{
			ID:          "6c1c5d9a-3f0e-4b55-9d5e-0f7c2b9a1e11",
			FileName:    "1714566600123_sunset.jpg",
			Title:       "Sunset",
			Description: "Evening at the beach",
			Tags:        "beach,sun",
			Location:    "Goa",
			UploadDate:  time.Date(2024, 5, 1, 12, 30, 0, 123_000_000, time.UTC),
			Size:        2048,
			MimeType:    "image/jpeg",
			URL:         "/files/1714566600123_sunset.jpg",
		}

		require.NoError(t, index.Add(ctx, want))

		images, err := index.List(ctx)
		require.NoError(t, err)
		require.Len(t, images, 1)

		got := images[0]
		assert.True(t, want.UploadDate.Equal(got.UploadDate), "upload date %s != %s", want.UploadDate, got.UploadDate)
		got.UploadDate = want.UploadDate
		assert.Equal(t, want, got)
	})

	t.Run("list newest first", func(t *testing.T) {
		index := newIndex(t)
		ctx := context.Background()

		require.NoError(t, index.Add(ctx, Image("b.jpg", 10)))
		require.NoError(t, index.Add(ctx, Image("a.jpg", 30)))
		require.NoError(t, index.Add(ctx, Image("c.jpg", 20)))

		images, err := index.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.jpg", "c.jpg", "b.jpg"}, fileNames(images))
	})

	t.Run("equal dates ordered by file name descending", func(t *testing.T) {
		index := newIndex(t)
		ctx := context.Background()

		require.NoError(t, index.Add(ctx, Image("a.jpg", 5)))
		require.NoError(t, index.Add(ctx, Image("c.jpg", 5)))
		require.NoError(t, index.Add(ctx, Image("b.jpg", 5)))

		images, err := index.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"c.jpg", "b.jpg", "a.jpg"}, fileNames(images))
	})

	t.Run("remove", func(t *testing.T) {
		index := newIndex(t)
		ctx := context.Background()

		require.NoError(t, index.Add(ctx, Image("a.jpg", 1)))
		require.NoError(t, index.Add(ctx, Image("b.jpg", 2)))

		require.NoError(t, index.Remove(ctx, "a.jpg"))

		images, err := index.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"b.jpg"}, fileNames(images))
	})

	t.Run("remove missing is a no-op", func(t *testing.T) {
		index := newIndex(t)
		ctx := context.Background()

		require.NoError(t, index.Add(ctx, Image("a.jpg", 1)))
		assert.NoError(t, index.Remove(ctx, "missing.jpg"))

		images, err := index.List(ctx)
		require.NoError(t, err)
		assert.Len(t, images, 1)
	})

	t.Run("reset", func(t *testing.T) {
		index := newIndex(t)
		ctx := context.Background()

		require.NoError(t, index.Add(ctx, Image("a.jpg", 1)))
		require.NoError(t, index.Add(ctx, Image("b.jpg", 2)))

		require.NoError(t, index.Reset(ctx))

		images, err := index.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, images)

		require.NoError(t, index.Add(ctx, Image("c.jpg", 3)))
		images, err = index.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"c.jpg"}, fileNames(images))
	})

	t.Run("search fields case-insensitively", func(t *testing.T) {
		index := newIndex(t)
		ctx := context.Background()

		byTitle := Image("1_a.jpg", 1)
		byTitle.Title = "Beach Sunset"
		byDescription := Image("2_b.jpg", 2)
		byDescription.Description = "a day at the BEACH"
		byTags := Image("3_c.jpg", 3)
		byTags.Tags = "holiday,beach"
		byLocation := Image("4_d.jpg", 4)
		byLocation.Location = "Beach Road"
		unrelated := Image("5_e.jpg", 5)
		unrelated.Title = "Mountains"

		for _, img := range []gallery.Image{byTitle, byDescription, byTags, byLocation, unrelated} {
			require.NoError(t, index.Add(ctx, img))
		}

		images, err := index.Search(ctx, "beach")
		require.NoError(t, err)
		assert.Equal(t, []string{"3_c.jpg", "2_b.jpg", "1_a.jpg"}, fileNames(images))
	})

	t.Run("search without matches", func(t *testing.T) {
		index := newIndex(t)
		ctx := context.Background()

		require.NoError(t, index.Add(ctx, Image("a.jpg", 1)))

		images, err := index.Search(ctx, "nothing-like-this")
		require.NoError(t, err)
		assert.NotNil(t, images)
		assert.Empty(t, images)
	})

	t.Run("search treats wildcards literally", func(t *testing.T) {
		index := newIndex(t)
		ctx := context.Background()

		percent := Image("1_a.jpg", 1)
		percent.Title = "100% fun"
		plain := Image("2_b.jpg", 2)
		plain.Title = "100 fun"
		underscore := Image("3_c.jpg", 3)
		underscore.Tags = "snake_case"

		for _, img := range []gallery.Image{percent, plain, underscore} {
			require.NoError(t, index.Add(ctx, img))
		}

		images, err := index.Search(ctx, "100%")
		require.NoError(t, err)
		assert.Equal(t, []string{"1_a.jpg"}, fileNames(images))

		images, err = index.Search(ctx, "e_c")
		require.NoError(t, err)
		assert.Equal(t, []string{"3_c.jpg"}, fileNames(images))
	})
}
