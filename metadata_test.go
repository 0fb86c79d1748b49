package gallery_test

import (
	"testing"
	"time"

	"github.com/sagarc03/gallery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadHeaders(t *testing.T) {
	at := time.Date(2024, 5, 1, 14, 30, 0, 500_000_000, time.FixedZone("CEST", 2*60*60))

	headers := gallery.UploadHeaders(gallery.UploadInput{
		Title:       "Sunset",
		Description: "Evening",
		Tags:        "beach,sun",
		Location:    "Goa",
	}, at)

	assert.Equal(t, map[string]string{
		gallery.HeaderTitle:       "Sunset",
		gallery.HeaderDescription: "Evening",
		gallery.HeaderTags:        "beach,sun",
		gallery.HeaderLocation:    "Goa",
		gallery.HeaderUploadDate:  "2024-05-01T12:30:00.500Z",
	}, headers)
}

func TestRecordFromObject(t *testing.T) {
	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	urlFor := gallery.NewURLBuilder("", "")

	t.Run("prefixed headers", func(t *testing.T) {
		img := gallery.RecordFromObject(gallery.ObjectInfo{
			Key:          "1_a.jpg",
			Size:         42,
			LastModified: modified,
			Metadata: map[string]string{
				"X-Amz-Meta-Title":       "Sunset",
				"X-Amz-Meta-Description": "Evening",
				"X-Amz-Meta-Tags":        "beach",
				"X-Amz-Meta-Location":    "Goa",
				"X-Amz-Meta-Upload-Date": "2024-05-01T12:30:00.500Z",
				"Content-Type":           "image/jpeg",
			},
		}, urlFor)

		assert.Equal(t, "1_a.jpg", img.FileName)
		assert.Equal(t, "Sunset", img.Title)
		assert.Equal(t, "Evening", img.Description)
		assert.Equal(t, "beach", img.Tags)
		assert.Equal(t, "Goa", img.Location)
		assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 500_000_000, time.UTC), img.UploadDate)
		assert.Equal(t, int64(42), img.Size)
		assert.Equal(t, "image/jpeg", img.MimeType)
		assert.Equal(t, "/files/1_a.jpg", img.URL)
		assert.Empty(t, img.ID)
	})

	t.Run("bare header names", func(t *testing.T) {
		img := gallery.RecordFromObject(gallery.ObjectInfo{
			Key:          "1_a.jpg",
			LastModified: modified,
			Metadata: map[string]string{
				"title":      "Bare",
				"tags":       "x",
				"uploaddate": "2023-03-03T03:03:03Z",
			},
		}, urlFor)

		assert.Equal(t, "Bare", img.Title)
		assert.Equal(t, "x", img.Tags)
		assert.Equal(t, time.Date(2023, 3, 3, 3, 3, 3, 0, time.UTC), img.UploadDate)
	})

	t.Run("prefixed wins over bare", func(t *testing.T) {
		img := gallery.RecordFromObject(gallery.ObjectInfo{
			Key: "1_a.jpg",
			Metadata: map[string]string{
				"title":            "Bare",
				"x-amz-meta-title": "Prefixed",
			},
		}, urlFor)

		assert.Equal(t, "Prefixed", img.Title)
	})

	t.Run("empty prefixed falls through", func(t *testing.T) {
		img := gallery.RecordFromObject(gallery.ObjectInfo{
			Key: "1_a.jpg",
			Metadata: map[string]string{
				"x-amz-meta-title": "",
				"title":            "Bare",
			},
		}, urlFor)

		assert.Equal(t, "Bare", img.Title)
	})

	t.Run("encoded words are decoded", func(t *testing.T) {
		img := gallery.RecordFromObject(gallery.ObjectInfo{
			Key: "1_a.jpg",
			Metadata: map[string]string{
				"X-Amz-Meta-Location": "=?utf-8?b?TcO8bmNoZW4=?=",
			},
		}, urlFor)

		assert.Equal(t, "München", img.Location)
	})

	t.Run("fallbacks", func(t *testing.T) {
		img := gallery.RecordFromObject(gallery.ObjectInfo{
			Key:          "1_a.jpg",
			Size:         7,
			LastModified: modified,
			Metadata: map[string]string{
				"x-amz-meta-upload-date": "not a date",
			},
		}, urlFor)

		assert.Equal(t, "1_a.jpg", img.Title)
		assert.Empty(t, img.Description)
		assert.Equal(t, modified, img.UploadDate)
		assert.Equal(t, "application/octet-stream", img.MimeType)
	})

	t.Run("content type from object info", func(t *testing.T) {
		img := gallery.RecordFromObject(gallery.ObjectInfo{
			Key:         "1_a.png",
			ContentType: "image/png",
		}, urlFor)

		assert.Equal(t, "image/png", img.MimeType)
	})

	t.Run("round trip with upload headers", func(t *testing.T) {
		at := time.Date(2024, 5, 1, 12, 30, 0, 123_000_000, time.UTC)
		in := gallery.UploadInput{Title: "T", Description: "D", Tags: "a,b", Location: "L"}

		img := gallery.RecordFromObject(gallery.ObjectInfo{
			Key:      "1_a.jpg",
			Metadata: gallery.UploadHeaders(in, at),
		}, nil)

		require.Equal(t, "T", img.Title)
		assert.Equal(t, "D", img.Description)
		assert.Equal(t, "a,b", img.Tags)
		assert.Equal(t, "L", img.Location)
		assert.Equal(t, at, img.UploadDate)
		assert.Empty(t, img.URL)
	})
}
