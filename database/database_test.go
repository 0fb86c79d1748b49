package database_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sagarc03/gallery/database"
	"github.com/sagarc03/gallery/database/indextest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_Memory(t *testing.T) {
	ctx := context.Background()

	index, cleanup, err := database.Connect(ctx, database.Config{Type: "memory"})
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, index.Add(ctx, indextest.Image("a.jpg", 1)))
	images, err := index.List(ctx)
	require.NoError(t, err)
	assert.Len(t, images, 1)
}

func TestConnect_SQLite(t *testing.T) {
	ctx := context.Background()

	index, cleanup, err := database.Connect(ctx, database.Config{
		Type:  "sqlite",
		DSN:   ":memory:",
		Table: "gallery_images",
	})
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, index.Add(ctx, indextest.Image("a.jpg", 1)))
	images, err := index.Search(ctx, "a.jpg")
	require.NoError(t, err)
	assert.Len(t, images, 1)
}

func TestConnect_SQLiteInvalidTable(t *testing.T) {
	_, _, err := database.Connect(context.Background(), database.Config{
		Type:  "sqlite",
		DSN:   ":memory:",
		Table: "Invalid-Table",
	})
	assert.Error(t, err)
}

func TestConnect_Redis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	index, cleanup, err := database.Connect(ctx, database.Config{
		Type:  "redis",
		DSN:   "redis://" + server.Addr(),
		Table: "gallery_images",
	})
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, index.Add(ctx, indextest.Image("a.jpg", 1)))
	assert.True(t, server.Exists("gallery_images"))
}

func TestConnect_InvalidType(t *testing.T) {
	_, _, err := database.Connect(context.Background(), database.Config{Type: "mongo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported index type")
}

func TestConnect_EmptyType(t *testing.T) {
	_, _, err := database.Connect(context.Background(), database.Config{})
	assert.Error(t, err)
}
