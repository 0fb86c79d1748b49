package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database/sqlite"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestIndex creates an index with a unique table name for test isolation
func setupTestIndex(t *testing.T) *sqlite.Index {
	t.Helper()

	ctx := context.Background()
	tables := gallery.Tables{Images: fmt.Sprintf("images_%s", getRandomString(t))}

	db, err := sqlite.Open(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to open")
	t.Cleanup(func() { _ = db.Close() })

	index, err := sqlite.NewIndex(db, tables)
	require.NoError(t, err, "failed to create index")

	return index
}
