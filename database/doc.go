// Package database connects the gallery to its metadata index backend.
//
// The index is a cache of the object store's metadata headers, so every
// backend can be emptied and rebuilt at any time.
//
// # Supported Backends
//
//   - memory: In-process slice, lost on restart (default)
//   - sqlite: Lightweight persistent backend using modernc.org/sqlite
//   - postgres: Shared backend using a pgx connection pool
//   - redis: One hash of JSON records using go-redis
//
// # Usage
//
//	cfg := database.Config{
//	    Type:  "sqlite",
//	    DSN:   "gallery.db",
//	    Table: "gallery_images",
//	}
//
//	index, cleanup, err := database.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// For SQL backends Connect also runs schema migrations and validates the
// resulting schema.
//
// # Subpackages
//
//   - database/memory: In-memory implementation
//   - database/sqlite: SQLite implementation
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/redis: Redis implementation
//   - database/indextest: Conformance suite shared by the implementations' tests
package database
