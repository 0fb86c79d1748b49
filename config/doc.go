// Package config provides configuration loading and validation for the
// gallery server.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. MINIO_* aliases (see below)
//  4. Environment variables (GALLERY_ prefix)
//  5. CLI flags
//
// # Usage
//
//	_ = config.LoadDotEnv(".env")
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx = config.WithContext(ctx, cfg)
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with GALLERY_ prefix:
//   - server.port → GALLERY_SERVER_PORT
//   - storage.minio.bucket → GALLERY_STORAGE_MINIO_BUCKET
//   - index.dsn → GALLERY_INDEX_DSN
//
// The variables of earlier deployments are honoured as aliases:
// MINIO_ENDPOINT and MINIO_PORT form storage.minio.endpoint,
// MINIO_ACCESS_KEY and MINIO_SECRET_KEY set the credentials, and
// MINIO_PUBLIC_HOST with MINIO_PORT forms storage.public_url.
//
// # Configuration Structure
//
//   - Env: dev or prod, selects the log handler
//   - Server: port and max_upload_size
//   - Storage: minio or filesystem backend, public URL base
//   - Index: memory, sqlite, postgres or redis, with DSN and table name
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
package config
