// Package objectstore provides the S3-compatible object store for the gallery,
// backed by MinIO through minio-go.
//
// Descriptive fields travel as x-amz-meta-* user metadata on each object, so
// the bucket alone is enough to rebuild the gallery index.
package objectstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"
	"unicode"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sagarc03/gallery"
)

// Config holds the connection settings for the MinIO server.
type Config struct {
	// Endpoint is host:port without a scheme.
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket" validate:"required"`
	Region    string `mapstructure:"region"`
	// PublicRead applies an anonymous GetObject policy when the bucket is created.
	PublicRead bool `mapstructure:"public_read"`
}

// Store reads and writes gallery objects in a single bucket.
type Store struct {
	client     *minio.Client
	bucket     string
	region     string
	publicRead bool
}

func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("new object store: endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("new object store: bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("new object store: %w", err)
	}

	return &Store{
		client:     client,
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		publicRead: cfg.PublicRead,
	}, nil
}

// Bucket returns the name of the bucket objects are stored in.
func (s *Store) Bucket() string {
	return s.bucket
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// PublicReadPolicy returns the bucket policy granting anonymous GetObject.
func PublicReadPolicy(bucket string) (string, error) {
	policy := bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucket + "/*"},
		}},
	}

	data, err := json.Marshal(policy)
	if err != nil {
		return "", fmt.Errorf("encode bucket policy: %w", err)
	}
	return string(data), nil
}

// Init creates the bucket if it is missing. A newly created bucket gets the
// public-read policy when PublicRead is set.
func (s *Store) Init(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("init object store: check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("init object store: make bucket %s: %w", s.bucket, err)
	}
	slog.Info("bucket created", "bucket", s.bucket)

	if !s.publicRead {
		return nil
	}

	policy, err := PublicReadPolicy(s.bucket)
	if err != nil {
		return fmt.Errorf("init object store: %w", err)
	}

	if err := s.client.SetBucketPolicy(ctx, s.bucket, policy); err != nil {
		return fmt.Errorf("init object store: set policy on %s: %w", s.bucket, err)
	}

	return nil
}

// Put uploads content with its content type and metadata headers.
func (s *Store) Put(ctx context.Context, obj gallery.PutObject, content io.Reader) (gallery.ObjectInfo, error) {
	userMetadata := make(map[string]string, len(obj.Metadata))
	for k, v := range obj.Metadata {
		userMetadata[k] = encodeHeaderValue(v)
	}

	info, err := s.client.PutObject(ctx, s.bucket, obj.Key, content, obj.Size, minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		UserMetadata: userMetadata,
	})
	if err != nil {
		return gallery.ObjectInfo{}, fmt.Errorf("put %s: %w", obj.Key, mapError(err))
	}

	metadata := make(map[string]string, len(obj.Metadata)+1)
	for k, v := range obj.Metadata {
		metadata[k] = v
	}
	metadata[gallery.HeaderContentType] = obj.ContentType

	return gallery.ObjectInfo{
		Key:          obj.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ContentType:  obj.ContentType,
		Metadata:     metadata,
	}, nil
}

// Stat returns the object's size, modification time and headers.
func (s *Store) Stat(ctx context.Context, key string) (gallery.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return gallery.ObjectInfo{}, fmt.Errorf("stat %s: %w", key, mapError(err))
	}

	return toObjectInfo(info), nil
}

// Get opens the object for streaming. The caller closes the reader.
func (s *Store) Get(ctx context.Context, key string) (gallery.ObjectInfo, io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return gallery.ObjectInfo{}, nil, fmt.Errorf("get %s: %w", key, mapError(err))
	}

	// GetObject is lazy; Stat surfaces a missing key.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return gallery.ObjectInfo{}, nil, fmt.Errorf("get %s: %w", key, mapError(err))
	}

	return toObjectInfo(info), obj, nil
}

// Delete removes the object. S3 deletes are idempotent, so the key is
// stat'ed first to report gallery.ErrNotFound for missing objects.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, mapError(err))
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, mapError(err))
	}

	return nil
}

// List returns every key in the bucket, recursively.
func (s *Store) List(ctx context.Context) ([]string, error) {
	keys := []string{}

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", mapError(obj.Err))
		}
		keys = append(keys, obj.Key)
	}

	return keys, nil
}

func toObjectInfo(info minio.ObjectInfo) gallery.ObjectInfo {
	metadata := make(map[string]string, len(info.Metadata)+1)
	for k, values := range info.Metadata {
		if len(values) > 0 {
			metadata[k] = values[0]
		}
	}
	if info.ContentType != "" {
		metadata[gallery.HeaderContentType] = info.ContentType
	}

	return gallery.ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ContentType:  info.ContentType,
		Metadata:     metadata,
	}
}

func mapError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", gallery.ErrNotFound, err.Error())
	default:
		return err
	}
}

// encodeHeaderValue RFC 2047 encodes values that cannot travel as a plain
// HTTP header value. Surrounding whitespace would be stripped in transit, so
// such values are encoded too. gallery.RecordFromObject decodes them.
func encodeHeaderValue(v string) string {
	if v != strings.TrimSpace(v) {
		// mime.BEncoding leaves printable ASCII as is
		return "=?utf-8?b?" + base64.StdEncoding.EncodeToString([]byte(v)) + "?="
	}
	for _, r := range v {
		if r > unicode.MaxASCII || r < 0x20 || r == 0x7f {
			return mime.BEncoding.Encode("utf-8", v)
		}
	}
	return v
}
