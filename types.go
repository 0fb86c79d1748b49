package gallery

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Image is the denormalized metadata record for one stored image.
// The object store holds the authoritative copy as object headers.
type Image struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        string    `json:"tags"`
	Location    string    `json:"location"`
	UploadDate  time.Time `json:"uploadDate"`
	Size        int64     `json:"size"`
	MimeType    string    `json:"mimeType"`
	URL         string    `json:"url"`
}

// ObjectInfo describes a stored object as reported by an ObjectStore.
// Metadata holds the raw header names returned by the backend.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
	Metadata     map[string]string
}

// PutObject describes an object write.
type PutObject struct {
	Key         string
	ContentType string
	Size        int64 // -1 when unknown
	Metadata    map[string]string
}

// UploadInput carries the descriptive form fields of an upload.
type UploadInput struct {
	OriginalName string
	ContentType  string
	Size         int64
	Title        string
	Description  string
	Tags         string
	Location     string
}

// RebuildResult reports the outcome of an index rebuild.
type RebuildResult struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

// URLBuilder maps a storage key to the URL clients use to fetch its bytes.
type URLBuilder func(key string) string

// NewURLBuilder returns a URLBuilder for the given public base URL and bucket.
// With an empty base URL, objects are served through the API at /files/<key>.
func NewURLBuilder(publicURL, bucket string) URLBuilder {
	base := strings.TrimSuffix(publicURL, "/")
	if base == "" {
		return func(key string) string {
			return "/files/" + url.PathEscape(key)
		}
	}
	if bucket != "" {
		base += "/" + bucket
	}
	return func(key string) string {
		return base + "/" + key
	}
}

// Tables holds configurable table names for index storage.
type Tables struct {
	Images string `mapstructure:"images"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Images == "" {
		return errors.New("validate tables: images table name cannot be empty")
	}

	if !IsValidTableName(t.Images) {
		return fmt.Errorf("validate tables: invalid images table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Images)
	}

	return nil
}

// EscapeLikePattern escapes special LIKE characters (%, _, \) so a search
// query is matched literally.
func EscapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}
