package gallery

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// SafeFileName strips any directory part from name and replaces runs of
// whitespace with a single underscore.
func SafeFileName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	return strings.Join(strings.Fields(name), "_")
}

// StorageKey derives the object key for an upload by prefixing the safe
// file name with the upload time in Unix milliseconds.
func StorageKey(originalName string, at time.Time) string {
	return fmt.Sprintf("%d_%s", at.UnixMilli(), SafeFileName(originalName))
}

// IsValidKey reports whether name can address an object in the store. Any
// non-empty, valid UTF-8 string without control characters is accepted, so
// keys written by other tools (nested paths, spaces) stay reachable.
func IsValidKey(name string) bool {
	if name == "" || !utf8.ValidString(name) {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// IsValidFileName validates that a string can be used as a storage key.
// It checks that the name:
//   - is not empty, "." or ".."
//   - does not contain "/" or "\"
//   - is valid UTF-8
//   - does not contain null bytes, control characters (< 0x20), DEL (0x7f), or whitespace
//
// Returns true if the name is valid, false otherwise.
func IsValidFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	if strings.ContainsAny(name, `/\`) {
		return false
	}

	if !utf8.ValidString(name) {
		return false
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
