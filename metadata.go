package gallery

import (
	"mime"
	"strings"
	"time"
)

// Metadata header names written on upload.
const (
	HeaderTitle       = "x-amz-meta-title"
	HeaderDescription = "x-amz-meta-description"
	HeaderTags        = "x-amz-meta-tags"
	HeaderLocation    = "x-amz-meta-location"
	HeaderUploadDate  = "x-amz-meta-upload-date"
	HeaderContentType = "content-type"
)

const defaultMimeType = "application/octet-stream"

// uploadDateLayout is RFC 3339 with millisecond precision.
const uploadDateLayout = "2006-01-02T15:04:05.000Z07:00"

// HeaderCandidates lists, per record field, the header names consulted when
// mapping a stored object back to an Image. The first non-empty match wins;
// each name is compared case-insensitively.
var HeaderCandidates = struct {
	Title       []string
	Description []string
	Tags        []string
	Location    []string
	UploadDate  []string
	MimeType    []string
}{
	Title:       []string{HeaderTitle, "title"},
	Description: []string{HeaderDescription, "description"},
	Tags:        []string{HeaderTags, "tags"},
	Location:    []string{HeaderLocation, "location"},
	UploadDate:  []string{HeaderUploadDate, "uploaddate", "upload-date"},
	MimeType:    []string{HeaderContentType},
}

type headerSet map[string]string

var headerDecoder = new(mime.WordDecoder)

func newHeaderSet(raw map[string]string) headerSet {
	h := make(headerSet, len(raw))
	for k, v := range raw {
		lk := strings.ToLower(k)
		if _, seen := h[lk]; seen && v == "" {
			continue
		}
		h[lk] = v
	}
	return h
}

func (h headerSet) lookup(candidates []string) string {
	for _, c := range candidates {
		v := h[strings.ToLower(c)]
		if v == "" {
			continue
		}
		// Stores that cannot carry non-ASCII header values RFC 2047 encode them.
		if decoded, err := headerDecoder.DecodeHeader(v); err == nil {
			return decoded
		}
		return v
	}
	return ""
}

// UploadHeaders returns the metadata headers stored alongside an upload.
func UploadHeaders(in UploadInput, uploadedAt time.Time) map[string]string {
	return map[string]string{
		HeaderTitle:       in.Title,
		HeaderDescription: in.Description,
		HeaderTags:        in.Tags,
		HeaderLocation:    in.Location,
		HeaderUploadDate:  FormatUploadDate(uploadedAt),
	}
}

// FormatUploadDate renders t the way it is stored in the upload-date header.
func FormatUploadDate(t time.Time) string {
	return t.UTC().Format(uploadDateLayout)
}

// RecordFromObject maps a stored object and its headers back to an Image.
// The ID is left empty; callers assign one.
func RecordFromObject(info ObjectInfo, urlFor URLBuilder) Image {
	h := newHeaderSet(info.Metadata)

	img := Image{
		FileName:    info.Key,
		Title:       h.lookup(HeaderCandidates.Title),
		Description: h.lookup(HeaderCandidates.Description),
		Tags:        h.lookup(HeaderCandidates.Tags),
		Location:    h.lookup(HeaderCandidates.Location),
		UploadDate:  info.LastModified.UTC(),
		Size:        info.Size,
		MimeType:    h.lookup(HeaderCandidates.MimeType),
	}

	if img.Title == "" {
		img.Title = info.Key
	}

	if raw := h.lookup(HeaderCandidates.UploadDate); raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			img.UploadDate = t.UTC()
		}
	}

	if img.MimeType == "" {
		img.MimeType = info.ContentType
	}
	if img.MimeType == "" {
		img.MimeType = defaultMimeType
	}

	if urlFor != nil {
		img.URL = urlFor(info.Key)
	}

	return img
}
