package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/sagarc03/gallery"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, img *gallery.Image) error
	FormatImages(w io.Writer, images []gallery.Image) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatRebuild(w io.Writer, result gallery.RebuildResult) error
	FormatError(w io.Writer, err error) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text. In quiet mode only file names
// are printed, one per line, so output can be piped into other commands.
type HumanFormatter struct {
	Quiet bool
}

func (f *HumanFormatter) FormatUpload(w io.Writer, img *gallery.Image) error {
	if f.Quiet {
		_, _ = fmt.Fprintln(w, img.FileName)
		return nil
	}
	_, _ = fmt.Fprintf(w, "Uploaded: %s (%s, %s)\n", img.FileName, formatSize(img.Size), img.MimeType)
	_, _ = fmt.Fprintf(w, "  URL: %s\n", img.URL)
	return nil
}

func (f *HumanFormatter) FormatImages(w io.Writer, images []gallery.Image) error {
	if f.Quiet {
		for i := range images {
			_, _ = fmt.Fprintln(w, images[i].FileName)
		}
		return nil
	}

	if len(images) == 0 {
		_, _ = fmt.Fprintln(w, "No images found")
		return nil
	}

	// Calculate column widths
	nameWidth := len("FILE")
	titleWidth := len("TITLE")
	for i := range images {
		nameWidth = max(nameWidth, utf8.RuneCountInString(images[i].FileName))
		titleWidth = max(titleWidth, utf8.RuneCountInString(images[i].Title))
	}
	nameWidth = min(nameWidth, 50)
	titleWidth = min(titleWidth, 30)

	_, _ = fmt.Fprintf(w, "%-*s  %-*s  %10s  %s\n", nameWidth, "FILE", titleWidth, "TITLE", "SIZE", "UPLOADED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n",
		strings.Repeat("-", nameWidth), strings.Repeat("-", titleWidth), strings.Repeat("-", 10), strings.Repeat("-", 19))

	var total int64
	for i := range images {
		img := &images[i]
		total += img.Size
		_, _ = fmt.Fprintf(w, "%-*s  %-*s  %10s  %s\n",
			nameWidth, truncate(img.FileName, nameWidth),
			titleWidth, truncate(img.Title, titleWidth),
			formatSize(img.Size),
			img.UploadDate.Local().Format("2006-01-02 15:04:05"),
		)
	}

	_, _ = fmt.Fprintf(w, "\n%d image(s) (%s total)\n", len(images), formatSize(total))
	return nil
}

func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}
	if result.LocalPath == "-" {
		_, _ = fmt.Fprintf(w, "Downloaded: %s (%s)\n", result.FileName, formatSize(result.Size))
	} else {
		_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.FileName, result.LocalPath, formatSize(result.Size))
	}
	return nil
}

func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.FileName, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Deleted: %s\n", r.FileName)
		}
	}
	return nil
}

func (f *HumanFormatter) FormatRebuild(w io.Writer, result gallery.RebuildResult) error {
	if f.Quiet {
		return nil
	}
	_, _ = fmt.Fprintf(w, "Rebuilt index: %d indexed, %d skipped\n", result.Indexed, result.Skipped)
	return nil
}

func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON. Images are printed in the same shape the
// server returns them.
type JSONFormatter struct{}

func (f *JSONFormatter) FormatUpload(w io.Writer, img *gallery.Image) error {
	return writeJSON(w, img)
}

func (f *JSONFormatter) FormatImages(w io.Writer, images []gallery.Image) error {
	if images == nil {
		images = []gallery.Image{}
	}
	return writeJSON(w, images)
}

func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	type jsonResult struct {
		FileName string `json:"file_name"`
		Deleted  bool   `json:"deleted"`
		Error    string `json:"error,omitempty"`
	}

	output := struct {
		Results []jsonResult `json:"results"`
	}{
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		jr := jsonResult{FileName: r.FileName, Deleted: r.Deleted}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output.Results[i] = jr
	}

	return writeJSON(w, output)
}

func (f *JSONFormatter) FormatRebuild(w io.Writer, result gallery.RebuildResult) error {
	return writeJSON(w, result)
}

func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	return writeJSON(w, struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncate shortens s to width runes, marking the cut with "...".
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
