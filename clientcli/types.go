package clientcli

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	ContentType string // optional, sniffed if empty
	Title       string
	Description string
	Tags        string
	Location    string
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	FileName  string
	LocalPath string // empty = file name in the working directory, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	FileName    string `json:"file_name"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	FileNames []string
}

// DeleteResult represents the result of deleting a single image.
type DeleteResult struct {
	FileName string `json:"file_name"`
	Deleted  bool   `json:"deleted"`
	Err      error  `json:"-"` // nil on success
}
