package http

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sagarc03/gallery"
)

const defaultMimeType = "application/octet-stream"

// maxMemory is the part of a multipart body kept in memory; the rest spills
// to temporary files.
const maxMemory = 32 << 20

type Service interface {
	Upload(ctx context.Context, in gallery.UploadInput, content io.Reader) (gallery.Image, error)
	List(ctx context.Context) ([]gallery.Image, error)
	Search(ctx context.Context, query string) ([]gallery.Image, error)
	Delete(ctx context.Context, fileName string) error
	Open(ctx context.Context, fileName string) (gallery.ObjectInfo, io.ReadCloser, error)
	Rebuild(ctx context.Context) (gallery.RebuildResult, error)
	Ready() bool
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"min=0"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// MaxUploadSize limits the request body of POST /upload in bytes.
	// Zero means unlimited.
	MaxUploadSize int64
	// Static holds the browser client served at /. Nil disables it.
	Static fs.FS
}

// Handler provides HTTP handlers for the gallery API.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with the API routes and, when configured,
// the static client.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(IndexStatusMiddleware(h.service.Ready))
		r.Post("/upload", h.handleUpload)
		r.Get("/images", h.handleList)
		r.Get("/search", h.handleSearch)
		r.Delete("/delete/{fileName}", h.handleDelete)
		r.Post("/rebuild", h.handleRebuild)
	})

	r.Get("/files/{fileName}", h.handleFile)

	if h.config.Static != nil {
		r.Get("/*", http.FileServerFS(h.config.Static).ServeHTTP)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if !h.service.Ready() {
		WriteError(w, http.StatusServiceUnavailable, "index recovery in progress")
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			HandleError(w, ErrNoFile)
			return
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			HandleError(w, gallery.ErrTooLarge)
			return
		}
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		HandleError(w, ErrNoFile)
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == defaultMimeType {
		contentType, err = sniffContentType(file)
		if err != nil {
			HandleError(w, err)
			return
		}
	}

	in := gallery.UploadInput{
		OriginalName: header.Filename,
		ContentType:  contentType,
		Size:         header.Size,
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		Tags:         r.FormValue("tags"),
		Location:     r.FormValue("location"),
	}

	img, err := h.service.Upload(r.Context(), in, file)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, img)
}

// sniffContentType detects the MIME type from the leading bytes and rewinds.
func sniffContentType(file io.ReadSeeker) (string, error) {
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", err
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return mtype.String(), nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	images, err := h.service.List(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, images)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	images, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, images)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	fileName, err := fileNameParam(r)
	if err != nil || !gallery.IsValidKey(fileName) {
		WriteError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	if err := h.service.Delete(r.Context(), fileName); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// fileNameParam returns the decoded {fileName} route parameter. chi matches on
// RawPath when the request carried escaped slashes, so only then is the
// parameter still encoded.
func fileNameParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "fileName")
	if r.URL.RawPath == "" {
		return name, nil
	}
	return url.PathUnescape(name)
}

func (h *Handler) handleRebuild(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Rebuild(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	fileName, err := fileNameParam(r)
	if err != nil || !gallery.IsValidKey(fileName) {
		WriteError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	info, content, err := h.service.Open(r.Context(), fileName)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	contentType := info.ContentType
	if contentType == "" {
		contentType = defaultMimeType
	}
	w.Header().Set("Content-Type", contentType)

	if rs, ok := content.(io.ReadSeeker); ok {
		http.ServeContent(w, r, fileName, info.LastModified, rs)
		return
	}

	if info.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content); err != nil {
		slog.Warn("failed to stream file", "file", fileName, "err", err)
	}
}
