// Package http provides the REST API of the photo gallery.
//
// # Routes
//
//	POST   /upload            multipart form: file, title, description, tags, location
//	GET    /images            all records, newest first
//	GET    /search?q=<text>   case-insensitive match on title, description and tags
//	DELETE /delete/{fileName} removes the object and its index entry
//	POST   /rebuild           rebuilds the index from the object store
//	GET    /files/{fileName}  streams the stored bytes
//	GET    /healthz           liveness
//	GET    /readyz            503 while the startup recovery scan runs
//
// When HandlerConfig.Static is set, every other GET path is served from it,
// which is how the bundled browser client is mounted at /.
//
// # Errors
//
// Failures are returned as JSON objects of the form {"error": "<message>"}.
// HandleError maps gallery.ErrNotFound to 404, gallery.ErrInvalidInput and
// ErrNoFile to 400, gallery.ErrTooLarge to 413 and everything else to 500.
// The underlying error message is passed through unchanged.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    MaxUploadSize: 50 << 20,
//	    Static:        web.Static(),
//	}, service)
//	server := &http.Server{Addr: ":3000", Handler: handler.Router()}
//
// Responses served while the index is still being recovered carry the
// X-Index-Status: recovering header.
package http
