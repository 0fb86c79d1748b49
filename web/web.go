// Package web bundles the browser client of the gallery.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFS embed.FS

// Static returns the client assets rooted at the static directory, ready to
// be mounted at / by the HTTP handler.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
