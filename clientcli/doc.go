// Package clientcli provides a client library for the gallery HTTP API.
//
// It supports upload, list, search, download, delete and rebuild, plus
// profile-based configuration for talking to more than one server.
//
// # Basic Usage
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:3000"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	img, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./beach.jpg",
//		Title:     "Beach",
//		Tags:      "summer,sea",
//	})
//
//	images, err := client.Search(ctx, "sea")
//
// # Endpoint Resolution
//
// The gallery-cli command resolves the endpoint in this order, highest first:
//
//  1. --server flag
//  2. GALLERY_SERVER environment variable
//  3. the selected profile in ~/.gallery/config.yaml
//  4. DefaultEndpoint (http://localhost:3000)
//
// # Errors
//
// Non-200 responses are returned as *APIError carrying the status code and
// the server's {"error": ...} message. Use errors.Is with ErrNotFound,
// ErrBadRequest or ErrTooLarge to test for common cases.
package clientcli
