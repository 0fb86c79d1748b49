// Package gallery provides a small photo-gallery service: image bytes live in
// an object store, and a metadata index serves listing and search.
//
// The object store is the source of truth. Each upload is written with its
// descriptive fields as x-amz-meta-* headers, and the index is a denormalized
// cache that can always be rebuilt by listing the store and mapping each
// object's headers back to an Image record.
//
// # Key Components
//
//   - GalleryService: Combines an ObjectStore and an Index; upload, list, search, delete, rebuild
//   - ObjectStore: Interface for blob storage (MinIO/S3 via objectstore, local disk via filesystem)
//   - Index: Interface for the metadata cache (memory, SQLite, PostgreSQL, Redis)
//   - RecordFromObject: Header-to-record mapping with ordered candidate header names
//
// # Recovery
//
// At startup the index is rebuilt in the background:
//
//	done := service.StartRecovery(ctx)
//	<-done // optional; service.Ready() reports the same thing
//
// Requests served before recovery completes see a partial index.
//
// # Example Usage
//
//	service, err := gallery.NewGalleryService(store, index, gallery.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	img, err := service.Upload(ctx, gallery.UploadInput{OriginalName: "cat.jpg", Title: "Cat"}, reader)
//
//	images, err := service.Search(ctx, "cat")
//
// See the http package for the REST API and the database packages for index
// backends.
package gallery
