package assets

import (
	"context"
	"io"
)

// Upload status values reported by the hosting service.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// File is a single image payload to upload.
type File struct {
	Name    string
	Content io.Reader
}

// Asset identifies a stored remote image. PublicID is the opaque handle the
// hosting service expects back on deletion requests.
type Asset struct {
	URL      string
	PublicID string
}

// UploadResult is the per-item outcome of a batch upload.
type UploadResult struct {
	Asset
	Status string
}

// Stored reports whether the hosting service accepted the item.
func (r UploadResult) Stored() bool {
	return r.Status == StatusOK
}

// Store is the remote image-hosting boundary. Destroy returns the public IDs
// the service confirmed deleted and the ones it reported it could not delete;
// callers must only drop local records for confirmed IDs.
type Store interface {
	Upload(ctx context.Context, file File, width, height int) (*Asset, error)
	UploadBatch(ctx context.Context, files []File) ([]UploadResult, error)
	Destroy(ctx context.Context, publicIDs []string) (deleted, notDeleted []string, err error)
}
