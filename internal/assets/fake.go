package assets

import (
	"context"
	"fmt"
	"sync"
)

// FakeStore is an in-memory Store used by tests. Individual file names and
// public IDs can be marked as failing to exercise partial-failure paths.
type FakeStore struct {
	mu sync.Mutex

	objects       map[string]string // public id -> url
	seq           int
	FailUploads   map[string]bool // file name -> force upload failure
	FailDeletes   map[string]bool // public id -> report not deleted
	UploadedNames []string
}

// NewFakeStore creates an empty fake asset store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		objects:     make(map[string]string),
		FailUploads: make(map[string]bool),
		FailDeletes: make(map[string]bool),
	}
}

func (f *FakeStore) Upload(ctx context.Context, file File, width, height int) (*Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailUploads[file.Name] {
		return nil, fmt.Errorf("fake store: upload of %q refused", file.Name)
	}

	f.seq++
	publicID := fmt.Sprintf("fake/%d", f.seq)
	url := fmt.Sprintf("https://assets.example.com/%s/%s", publicID, file.Name)
	f.objects[publicID] = url
	f.UploadedNames = append(f.UploadedNames, file.Name)

	return &Asset{URL: url, PublicID: publicID}, nil
}

func (f *FakeStore) UploadBatch(ctx context.Context, files []File) ([]UploadResult, error) {
	results := make([]UploadResult, 0, len(files))
	for _, file := range files {
		asset, err := f.Upload(ctx, file, 0, 0)
		if err != nil {
			results = append(results, UploadResult{Status: StatusFailed})
			continue
		}
		results = append(results, UploadResult{Asset: *asset, Status: StatusOK})
	}
	return results, nil
}

func (f *FakeStore) Destroy(ctx context.Context, publicIDs []string) (deleted, notDeleted []string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range publicIDs {
		if f.FailDeletes[id] {
			notDeleted = append(notDeleted, id)
			continue
		}
		delete(f.objects, id)
		deleted = append(deleted, id)
	}
	return deleted, notDeleted, nil
}

// StoredCount reports how many objects the fake store currently holds.
func (f *FakeStore) StoredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}
