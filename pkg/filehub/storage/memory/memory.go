package memory

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/filehub/filehub/pkg/filehub"
)

// Backend is an in-memory implementation of the filehub.ObjectStore
// interface, used for tests and zero-configuration development servers.
// Presigned URLs are deterministic fakes; objects are "uploaded" by calling
// Put directly.
type Backend struct {
	mu      sync.RWMutex
	objects map[string]storedObject
}

type storedObject struct {
	data        []byte
	contentType string
	updatedAt   time.Time
}

// New creates a new in-memory object store
func New() *Backend {
	return &Backend{
		objects: make(map[string]storedObject),
	}
}

// PresignUpload returns a fake upload URL. The URL is never dereferenced;
// tests simulate a completed upload by calling Put with the same key.
func (b *Backend) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("memory://upload/%s?expires=%d", url.PathEscape(key), int64(ttl.Seconds())), nil
}

// PresignDownload returns a fake download URL for an existing object.
func (b *Backend) PresignDownload(ctx context.Context, key string, ttl time.Duration, responseContentType, responseDisposition string) (string, error) {
	v := make(url.Values)
	v.Set("expires", fmt.Sprintf("%d", int64(ttl.Seconds())))
	if responseContentType != "" {
		v.Set("response-content-type", responseContentType)
	}
	if responseDisposition != "" {
		v.Set("response-content-disposition", responseDisposition)
	}
	return fmt.Sprintf("memory://download/%s?%s", url.PathEscape(key), v.Encode()), nil
}

// StatObject retrieves metadata for an object in memory
func (b *Backend) StatObject(ctx context.Context, key string) (*filehub.ObjectStat, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[key]
	if !exists {
		return nil, filehub.ErrObjectNotFound
	}

	return &filehub.ObjectStat{
		Key:         key,
		SizeBytes:   int64(len(obj.data)),
		ContentType: obj.contentType,
		UpdatedAt:   obj.updatedAt,
	}, nil
}

// DeleteObject deletes an object from memory
func (b *Backend) DeleteObject(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, key)
	return nil
}

// Put stores object bytes directly, standing in for the client-side PUT
// against a presigned URL.
func (b *Backend) Put(key string, data []byte, contentType string) {
	if contentType == "" {
		contentType = filehub.DefaultContentType
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[key] = storedObject{
		data:        append([]byte(nil), data...),
		contentType: contentType,
		updatedAt:   time.Now().UTC(),
	}
}

// Exists reports whether an object with the given key is stored.
func (b *Backend) Exists(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.objects[key]
	return exists
}
