package filehub

import (
	"context"
)

// directCleanup removes the object immediately, best effort. A failed delete
// is reported to the caller (the service logs and swallows it); the metadata
// soft-delete has already committed and stands either way.
type directCleanup struct {
	store ObjectStore
}

// NewDirectCleanup returns the default CleanupQueue: a synchronous,
// fire-and-forget delete against the object store.
func NewDirectCleanup(store ObjectStore) CleanupQueue {
	return &directCleanup{store: store}
}

func (c *directCleanup) Enqueue(ctx context.Context, key string) error {
	return c.store.DeleteObject(ctx, key)
}
