package filehub

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ObjectStore defines the interface consumed from the object-storage backend.
// Implementations must return ErrObjectNotFound (possibly wrapped) from
// StatObject when no object exists at the key.
type ObjectStore interface {
	// PresignUpload returns a time-limited URL authorizing a PUT of the
	// declared content type to the given key.
	PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)

	// PresignDownload returns a time-limited URL authorizing a GET of the
	// given key. The response content type and disposition override what the
	// backend would otherwise serve.
	PresignDownload(ctx context.Context, key string, ttl time.Duration, responseContentType, responseDisposition string) (string, error)

	// StatObject retrieves the backend's metadata for the object at key.
	StatObject(ctx context.Context, key string) (*ObjectStat, error)

	// DeleteObject removes the object at key. Deleting a missing object is
	// not an error.
	DeleteObject(ctx context.Context, key string) error
}

// Repository defines the interface for stored-file persistence. All lookups
// are tenant-scoped; the store itself enforces the singleton invariant for
// categorized files (CreateFile returns ErrCategoryConflict when an active
// file already exists for the same tenant, owner and category).
type Repository interface {
	CreateFile(ctx context.Context, file *StoredFile) error
	UpdateFile(ctx context.Context, file *StoredFile) error

	// GetFile returns the file regardless of status.
	GetFile(ctx context.Context, id uuid.UUID, tenantID string) (*StoredFile, error)

	// GetActiveFile returns the file unless it is deleted.
	GetActiveFile(ctx context.Context, id uuid.UUID, tenantID string) (*StoredFile, error)

	// GetActiveFileForOwner additionally requires an exact owner match.
	GetActiveFileForOwner(ctx context.Context, id uuid.UUID, tenantID, ownerType, ownerID string) (*StoredFile, error)

	CountFiles(ctx context.Context, filters ListFilesFilters) (int, error)
	ListFilesPaged(ctx context.Context, filters ListFilesFilters, limit, offset int) ([]*StoredFile, error)
}

// CleanupQueue records the intent to remove an object from the storage
// backend after its metadata row has been soft-deleted. Implementations may
// delete immediately (best effort) or persist the key for a janitor worker.
type CleanupQueue interface {
	Enqueue(ctx context.Context, key string) error
}
