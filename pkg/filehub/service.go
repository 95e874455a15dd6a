package filehub

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the file-lifecycle and query surface of the library. Every
// operation takes an explicit tenant id (and, where relevant, a caller
// identity) resolved by the transport layer; nothing is read from ambient
// state.
type Service interface {
	// InitUpload registers a pending file and returns a presigned upload URL.
	InitUpload(ctx context.Context, req InitUploadRequest) (*InitUploadResult, error)

	// Finalize confirms the client-side upload against the storage backend.
	// It returns false when the file is absent, deleted, or the backend has
	// no object yet; callers may retry once the upload completes.
	Finalize(ctx context.Context, id uuid.UUID, tenantID string) (bool, error)

	// GetFile returns the file scoped to the tenant, excluding deleted ones.
	GetFile(ctx context.Context, id uuid.UUID, tenantID string) (*StoredFile, error)

	// GetFileForOwner is the stricter variant requiring an exact owner match.
	GetFileForOwner(ctx context.Context, id uuid.UUID, tenantID, ownerType, ownerID string) (*StoredFile, error)

	// ListFiles returns one page of the tenant's files plus the total count.
	ListFiles(ctx context.Context, req ListFilesRequest) (*PagedResult, error)

	// UpdateMetadata edits the file name and/or description. Returns false
	// when the file is absent or deleted.
	UpdateMetadata(ctx context.Context, id uuid.UUID, tenantID string, req UpdateFileRequest) (bool, error)

	// DeleteFile soft-deletes the metadata record and schedules removal of
	// the remote object. Returns false when the file is absent or already
	// deleted.
	DeleteFile(ctx context.Context, id uuid.UUID, tenantID string) (bool, error)

	// GetDownloadURL returns a presigned download URL for an uploaded file.
	// Pending and deleted files report ErrFileNotFound.
	GetDownloadURL(ctx context.Context, id uuid.UUID, tenantID string) (string, error)
}
