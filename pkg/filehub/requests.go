package filehub

import (
	"time"

	"github.com/google/uuid"
)

// Request/Response DTOs

// InitUploadRequest contains parameters for registering a new file and
// minting its upload URL.
type InitUploadRequest struct {
	TenantID          string
	CreatedByUserID   string
	OwnerType         string
	OwnerID           string
	Category          string
	FileName          string
	ContentType       string
	ExpectedSizeBytes int64
	Metadata          map[string]interface{}
}

// InitUploadResult is returned from a successful InitUpload.
type InitUploadResult struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UpdateFileRequest contains parameters for editing file metadata. The
// description always replaces the stored one, including when empty.
type UpdateFileRequest struct {
	NewFileName string
	Description string
}

// ListFilesRequest contains parameters for a paged, filtered listing.
type ListFilesRequest struct {
	TenantID    string
	OwnerType   string
	OwnerID     string
	Category    string
	Page        int
	PageSize    int
	Search      string
	ContentType string
}
