package filehub

import (
	"time"

	"github.com/google/uuid"
)

// FileStatus is the domain type for file lifecycle states.
type FileStatus string

// File status constants (typed).
const (
	FileStatusPending  FileStatus = "pending"
	FileStatusUploaded FileStatus = "uploaded"
	FileStatusDeleted  FileStatus = "deleted"
)

// Owner type constants. OwnerType is stored lowercase.
const (
	OwnerTypeUser   = "user"
	OwnerTypeTenant = "tenant"
)

// DefaultContentType is used when a caller declares no content type.
const DefaultContentType = "application/octet-stream"

// StoredFile is the metadata record for a file whose bytes live in the
// object-storage backend. The Key is computed once at creation and never
// changes; SizeBytes holds the client-declared size until the file is
// finalized, after which it holds the backend-reported size.
type StoredFile struct {
	ID        uuid.UUID `json:"id"`
	TenantID  string    `json:"tenant_id"`
	OwnerType string    `json:"owner_type"`
	OwnerID   string    `json:"owner_id"`
	Category  string    `json:"category,omitempty"`

	Key         string `json:"key"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`

	CreatedByUserID string     `json:"created_by_user_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UploadedAt      *time.Time `json:"uploaded_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`

	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Description string                 `json:"description,omitempty"`
	Status      FileStatus             `json:"status"`
}

// ListFilesFilters narrows a tenant-scoped listing. Zero-valued fields mean
// "no filter", not "match blank".
type ListFilesFilters struct {
	TenantID    string
	OwnerType   string
	OwnerID     string
	Category    string
	ContentType string
	Search      string
}

// PagedResult is one page of a filtered listing plus the total match count.
type PagedResult struct {
	Items    []*StoredFile `json:"items"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Total    int           `json:"total"`
}

// ObjectStat describes the backend's view of a stored object.
type ObjectStat struct {
	Key         string
	SizeBytes   int64
	ContentType string
	ETag        string
	UpdatedAt   time.Time
}
