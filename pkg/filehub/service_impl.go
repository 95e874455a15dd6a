package filehub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/filehub/filehub/pkg/filehub/objectkey"
)

// Default presign TTLs and listing cap.
const (
	DefaultUploadTTL   = 10 * time.Minute
	DefaultDownloadTTL = 5 * time.Minute
	DefaultMaxPageSize = 100
)

// service implements the Service interface
type service struct {
	repository  Repository
	objectStore ObjectStore
	cleanup     CleanupQueue
	uploadTTL   time.Duration
	downloadTTL time.Duration
	maxPageSize int
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithObjectStore sets the object-storage backend for the service
func WithObjectStore(store ObjectStore) Option {
	return func(s *service) {
		s.objectStore = store
	}
}

// WithCleanupQueue routes post-delete object removal through the given queue
// instead of the default immediate best-effort delete.
func WithCleanupQueue(queue CleanupQueue) Option {
	return func(s *service) {
		s.cleanup = queue
	}
}

// WithUploadTTL overrides the presigned upload URL lifetime.
func WithUploadTTL(ttl time.Duration) Option {
	return func(s *service) {
		s.uploadTTL = ttl
	}
}

// WithDownloadTTL overrides the presigned download URL lifetime.
func WithDownloadTTL(ttl time.Duration) Option {
	return func(s *service) {
		s.downloadTTL = ttl
	}
}

// WithMaxPageSize overrides the listing page-size cap.
func WithMaxPageSize(max int) Option {
	return func(s *service) {
		s.maxPageSize = max
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		uploadTTL:   DefaultUploadTTL,
		downloadTTL: DefaultDownloadTTL,
		maxPageSize: DefaultMaxPageSize,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.objectStore == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if s.cleanup == nil {
		s.cleanup = NewDirectCleanup(s.objectStore)
	}

	return s, nil
}

func (s *service) InitUpload(ctx context.Context, req InitUploadRequest) (*InitUploadResult, error) {
	ownerType, err := normalizeOwnerType(req.OwnerType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.FileName) == "" {
		return nil, ErrFileNameRequired
	}

	safeName := objectkey.SanitizeFileName(req.FileName)
	id := uuid.New()
	key := objectkey.BuildKey(req.TenantID, ownerType, req.OwnerID, id, safeName)

	contentType := req.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}
	sizeBytes := req.ExpectedSizeBytes
	if sizeBytes < 0 {
		sizeBytes = 0
	}

	file := &StoredFile{
		ID:              id,
		TenantID:        req.TenantID,
		OwnerType:       ownerType,
		OwnerID:         req.OwnerID,
		Category:        req.Category,
		Key:             key,
		FileName:        safeName,
		ContentType:     contentType,
		SizeBytes:       sizeBytes,
		CreatedByUserID: req.CreatedByUserID,
		CreatedAt:       time.Now().UTC(),
		Metadata:        req.Metadata,
		Status:          FileStatusPending,
	}

	if err := s.repository.CreateFile(ctx, file); err != nil {
		if errors.Is(err, ErrCategoryConflict) {
			return nil, err
		}
		return nil, &FileError{FileID: id, Op: "init_upload", Err: err}
	}

	expiresAt := time.Now().UTC().Add(s.uploadTTL)
	uploadURL, err := s.objectStore.PresignUpload(ctx, key, contentType, s.uploadTTL)
	if err != nil {
		// The pending row stays behind; it is harmless and simply never
		// reaches the uploaded state.
		return nil, &StorageError{Key: key, Op: "presign_upload", Err: err}
	}

	return &InitUploadResult{
		ID:        id,
		Key:       key,
		UploadURL: uploadURL,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *service) Finalize(ctx context.Context, id uuid.UUID, tenantID string) (bool, error) {
	file, err := s.repository.GetActiveFile(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return false, nil
		}
		return false, &FileError{FileID: id, Op: "finalize", Err: err}
	}

	stat, err := s.objectStore.StatObject(ctx, file.Key)
	if err != nil {
		// Retriable: the object has not landed yet or the backend is down.
		// The row stays pending either way.
		slog.Debug("finalize backend check failed", "file_id", id, "key", file.Key, "error", err)
		return false, nil
	}

	now := time.Now().UTC()
	file.SizeBytes = stat.SizeBytes
	file.Status = FileStatusUploaded
	file.UploadedAt = &now

	if err := s.repository.UpdateFile(ctx, file); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			// Lost the race with a concurrent delete; deleted is terminal.
			return false, nil
		}
		return false, &FileError{FileID: file.ID, Op: "finalize", Err: err}
	}

	return true, nil
}

func (s *service) GetFile(ctx context.Context, id uuid.UUID, tenantID string) (*StoredFile, error) {
	return s.repository.GetActiveFile(ctx, id, tenantID)
}

func (s *service) GetFileForOwner(ctx context.Context, id uuid.UUID, tenantID, ownerType, ownerID string) (*StoredFile, error) {
	normalized, err := normalizeOwnerType(ownerType)
	if err != nil {
		return nil, err
	}
	return s.repository.GetActiveFileForOwner(ctx, id, tenantID, normalized, ownerID)
}

func (s *service) ListFiles(ctx context.Context, req ListFilesRequest) (*PagedResult, error) {
	if req.Page < 1 || req.PageSize < 1 || req.PageSize > s.maxPageSize {
		return nil, ErrInvalidPagination
	}

	filters := ListFilesFilters{
		TenantID:    req.TenantID,
		OwnerType:   strings.ToLower(strings.TrimSpace(req.OwnerType)),
		OwnerID:     strings.TrimSpace(req.OwnerID),
		Category:    strings.TrimSpace(req.Category),
		ContentType: strings.TrimSpace(req.ContentType),
		Search:      strings.TrimSpace(req.Search),
	}

	total, err := s.repository.CountFiles(ctx, filters)
	if err != nil {
		return nil, err
	}

	items, err := s.repository.ListFilesPaged(ctx, filters, req.PageSize, (req.Page-1)*req.PageSize)
	if err != nil {
		return nil, err
	}

	return &PagedResult{
		Items:    items,
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    total,
	}, nil
}

func (s *service) UpdateMetadata(ctx context.Context, id uuid.UUID, tenantID string, req UpdateFileRequest) (bool, error) {
	file, err := s.repository.GetActiveFile(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return false, nil
		}
		return false, err
	}

	if strings.TrimSpace(req.NewFileName) != "" {
		// The object key keeps the original name; only the display name moves.
		file.FileName = objectkey.SanitizeFileName(req.NewFileName)
	}
	// Replaces verbatim, including clearing an existing description when the
	// caller passes none.
	file.Description = req.Description

	now := time.Now().UTC()
	file.UpdatedAt = &now

	if err := s.repository.UpdateFile(ctx, file); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return false, nil
		}
		return false, &FileError{FileID: file.ID, Op: "update_metadata", Err: err}
	}

	return true, nil
}

func (s *service) DeleteFile(ctx context.Context, id uuid.UUID, tenantID string) (bool, error) {
	file, err := s.repository.GetActiveFile(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return false, nil
		}
		return false, err
	}

	now := time.Now().UTC()
	file.Status = FileStatusDeleted
	file.DeletedAt = &now

	// The metadata transition is authoritative and commits first; object
	// removal is scheduled afterwards and never rolls it back.
	if err := s.repository.UpdateFile(ctx, file); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			// Another delete won the race; its cleanup covers the object.
			return false, nil
		}
		return false, &FileError{FileID: file.ID, Op: "delete", Err: err}
	}

	if err := s.cleanup.Enqueue(ctx, file.Key); err != nil {
		slog.Warn("object cleanup not scheduled", "file_id", id, "key", file.Key, "error", err)
	}

	return true, nil
}

func (s *service) GetDownloadURL(ctx context.Context, id uuid.UUID, tenantID string) (string, error) {
	file, err := s.repository.GetFile(ctx, id, tenantID)
	if err != nil {
		return "", err
	}
	if file.Status != FileStatusUploaded {
		// Pending and deleted files are never downloadable.
		return "", ErrFileNotFound
	}

	disposition := fmt.Sprintf("attachment; filename=%q", file.FileName)
	url, err := s.objectStore.PresignDownload(ctx, file.Key, s.downloadTTL, file.ContentType, disposition)
	if err != nil {
		return "", &StorageError{Key: file.Key, Op: "presign_download", Err: err}
	}

	return url, nil
}

func normalizeOwnerType(ownerType string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(ownerType))
	switch normalized {
	case OwnerTypeUser, OwnerTypeTenant:
		return normalized, nil
	default:
		return "", ErrInvalidOwnerType
	}
}
