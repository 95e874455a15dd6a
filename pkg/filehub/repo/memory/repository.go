package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/filehub/filehub/pkg/filehub"
)

// Repository implements filehub.Repository using in-memory storage
type Repository struct {
	mu    sync.RWMutex
	files map[uuid.UUID]*filehub.StoredFile
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		files: make(map[uuid.UUID]*filehub.StoredFile),
	}
}

func (r *Repository) CreateFile(ctx context.Context, file *filehub.StoredFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Singleton invariant: one active file per (tenant, owner, category).
	// Enforced under the write lock, matching the partial unique index the
	// Postgres repository relies on.
	if file.Category != "" {
		for _, existing := range r.files {
			if existing.Status != filehub.FileStatusDeleted &&
				existing.TenantID == file.TenantID &&
				existing.OwnerType == file.OwnerType &&
				existing.OwnerID == file.OwnerID &&
				existing.Category == file.Category {
				return filehub.ErrCategoryConflict
			}
		}
	}

	// Store a copy to avoid external modifications
	r.files[file.ID] = copyFile(file)

	return nil
}

// copyFile clones a stored file, including the metadata map, so neither side
// can mutate the other's state through shared references.
func copyFile(file *filehub.StoredFile) *filehub.StoredFile {
	fileCopy := *file
	if file.Metadata != nil {
		fileCopy.Metadata = make(map[string]interface{}, len(file.Metadata))
		for k, v := range file.Metadata {
			fileCopy.Metadata[k] = v
		}
	}
	return &fileCopy
}

func (r *Repository) UpdateFile(ctx context.Context, file *filehub.StoredFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.files[file.ID]
	if !exists {
		return filehub.ErrFileNotFound
	}
	// Deleted is terminal; a row that went deleted after the caller's read
	// must not be resurrected.
	if existing.Status == filehub.FileStatusDeleted {
		return filehub.ErrFileNotFound
	}

	r.files[file.ID] = copyFile(file)

	return nil
}

func (r *Repository) GetFile(ctx context.Context, id uuid.UUID, tenantID string) (*filehub.StoredFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file, exists := r.files[id]
	if !exists || file.TenantID != tenantID {
		return nil, filehub.ErrFileNotFound
	}

	return copyFile(file), nil
}

func (r *Repository) GetActiveFile(ctx context.Context, id uuid.UUID, tenantID string) (*filehub.StoredFile, error) {
	file, err := r.GetFile(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if file.Status == filehub.FileStatusDeleted {
		return nil, filehub.ErrFileNotFound
	}
	return file, nil
}

func (r *Repository) GetActiveFileForOwner(ctx context.Context, id uuid.UUID, tenantID, ownerType, ownerID string) (*filehub.StoredFile, error) {
	file, err := r.GetActiveFile(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if file.OwnerType != ownerType || file.OwnerID != ownerID {
		return nil, filehub.ErrFileNotFound
	}
	return file, nil
}

func (r *Repository) CountFiles(ctx context.Context, filters filehub.ListFilesFilters) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, file := range r.files {
		if matches(file, filters) {
			count++
		}
	}

	return count, nil
}

func (r *Repository) ListFilesPaged(ctx context.Context, filters filehub.ListFilesFilters, limit, offset int) ([]*filehub.StoredFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*filehub.StoredFile
	for _, file := range r.files {
		if matches(file, filters) {
			result = append(result, copyFile(file))
		}
	}

	// Newest first; ties broken by id to keep pagination stable.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	if offset >= len(result) {
		return []*filehub.StoredFile{}, nil
	}
	result = result[offset:]

	if limit < len(result) {
		result = result[:limit]
	}

	return result, nil
}

func matches(file *filehub.StoredFile, filters filehub.ListFilesFilters) bool {
	if file.TenantID != filters.TenantID || file.Status == filehub.FileStatusDeleted {
		return false
	}
	if filters.OwnerType != "" && file.OwnerType != filters.OwnerType {
		return false
	}
	if filters.OwnerID != "" && file.OwnerID != filters.OwnerID {
		return false
	}
	if filters.Category != "" && file.Category != filters.Category {
		return false
	}
	if filters.ContentType != "" && file.ContentType != filters.ContentType {
		return false
	}
	if filters.Search != "" {
		needle := strings.ToLower(filters.Search)
		if !strings.Contains(strings.ToLower(file.FileName), needle) &&
			!strings.Contains(strings.ToLower(file.Description), needle) {
			return false
		}
	}
	return true
}
