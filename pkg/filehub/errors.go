package filehub

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrFileNotFound indicates the file is absent, belongs to a different
	// tenant or owner, or is already deleted.
	ErrFileNotFound = errors.New("file not found")

	// ErrFileNameRequired indicates an empty or blank file name.
	ErrFileNameRequired = errors.New("file name is required")

	// ErrInvalidOwnerType indicates an owner type outside {user, tenant}.
	ErrInvalidOwnerType = errors.New("owner type must be \"user\" or \"tenant\"")

	// ErrInvalidPagination indicates a non-positive page/pageSize or a
	// pageSize above the configured maximum.
	ErrInvalidPagination = errors.New("invalid pagination parameters")

	// ErrCategoryConflict indicates an active file already exists for the
	// same (tenant, owner type, owner id, category).
	ErrCategoryConflict = errors.New("an active file already exists for this owner and category")

	// ErrObjectNotFound indicates the object-storage backend has no object
	// at the requested key.
	ErrObjectNotFound = errors.New("object not found")
)

// FileError represents an error related to file lifecycle operations
type FileError struct {
	FileID uuid.UUID
	Op     string
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file operation %s failed for file %s: %v", e.Op, e.FileID, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to object-storage operations
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
