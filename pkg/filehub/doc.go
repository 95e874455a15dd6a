// Package filehub tracks ownership, access, and lifecycle of files whose
// bytes live in an external object-storage backend. Clients upload and
// download directly against presigned, time-limited URLs; the service never
// proxies bytes.
//
// It exposes a single Service interface covering the file lifecycle
// (init-upload, finalize, update, soft delete, download URL) and
// tenant-scoped paginated queries. Implementations of the metadata
// repository (memory, Postgres) and the object store (memory, S3, MinIO)
// are provided under subpackages.
//
// Lifecycle
//
// A file is created pending by InitUpload, promoted to uploaded by Finalize
// once the backend confirms the object exists (the backend-reported size is
// authoritative), and soft-deleted by DeleteFile. Deleted is terminal; rows
// are never hard-deleted. For a categorized file, at most one non-deleted
// row may exist per (tenant, owner type, owner id, category); the store
// enforces this atomically.
package filehub
