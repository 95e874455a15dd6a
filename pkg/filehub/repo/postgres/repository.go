package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/filehub/filehub/pkg/filehub"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements filehub.Repository using PostgreSQL. The singleton
// invariant is enforced by the partial unique index on
// (tenant_id, owner_type, owner_id, category) over non-deleted rows, so two
// concurrent creates cannot both commit.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const fileColumns = `id, tenant_id, owner_type, owner_id, COALESCE(category, ''),
	object_key, file_name, content_type, size_bytes,
	COALESCE(created_by_user_id, ''), created_at, uploaded_at, updated_at, deleted_at,
	metadata, COALESCE(description, ''), status`

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "owner_category") {
				return filehub.ErrCategoryConflict
			}
			return fmt.Errorf("duplicate entry")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return filehub.ErrFileNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreateFile(ctx context.Context, file *filehub.StoredFile) error {
	query := `
		INSERT INTO stored_files (
			id, tenant_id, owner_type, owner_id, category,
			object_key, file_name, content_type, size_bytes,
			created_by_user_id, created_at, metadata, description, status
		) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, NULLIF($10, ''), $11, $12, NULLIF($13, ''), $14)`

	_, err := r.db.Exec(ctx, query,
		file.ID, file.TenantID, file.OwnerType, file.OwnerID, file.Category,
		file.Key, file.FileName, file.ContentType, file.SizeBytes,
		file.CreatedByUserID, file.CreatedAt, file.Metadata, file.Description, file.Status)

	if err != nil {
		return r.handlePostgresError("create file", err)
	}

	return nil
}

func (r *Repository) UpdateFile(ctx context.Context, file *filehub.StoredFile) error {
	// Deleted is terminal: the status guard keeps a concurrent delete that
	// committed after the caller's read from being overwritten.
	query := `
		UPDATE stored_files SET
			file_name = $3, content_type = $4, size_bytes = $5,
			uploaded_at = $6, updated_at = $7, deleted_at = $8,
			metadata = $9, description = NULLIF($10, ''), status = $11
		WHERE id = $1 AND tenant_id = $2 AND status <> $12`

	tag, err := r.db.Exec(ctx, query,
		file.ID, file.TenantID,
		file.FileName, file.ContentType, file.SizeBytes,
		file.UploadedAt, file.UpdatedAt, file.DeletedAt,
		file.Metadata, file.Description, file.Status,
		filehub.FileStatusDeleted)

	if err != nil {
		return r.handlePostgresError("update file", err)
	}
	if tag.RowsAffected() == 0 {
		return filehub.ErrFileNotFound
	}

	return nil
}

func (r *Repository) GetFile(ctx context.Context, id uuid.UUID, tenantID string) (*filehub.StoredFile, error) {
	query := `SELECT ` + fileColumns + `
		FROM stored_files WHERE id = $1 AND tenant_id = $2`

	return r.scanFile(r.db.QueryRow(ctx, query, id, tenantID), "get file")
}

func (r *Repository) GetActiveFile(ctx context.Context, id uuid.UUID, tenantID string) (*filehub.StoredFile, error) {
	query := `SELECT ` + fileColumns + `
		FROM stored_files WHERE id = $1 AND tenant_id = $2 AND status <> $3`

	return r.scanFile(r.db.QueryRow(ctx, query, id, tenantID, filehub.FileStatusDeleted), "get active file")
}

func (r *Repository) GetActiveFileForOwner(ctx context.Context, id uuid.UUID, tenantID, ownerType, ownerID string) (*filehub.StoredFile, error) {
	query := `SELECT ` + fileColumns + `
		FROM stored_files
		WHERE id = $1 AND tenant_id = $2 AND owner_type = $3 AND owner_id = $4 AND status <> $5`

	return r.scanFile(r.db.QueryRow(ctx, query, id, tenantID, ownerType, ownerID, filehub.FileStatusDeleted), "get active file for owner")
}

func (r *Repository) CountFiles(ctx context.Context, filters filehub.ListFilesFilters) (int, error) {
	where, args := buildFilter(filters)
	query := `SELECT COUNT(*) FROM stored_files ` + where

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, r.handlePostgresError("count files", err)
	}

	return count, nil
}

func (r *Repository) ListFilesPaged(ctx context.Context, filters filehub.ListFilesFilters, limit, offset int) ([]*filehub.StoredFile, error) {
	where, args := buildFilter(filters)
	query := fmt.Sprintf(`SELECT `+fileColumns+`
		FROM stored_files %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list files", err)
	}
	defer rows.Close()

	var files []*filehub.StoredFile
	for rows.Next() {
		file, err := r.scanFile(rows, "scan file")
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("iterate file rows", err)
	}

	return files, nil
}

// buildFilter assembles the shared predicate for listing and counting.
// Optional filters apply only when non-blank; absence means no filter.
func buildFilter(filters filehub.ListFilesFilters) (string, []interface{}) {
	conds := []string{"tenant_id = $1", "status <> $2"}
	args := []interface{}{filters.TenantID, filehub.FileStatusDeleted}

	add := func(cond string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filters.OwnerType != "" {
		add("owner_type = $%d", filters.OwnerType)
	}
	if filters.OwnerID != "" {
		add("owner_id = $%d", filters.OwnerID)
	}
	if filters.Category != "" {
		add("category = $%d", filters.Category)
	}
	if filters.ContentType != "" {
		add("content_type = $%d", filters.ContentType)
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(file_name ILIKE $%d OR COALESCE(description, '') ILIKE $%d)", n, n))
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *Repository) scanFile(row pgx.Row, operation string) (*filehub.StoredFile, error) {
	var file filehub.StoredFile
	err := row.Scan(
		&file.ID, &file.TenantID, &file.OwnerType, &file.OwnerID, &file.Category,
		&file.Key, &file.FileName, &file.ContentType, &file.SizeBytes,
		&file.CreatedByUserID, &file.CreatedAt, &file.UploadedAt, &file.UpdatedAt, &file.DeletedAt,
		&file.Metadata, &file.Description, &file.Status)

	if err != nil {
		return nil, r.handlePostgresError(operation, err)
	}

	return &file, nil
}
