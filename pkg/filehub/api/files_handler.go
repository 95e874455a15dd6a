package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/filehub/filehub/pkg/filehub"
)

// FilesHandler handles HTTP requests for stored files using pkg/filehub
type FilesHandler struct {
	service filehub.Service
}

// NewFilesHandler creates a new files handler
func NewFilesHandler(service filehub.Service) *FilesHandler {
	return &FilesHandler{service: service}
}

// Routes returns the routes for files, mounted under a tenant prefix that
// provides the {tenantID} URL parameter.
func (h *FilesHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.InitUpload)
	r.Get("/", h.ListFiles)
	r.Get("/{id}", h.GetFile)
	r.Post("/{id}/finalize", h.Finalize)
	r.Patch("/{id}", h.UpdateFile)
	r.Delete("/{id}", h.DeleteFile)
	r.Get("/{id}/download-url", h.GetDownloadURL)

	return r
}

// InitUploadRequest is the request body for registering a new upload
type InitUploadRequest struct {
	OwnerType         string                 `json:"owner_type"`
	OwnerID           string                 `json:"owner_id"`
	Category          string                 `json:"category,omitempty"`
	FileName          string                 `json:"file_name"`
	ContentType       string                 `json:"content_type,omitempty"`
	ExpectedSizeBytes int64                  `json:"expected_size_bytes,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// InitUploadResponse is the response body for a registered upload
type InitUploadResponse struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileResponse is the response body for a stored file
type FileResponse struct {
	ID              string                 `json:"id"`
	TenantID        string                 `json:"tenant_id"`
	OwnerType       string                 `json:"owner_type"`
	OwnerID         string                 `json:"owner_id"`
	Category        string                 `json:"category,omitempty"`
	FileName        string                 `json:"file_name"`
	ContentType     string                 `json:"content_type"`
	SizeBytes       int64                  `json:"size_bytes"`
	Description     string                 `json:"description,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	Status          string                 `json:"status"`
	CreatedByUserID string                 `json:"created_by_user_id,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UploadedAt      *time.Time             `json:"uploaded_at,omitempty"`
	UpdatedAt       *time.Time             `json:"updated_at,omitempty"`
}

// ListFilesResponse is the response body for a file listing page
type ListFilesResponse struct {
	Items    []*FileResponse `json:"items"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int             `json:"total"`
}

// UpdateFileRequest is the request body for updating file metadata
type UpdateFileRequest struct {
	NewFileName string `json:"new_file_name,omitempty"`
	Description string `json:"description"`
}

// FinalizeResponse reports whether the upload was confirmed
type FinalizeResponse struct {
	Uploaded bool `json:"uploaded"`
}

// DeleteResponse reports whether a file was deleted by this call
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// DownloadURLResponse carries a presigned download URL
type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

func toFileResponse(f *filehub.StoredFile) *FileResponse {
	return &FileResponse{
		ID:              f.ID.String(),
		TenantID:        f.TenantID,
		OwnerType:       f.OwnerType,
		OwnerID:         f.OwnerID,
		Category:        f.Category,
		FileName:        f.FileName,
		ContentType:     f.ContentType,
		SizeBytes:       f.SizeBytes,
		Description:     f.Description,
		Metadata:        f.Metadata,
		Status:          string(f.Status),
		CreatedByUserID: f.CreatedByUserID,
		CreatedAt:       f.CreatedAt,
		UploadedAt:      f.UploadedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// writeServiceError maps service errors to HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	var storageErr *filehub.StorageError

	switch {
	case errors.Is(err, filehub.ErrFileNotFound):
		http.Error(w, "File not found", http.StatusNotFound)
	case errors.Is(err, filehub.ErrCategoryConflict):
		http.Error(w, "An active file already exists for this owner and category", http.StatusConflict)
	case errors.Is(err, filehub.ErrFileNameRequired),
		errors.Is(err, filehub.ErrInvalidOwnerType),
		errors.Is(err, filehub.ErrInvalidPagination):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &storageErr):
		slog.Error("Storage operation failed", "key", storageErr.Key, "op", storageErr.Op, "error", err)
		http.Error(w, "Storage operation failed", http.StatusBadGateway)
	default:
		slog.Error("Unexpected service error", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func fileID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid file ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// InitUpload registers a new pending file and returns a presigned upload URL
func (h *FilesHandler) InitUpload(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req InitUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.InitUpload(r.Context(), filehub.InitUploadRequest{
		TenantID:          tenantID,
		CreatedByUserID:   CallerID(r.Context()),
		OwnerType:         req.OwnerType,
		OwnerID:           req.OwnerID,
		Category:          req.Category,
		FileName:          req.FileName,
		ContentType:       req.ContentType,
		ExpectedSizeBytes: req.ExpectedSizeBytes,
		Metadata:          req.Metadata,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, InitUploadResponse{
		ID:        result.ID.String(),
		Key:       result.Key,
		UploadURL: result.UploadURL,
		ExpiresAt: result.ExpiresAt,
	})
}

// Finalize confirms that the client completed its upload
func (h *FilesHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	uploaded, err := h.service.Finalize(r.Context(), id, tenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	render.JSON(w, r, FinalizeResponse{Uploaded: uploaded})
}

// GetFile returns a single active file. When owner_type and owner_id query
// parameters are present the lookup additionally requires an exact owner
// match.
func (h *FilesHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	var (
		file *filehub.StoredFile
		err  error
	)
	ownerType := r.URL.Query().Get("owner_type")
	ownerID := r.URL.Query().Get("owner_id")
	if ownerType != "" || ownerID != "" {
		file, err = h.service.GetFileForOwner(r.Context(), id, tenantID, ownerType, ownerID)
	} else {
		file, err = h.service.GetFile(r.Context(), id, tenantID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	render.JSON(w, r, toFileResponse(file))
}

// ListFiles returns a page of active files for the tenant
func (h *FilesHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	q := r.URL.Query()

	page := 1
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid page", http.StatusBadRequest)
			return
		}
		page = n
	}
	pageSize := 20
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid page_size", http.StatusBadRequest)
			return
		}
		pageSize = n
	}

	result, err := h.service.ListFiles(r.Context(), filehub.ListFilesRequest{
		TenantID:    tenantID,
		OwnerType:   q.Get("owner_type"),
		OwnerID:     q.Get("owner_id"),
		Category:    q.Get("category"),
		ContentType: q.Get("content_type"),
		Search:      q.Get("search"),
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]*FileResponse, 0, len(result.Items))
	for _, f := range result.Items {
		items = append(items, toFileResponse(f))
	}

	render.JSON(w, r, ListFilesResponse{
		Items:    items,
		Page:     result.Page,
		PageSize: result.PageSize,
		Total:    result.Total,
	})
}

// UpdateFile renames a file and/or replaces its description
func (h *FilesHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	var req UpdateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateMetadata(r.Context(), id, tenantID, filehub.UpdateFileRequest{
		NewFileName: req.NewFileName,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !updated {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	file, err := h.service.GetFile(r.Context(), id, tenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	render.JSON(w, r, toFileResponse(file))
}

// DeleteFile soft-deletes a file and schedules removal of its object
func (h *FilesHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteFile(r.Context(), id, tenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	render.JSON(w, r, DeleteResponse{Deleted: deleted})
}

// GetDownloadURL returns a presigned download URL for an uploaded file
func (h *FilesHandler) GetDownloadURL(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	url, err := h.service.GetDownloadURL(r.Context(), id, tenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	render.JSON(w, r, DownloadURLResponse{DownloadURL: url})
}
