package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filehub/filehub/pkg/filehub"
	"github.com/filehub/filehub/pkg/filehub/repo/memory"
	memorystorage "github.com/filehub/filehub/pkg/filehub/storage/memory"
)

// setupFilesHandlerTest mounts a FilesHandler under a tenant route the way
// the server does, backed by in-memory implementations.
func setupFilesHandlerTest(t *testing.T) (chi.Router, filehub.Service, *memorystorage.Backend) {
	t.Helper()

	store := memorystorage.New()
	service, err := filehub.New(
		filehub.WithRepository(memory.New()),
		filehub.WithObjectStore(store),
	)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Mount("/tenants/{tenantID}/files", NewFilesHandler(service).Routes())
	return router, service, store
}

func doJSON(t *testing.T, router chi.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestFilesHandler_InitUpload_Success(t *testing.T) {
	router, _, _ := setupFilesHandlerTest(t)

	w := doJSON(t, router, http.MethodPost, "/tenants/acme/files", InitUploadRequest{
		OwnerType: "user",
		OwnerID:   "42",
		FileName:  "cv.pdf",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp InitUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.NotEmpty(t, resp.UploadURL)
	assert.Contains(t, resp.Key, "tenants/acme/user/42/")
}

func TestFilesHandler_InitUpload_Validation(t *testing.T) {
	router, _, _ := setupFilesHandlerTest(t)

	w := doJSON(t, router, http.MethodPost, "/tenants/acme/files", InitUploadRequest{
		OwnerType: "user",
		OwnerID:   "42",
		FileName:  "",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/tenants/acme/files", InitUploadRequest{
		OwnerType: "group",
		OwnerID:   "42",
		FileName:  "a.txt",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFilesHandler_InitUpload_CategoryConflict(t *testing.T) {
	router, _, _ := setupFilesHandlerTest(t)

	body := InitUploadRequest{
		OwnerType: "user",
		OwnerID:   "42",
		Category:  "avatar",
		FileName:  "a.png",
	}
	w := doJSON(t, router, http.MethodPost, "/tenants/acme/files", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/tenants/acme/files", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFilesHandler_InitUpload_CallerRecorded(t *testing.T) {
	router, service, _ := setupFilesHandlerTest(t)

	b, err := json.Marshal(InitUploadRequest{
		OwnerType: "user",
		OwnerID:   "42",
		FileName:  "a.txt",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/tenants/acme/files", bytes.NewReader(b))
	req = req.WithContext(WithCallerID(req.Context(), "u-77"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp InitUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	file, err := service.GetFile(context.Background(), uuid.MustParse(resp.ID), "acme")
	require.NoError(t, err)
	assert.Equal(t, "u-77", file.CreatedByUserID)
}

func TestFilesHandler_Finalize(t *testing.T) {
	router, _, store := setupFilesHandlerTest(t)

	w := doJSON(t, router, http.MethodPost, "/tenants/acme/files", InitUploadRequest{
		OwnerType: "user",
		OwnerID:   "42",
		FileName:  "doc.pdf",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created InitUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Before the object exists, finalize reports false
	w = doJSON(t, router, http.MethodPost, "/tenants/acme/files/"+created.ID+"/finalize", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fin FinalizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fin))
	assert.False(t, fin.Uploaded)

	store.Put(created.Key, []byte("data"), "application/pdf")

	w = doJSON(t, router, http.MethodPost, "/tenants/acme/files/"+created.ID+"/finalize", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fin))
	assert.True(t, fin.Uploaded)
}

func TestFilesHandler_GetFile(t *testing.T) {
	router, _, _ := setupFilesHandlerTest(t)

	w := doJSON(t, router, http.MethodPost, "/tenants/acme/files", InitUploadRequest{
		OwnerType: "user",
		OwnerID:   "42",
		FileName:  "doc.pdf",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created InitUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodGet, "/tenants/acme/files/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var file FileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &file))
	assert.Equal(t, "doc.pdf", file.FileName)
	assert.Equal(t, "pending", file.Status)

	// Wrong tenant
	w = doJSON(t, router, http.MethodGet, "/tenants/other/files/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Owner-exact lookup
	w = doJSON(t, router, http.MethodGet, "/tenants/acme/files/"+created.ID+"?owner_type=user&owner_id=42", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/tenants/acme/files/"+created.ID+"?owner_type=user&owner_id=99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Malformed id
	w = doJSON(t, router, http.MethodGet, "/tenants/acme/files/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFilesHandler_ListFiles(t *testing.T) {
	router, _, _ := setupFilesHandlerTest(t)

	for i := 0; i < 3; i++ {
		w := doJSON(t, router, http.MethodPost, "/tenants/acme/files", InitUploadRequest{
			OwnerType: "user",
			OwnerID:   "42",
			FileName:  fmt.Sprintf("file-%d.txt", i),
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/tenants/acme/files?page=1&page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp ListFilesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Len(t, resp.Items, 2)

	w = doJSON(t, router, http.MethodGet, "/tenants/acme/files?search=file-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)

	w = doJSON(t, router, http.MethodGet, "/tenants/acme/files?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/tenants/acme/files?page_size=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFilesHandler_UpdateFile(t *testing.T) {
	router, _, _ := setupFilesHandlerTest(t)

	w := doJSON(t, router, http.MethodPost, "/tenants/acme/files", InitUploadRequest{
		OwnerType: "user",
		OwnerID:   "42",
		FileName:  "old.txt",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created InitUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodPatch, "/tenants/acme/files/"+created.ID, UpdateFileRequest{
		NewFileName: "new.txt",
		Description: "renamed",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var file FileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &file))
	assert.Equal(t, "new.txt", file.FileName)
	assert.Equal(t, "renamed", file.Description)

	w = doJSON(t, router, http.MethodPatch, "/tenants/acme/files/"+uuid.NewString(), UpdateFileRequest{
		Description: "nobody home",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFilesHandler_DeleteFile(t *testing.T) {
	router, _, _ := setupFilesHandlerTest(t)

	w := doJSON(t, router, http.MethodPost, "/tenants/acme/files", InitUploadRequest{
		OwnerType: "user",
		OwnerID:   "42",
		FileName:  "doc.txt",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created InitUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodDelete, "/tenants/acme/files/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp DeleteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Deleted)

	w = doJSON(t, router, http.MethodDelete, "/tenants/acme/files/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Deleted)
}

func TestFilesHandler_DownloadURL(t *testing.T) {
	router, _, store := setupFilesHandlerTest(t)

	w := doJSON(t, router, http.MethodPost, "/tenants/acme/files", InitUploadRequest{
		OwnerType:   "user",
		OwnerID:     "42",
		FileName:    "photo.jpg",
		ContentType: "image/jpeg",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created InitUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Not uploaded yet: not downloadable
	w = doJSON(t, router, http.MethodGet, "/tenants/acme/files/"+created.ID+"/download-url", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	store.Put(created.Key, []byte("jpeg"), "image/jpeg")
	w = doJSON(t, router, http.MethodPost, "/tenants/acme/files/"+created.ID+"/finalize", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/tenants/acme/files/"+created.ID+"/download-url", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp DownloadURLResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.DownloadURL)
}
