package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"inventory-backend/internal/domains/itemimport/model"
	"inventory-backend/internal/domains/itemimport/service"
	"inventory-backend/internal/shared/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) ImportFile(ctx context.Context, in service.ImportInput) (*model.ImportReport, error) {
	// đọc content để test có thể assert nội dung file
	data, _ := io.ReadAll(in.Content)
	args := m.Called(in.FileName, string(data), in.DryRun)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportReport), args.Error(1)
}

func (m *MockImportService) CreateAsyncJob(ctx context.Context, userID string, in service.ImportInput) (*model.BulkImportJob, error) {
	args := m.Called(userID, in.FileName, in.DryRun)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BulkImportJob), args.Error(1)
}

func (m *MockImportService) GetJob(ctx context.Context, userID, jobID string) (*model.BulkImportJob, error) {
	args := m.Called(userID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BulkImportJob), args.Error(1)
}

func (m *MockImportService) ListJobs(ctx context.Context, userID string, page, limit int) ([]*model.BulkImportJob, error) {
	args := m.Called(userID, page, limit)
	return args.Get(0).([]*model.BulkImportJob), args.Error(1)
}

const adminID = "3f1d5c1e-8f5a-4a64-9a43-6b0c1a2b3c4d"

func newRouter(svc ImportService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	admin := r.Group("/api/v1/admin")
	// giả lập AuthMiddleware
	admin.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, adminID)
		c.Set(middleware.ContextRole, middleware.RoleAdmin)
		c.Next()
	})
	NewImportHandler(svc).RegisterRoutes(admin)
	return r
}

func uploadRequest(t *testing.T, url, fileName, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestImport_Success(t *testing.T) {
	svc := new(MockImportService)
	svc.On("ImportFile", "items.csv", "barcode,name\n1,a\n", true).
		Return(&model.ImportReport{Success: true, ImportedCount: 1, DryRun: true}, nil)

	w := serve(newRouter(svc), uploadRequest(t, "/api/v1/admin/items/import?dry_run=true", "items.csv", "barcode,name\n1,a\n"))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["imported_count"])
	svc.AssertExpectations(t)
}

func TestImport_MissingFile(t *testing.T) {
	svc := new(MockImportService)

	w := serve(newRouter(svc), uploadRequest(t, "/api/v1/admin/items/import", "", ""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "ImportFile", mock.Anything, mock.Anything, mock.Anything)
}

func TestImport_InvalidDryRun(t *testing.T) {
	svc := new(MockImportService)

	w := serve(newRouter(svc), uploadRequest(t, "/api/v1/admin/items/import?dry_run=maybe", "items.csv", "x"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImport_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		report *model.ImportReport
		status int
	}{
		{"too large", fmt.Errorf("%w: limit", model.ErrFileTooLarge), nil, http.StatusRequestEntityTooLarge},
		{"unsupported", model.ErrUnsupportedFile, nil, http.StatusUnsupportedMediaType},
		{"legacy excel", model.ErrLegacyExcel, nil, http.StatusUnsupportedMediaType},
		{"in progress", model.ErrImportInProgress, nil, http.StatusConflict},
		{"missing columns", &model.MissingRequiredColumnsError{Missing: []string{"barcode"}, Headers: []string{"sku"}}, &model.ImportReport{}, http.StatusUnprocessableEntity},
		{"ingest", fmt.Errorf("%w: bad", model.ErrIngestFailure), &model.ImportReport{}, http.StatusUnprocessableEntity},
		{"cancelled", model.ErrImportCancelled, &model.ImportReport{}, http.StatusServiceUnavailable},
		{"commit", fmt.Errorf("%w: reset", model.ErrCommitFailed), &model.ImportReport{ImportedCount: 100}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockImportService)
			svc.On("ImportFile", "items.csv", "data", false).Return(tt.report, tt.err)

			w := serve(newRouter(svc), uploadRequest(t, "/api/v1/admin/items/import", "items.csv", "data"))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, false, decodeBody(t, w)["success"])
		})
	}
}

func TestImport_MissingColumnsDetails(t *testing.T) {
	svc := new(MockImportService)
	svc.On("ImportFile", "items.csv", "sku\n", false).Return(&model.ImportReport{},
		&model.MissingRequiredColumnsError{Missing: []string{"barcode", "name"}, Headers: []string{"sku"}})

	w := serve(newRouter(svc), uploadRequest(t, "/api/v1/admin/items/import", "items.csv", "sku\n"))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errBody := decodeBody(t, w)["error"].(map[string]interface{})
	details := errBody["details"].(map[string]interface{})
	assert.Equal(t, []interface{}{"barcode", "name"}, details["missing"])
}

func TestImportAsync_Accepted(t *testing.T) {
	svc := new(MockImportService)
	svc.On("CreateAsyncJob", adminID, "items.xlsx", false).
		Return(&model.BulkImportJob{ID: "job-1", Status: model.JobStatusPending}, nil)

	w := serve(newRouter(svc), uploadRequest(t, "/api/v1/admin/items/import/async", "items.xlsx", "PK"))

	assert.Equal(t, http.StatusAccepted, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "job-1", data["id"])
}

func TestGetJob(t *testing.T) {
	svc := new(MockImportService)
	svc.On("GetJob", adminID, "job-1").Return(&model.BulkImportJob{ID: "job-1"}, nil)
	svc.On("GetJob", adminID, "job-2").Return(nil, model.ErrJobNotFound)
	svc.On("GetJob", adminID, "job-3").Return(nil, model.ErrJobForbidden)
	r := newRouter(svc)

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/items/import/jobs/job-1", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/items/import/jobs/job-2", nil)).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/items/import/jobs/job-3", nil)).Code)
}

func TestListJobs(t *testing.T) {
	svc := new(MockImportService)
	svc.On("ListJobs", adminID, 2, 10).Return([]*model.BulkImportJob{{ID: "a"}}, nil)

	w := serve(newRouter(svc), httptest.NewRequest(http.MethodGet, "/api/v1/admin/items/import/jobs?page=2&limit=10", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	meta := decodeBody(t, w)["meta"].(map[string]interface{})
	assert.Equal(t, float64(2), meta["page"])
}
