package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"inventory-backend/internal/domains/itemimport/model"
	"inventory-backend/internal/domains/itemimport/service"
	"inventory-backend/internal/shared/middleware"
	"inventory-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ImportService là các operation handler cần (implement bởi *service.ImportService)
type ImportService interface {
	ImportFile(ctx context.Context, in service.ImportInput) (*model.ImportReport, error)
	CreateAsyncJob(ctx context.Context, userID string, in service.ImportInput) (*model.BulkImportJob, error)
	GetJob(ctx context.Context, userID, jobID string) (*model.BulkImportJob, error)
	ListJobs(ctx context.Context, userID string, page, limit int) ([]*model.BulkImportJob, error)
}

type ImportHandler struct {
	service ImportService
}

// NewImportHandler tạo handler mới
func NewImportHandler(service ImportService) *ImportHandler {
	return &ImportHandler{service: service}
}

// RegisterRoutes gắn routes vào group đã có Auth + Admin middleware
func (h *ImportHandler) RegisterRoutes(admin *gin.RouterGroup) {
	items := admin.Group("/items")
	{
		items.POST("/import", h.Import)
		items.POST("/import/async", h.ImportAsync)
		items.GET("/import/jobs", h.ListJobs)
		items.GET("/import/jobs/:id", h.GetJob)
	}
}

// Import - POST /v1/admin/items/import?dry_run=true
// Chạy sync, trả ImportReport
func (h *ImportHandler) Import(c *gin.Context) {
	in, src, ok := h.readInput(c)
	if !ok {
		return
	}
	defer src.Close()

	log.Info().
		Str("user_id", c.GetString(middleware.ContextUserID)).
		Str("file_name", in.FileName).
		Bool("dry_run", in.DryRun).
		Msg("[ImportHandler] Received catalog import request")

	report, err := h.service.ImportFile(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err, report)
		return
	}

	response.Success(c, http.StatusOK, report)
}

// ImportAsync - POST /v1/admin/items/import/async
// Stage file, trả job (202), worker xử lý sau
func (h *ImportHandler) ImportAsync(c *gin.Context) {
	in, src, ok := h.readInput(c)
	if !ok {
		return
	}
	defer src.Close()

	job, err := h.service.CreateAsyncJob(c.Request.Context(), c.GetString(middleware.ContextUserID), in)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}

	response.Success(c, http.StatusAccepted, job)
}

// GetJob - GET /v1/admin/items/import/jobs/:id
func (h *ImportHandler) GetJob(c *gin.Context) {
	job, err := h.service.GetJob(c.Request.Context(), c.GetString(middleware.ContextUserID), c.Param("id"))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	response.Success(c, http.StatusOK, job)
}

// ListJobs - GET /v1/admin/items/import/jobs?page=1&limit=20
func (h *ImportHandler) ListJobs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	jobs, err := h.service.ListJobs(c.Request.Context(), c.GetString(middleware.ContextUserID), page, limit)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, jobs, &response.Meta{Page: page, Limit: limit, Total: len(jobs)})
}

// readInput lấy file "file" (multipart) và query dry_run
func (h *ImportHandler) readInput(c *gin.Context) (service.ImportInput, io.Closer, bool) {
	dryRun := false
	if raw := c.Query("dry_run"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, "dry_run must be a boolean")
			return service.ImportInput{}, nil, false
		}
		dryRun = v
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required (multipart/form-data)")
		return service.ImportInput{}, nil, false
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		response.BadRequest(c, "uploaded file could not be read")
		return service.ImportInput{}, nil, false
	}
	return service.ImportInput{FileName: file.Filename, Content: src, DryRun: dryRun}, src, true
}

// writeError map lỗi service => HTTP status. Report (nếu có) đi kèm trong details.
func (h *ImportHandler) writeError(c *gin.Context, err error, report *model.ImportReport) {
	var missing *model.MissingRequiredColumnsError

	switch {
	case errors.Is(err, model.ErrFileRequired):
		response.BadRequest(c, err.Error())
	case errors.Is(err, model.ErrFileTooLarge):
		response.PayloadTooLarge(c, err.Error())
	case errors.Is(err, model.ErrUnsupportedFile), errors.Is(err, model.ErrLegacyExcel):
		response.UnsupportedMediaType(c, err.Error())
	case errors.Is(err, model.ErrImportInProgress):
		response.Conflict(c, err.Error())
	case errors.As(err, &missing):
		response.UnprocessableEntity(c, err.Error(), gin.H{
			"missing": missing.Missing,
			"headers": missing.Headers,
			"report":  report,
		})
	case errors.Is(err, model.ErrIngestFailure), errors.Is(err, model.ErrInvalidOptions):
		response.UnprocessableEntity(c, err.Error(), report)
	case errors.Is(err, model.ErrImportCancelled):
		response.ErrorWithDetails(c, http.StatusServiceUnavailable, "IMPORT_CANCELLED", err.Error(), report)
	case errors.Is(err, model.ErrJobNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, model.ErrJobForbidden):
		response.Forbidden(c, err.Error())
	default:
		log.Error().Err(err).Msg("Catalog import failed")
		response.ErrorWithDetails(c, http.StatusInternalServerError, "IMPORT_FAILED", err.Error(), report)
	}
}
