package handler

import (
	"errors"
	"net/http"

	"github.com/examtrack/examtrack-backend/internal/response"
	"github.com/examtrack/examtrack-backend/internal/service"
	"github.com/examtrack/examtrack-backend/internal/spreadsheet"
	"github.com/gin-gonic/gin"
)

// IngestHandler handles bulk score workbook imports.
type IngestHandler struct {
	ingestService *service.IngestService
	maxUpload     int64
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestService *service.IngestService, maxUpload int64) *IngestHandler {
	return &IngestHandler{ingestService: ingestService, maxUpload: maxUpload}
}

// ImportScores godoc
// POST /api/v1/admin/scores/import
// Accepts an xlsx workbook (multipart field "file") and applies it as one
// all-or-nothing batch. A rejected batch reports the offending row/column
// or the full list of unknown student IDs.
func (h *IngestHandler) ImportScores(c *gin.Context) {
	file, ok := openWorkbookUpload(c, h.maxUpload)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.ingestService.ImportScores(c.Request.Context(), file)
	if err != nil {
		if failBatch(c, err) {
			return
		}
		if errors.Is(err, spreadsheet.ErrBadWorkbook) || errors.Is(err, spreadsheet.ErrNoSheet) {
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, result)
}
