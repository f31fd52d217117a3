package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/examtrack/examtrack-backend/internal/repository"
	"github.com/examtrack/examtrack-backend/internal/response"
	"github.com/examtrack/examtrack-backend/internal/service"
	"github.com/examtrack/examtrack-backend/internal/spreadsheet"
	"github.com/examtrack/examtrack-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// ScholarshipHandler handles scholarship disbursement endpoints.
type ScholarshipHandler struct {
	scholarshipService *service.ScholarshipService
	maxUpload          int64
}

// NewScholarshipHandler creates a new ScholarshipHandler.
func NewScholarshipHandler(scholarshipService *service.ScholarshipService, maxUpload int64) *ScholarshipHandler {
	return &ScholarshipHandler{scholarshipService: scholarshipService, maxUpload: maxUpload}
}

// academicYearParam parses the optional ?academic_year= query parameter.
func academicYearParam(c *gin.Context) (*int, bool) {
	raw := c.Query("academic_year")
	if raw == "" {
		return nil, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"academic_year": "must be a positive integer"})
		return nil, false
	}
	return &year, true
}

// Import godoc
// POST /api/v1/admin/scholarships/import
// Loads disbursement records from an xlsx workbook as one all-or-nothing
// batch. A student may hold at most one record; duplicates reject the batch.
func (h *ScholarshipHandler) Import(c *gin.Context) {
	file, ok := openWorkbookUpload(c, h.maxUpload)
	if !ok {
		return
	}
	defer file.Close()

	records, err := h.scholarshipService.Import(c.Request.Context(), file)
	if err != nil {
		if failBatch(c, err) {
			return
		}
		if errors.Is(err, repository.ErrDuplicateScholarship) {
			response.FailWithFields(c, http.StatusConflict, response.ErrConflict,
				map[string]string{"detail": err.Error()})
			return
		}
		if errors.Is(err, spreadsheet.ErrBadWorkbook) || errors.Is(err, spreadsheet.ErrNoSheet) {
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"records": records})
}

// collectRows gathers the scholarship listing selected by the status and
// academic_year query parameters. Writes the error response itself when the
// parameters are invalid or a query fails.
func (h *ScholarshipHandler) collectRows(c *gin.Context) ([]model.ScholarshipRow, string, bool) {
	year, ok := academicYearParam(c)
	if !ok {
		return nil, "", false
	}

	status := c.DefaultQuery("status", "all")
	if status != "claimed" && status != "unclaimed" && status != "all" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"status": "must be one of claimed, unclaimed, all"})
		return nil, "", false
	}

	rows := []model.ScholarshipRow{}
	if status == "claimed" || status == "all" {
		claimed, err := h.scholarshipService.Claimed(c.Request.Context(), year)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return nil, "", false
		}
		rows = append(rows, claimed...)
	}
	if status == "unclaimed" || status == "all" {
		unclaimed, err := h.scholarshipService.Unclaimed(c.Request.Context(), year)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return nil, "", false
		}
		rows = append(rows, unclaimed...)
	}
	return rows, status, true
}

// List godoc
// GET /api/v1/admin/scholarships?status=claimed|unclaimed|all&academic_year=...
// Claimed rows are existing disbursement records; unclaimed rows are students
// whose best official result qualifies but who have no record yet.
func (h *ScholarshipHandler) List(c *gin.Context) {
	rows, _, ok := h.collectRows(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, rows)
}

// Export godoc
// GET /api/v1/admin/scholarships/export?status=...&academic_year=...
// Serves the same listing as an xlsx download.
func (h *ScholarshipHandler) Export(c *gin.Context) {
	rows, status, ok := h.collectRows(c)
	if !ok {
		return
	}

	wb, err := h.scholarshipService.RenderWorkbook(rows)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	writeWorkbook(c, fmt.Sprintf("scholarships-%s.xlsx", status), wb)
}

// Update godoc
// PUT /api/v1/admin/scholarships/:studentId
func (h *ScholarshipHandler) Update(c *gin.Context) {
	var req model.UpdateScholarshipRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	err := h.scholarshipService.Update(c.Request.Context(), c.Param("studentId"), req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Delete godoc
// DELETE /api/v1/admin/scholarships/:studentId
func (h *ScholarshipHandler) Delete(c *gin.Context) {
	err := h.scholarshipService.Delete(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
