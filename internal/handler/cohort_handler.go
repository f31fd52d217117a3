package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/examtrack/examtrack-backend/internal/response"
	"github.com/examtrack/examtrack-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// CohortHandler answers year-over-year newly-passed queries.
type CohortHandler struct {
	cohortService *service.CohortService
}

// NewCohortHandler creates a new CohortHandler.
func NewCohortHandler(cohortService *service.CohortService) *CohortHandler {
	return &CohortHandler{cohortService: cohortService}
}

func requiredYearParam(c *gin.Context) (int, bool) {
	raw := c.Query("academic_year")
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"academic_year": "must be a positive integer"})
		return 0, false
	}
	return year, true
}

// NewlyPassed godoc
// GET /api/v1/admin/cohort/newly-passed?academic_year=...
// Lists students who crossed the passing thresholds during the given
// academic year.
func (h *CohortHandler) NewlyPassed(c *gin.Context) {
	year, ok := requiredYearParam(c)
	if !ok {
		return
	}

	entries, err := h.cohortService.NewlyPassed(c.Request.Context(), year)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, entries)
}

// Export godoc
// GET /api/v1/admin/cohort/newly-passed/export?academic_year=...
// Streams the newly-passed cohort as an xlsx workbook, one column per exam
// session held in the year.
func (h *CohortHandler) Export(c *gin.Context) {
	year, ok := requiredYearParam(c)
	if !ok {
		return
	}

	entries, err := h.cohortService.NewlyPassed(c.Request.Context(), year)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	wb, err := h.cohortService.RenderWorkbook(c.Request.Context(), year, entries)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	writeWorkbook(c, fmt.Sprintf("newly-passed-%d.xlsx", year), wb)
}
