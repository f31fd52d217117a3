package handler

import (
	"net/http"

	"github.com/examtrack/examtrack-backend/internal/response"
	"github.com/examtrack/examtrack-backend/internal/service"
	"github.com/examtrack/examtrack-backend/internal/spreadsheet"
	"github.com/gin-gonic/gin"
)

// TemplateHandler serves empty import workbook templates.
type TemplateHandler struct {
	templateService *service.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateService *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

func (h *TemplateHandler) serve(c *gin.Context, filename string, wb *spreadsheet.Workbook, err error) {
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	writeWorkbook(c, filename, wb)
}

// Scores godoc
// GET /api/v1/admin/templates/scores
func (h *TemplateHandler) Scores(c *gin.Context) {
	wb, err := h.templateService.ScoreTemplate(c.Request.Context())
	h.serve(c, "score-import-template.xlsx", wb, err)
}

// Students godoc
// GET /api/v1/admin/templates/students
func (h *TemplateHandler) Students(c *gin.Context) {
	wb, err := h.templateService.StudentTemplate()
	h.serve(c, "student-import-template.xlsx", wb, err)
}

// Scholarships godoc
// GET /api/v1/admin/templates/scholarships
func (h *TemplateHandler) Scholarships(c *gin.Context) {
	wb, err := h.templateService.ScholarshipTemplate()
	h.serve(c, "scholarship-import-template.xlsx", wb, err)
}
