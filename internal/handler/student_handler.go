package handler

import (
	"errors"
	"net/http"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/examtrack/examtrack-backend/internal/repository"
	"github.com/examtrack/examtrack-backend/internal/response"
	"github.com/examtrack/examtrack-backend/internal/service"
	"github.com/examtrack/examtrack-backend/internal/spreadsheet"
	"github.com/examtrack/examtrack-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// StudentHandler handles student registry endpoints.
type StudentHandler struct {
	studentService *service.StudentService
	maxUpload      int64
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, maxUpload int64) *StudentHandler {
	return &StudentHandler{studentService: studentService, maxUpload: maxUpload}
}

// Create godoc
// POST /api/v1/admin/students
func (h *StudentHandler) Create(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateStudent) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, student)
}

// List godoc
// GET /api/v1/admin/students
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.studentService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, students)
}

// Get godoc
// GET /api/v1/admin/students/:id
// Returns the student together with their full attendance history.
func (h *StudentHandler) Get(c *gin.Context) {
	profile, err := h.studentService.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// Update godoc
// PUT /api/v1/admin/students/:id
func (h *StudentHandler) Update(c *gin.Context) {
	var req model.UpdateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, student)
}

// Delete godoc
// DELETE /api/v1/admin/students/:id
// Removes the student along with their scores and scholarship record.
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.studentService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Import godoc
// POST /api/v1/admin/students/import
// Registers students from an xlsx workbook as one all-or-nothing batch.
func (h *StudentHandler) Import(c *gin.Context) {
	file, ok := openWorkbookUpload(c, h.maxUpload)
	if !ok {
		return
	}
	defer file.Close()

	registered, err := h.studentService.Import(c.Request.Context(), file)
	if err != nil {
		if failBatch(c, err) {
			return
		}
		if errors.Is(err, repository.ErrDuplicateStudent) {
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
	response.Success(c, http.StatusOK, gin.H{"registered": registered})
}
