package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/examtrack/examtrack-backend/internal/repository"
	"github.com/examtrack/examtrack-backend/internal/response"
	"github.com/examtrack/examtrack-backend/internal/service"
	"github.com/examtrack/examtrack-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// SessionHandler handles exam session registry endpoints.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Create godoc
// POST /api/v1/admin/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateSession) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, session)
}

// Update godoc
// PUT /api/v1/admin/sessions
// Reschedules or annotates a session addressed by its current date and
// type.
func (h *SessionHandler) Update(c *gin.Context) {
	var req model.UpdateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.Update(c.Request.Context(), req); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrSessionUnknown)
			return
		}
		if errors.Is(err, repository.ErrDuplicateSession) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// List godoc
// GET /api/v1/admin/sessions
func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.sessionService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, sessions)
}

// Delete godoc
// DELETE /api/v1/admin/sessions
// Removes a session addressed by its date and type, together with every
// score recorded under it.
func (h *SessionHandler) Delete(c *gin.Context) {
	var req model.SessionKeyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	examDate, _ := time.Parse(model.DateLayout, req.Date)

	if err := h.sessionService.Delete(c.Request.Context(), examDate, req.Type); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrSessionUnknown)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Attendance godoc
// GET /api/v1/admin/sessions/attendance?date=...&type=...
// Lists every recorded entry for one session.
func (h *SessionHandler) Attendance(c *gin.Context) {
	var req model.SessionKeyRequest
	if fields := validator.BindQuery(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	examDate, _ := time.Parse(model.DateLayout, req.Date)

	entries, err := h.sessionService.Attendance(c.Request.Context(), examDate, req.Type)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrSessionUnknown)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, entries)
}

// Absences godoc
// GET /api/v1/admin/sessions/absences?date=...
// Lists absence entries across every session held on the given date.
func (h *SessionHandler) Absences(c *gin.Context) {
	raw := c.Query("date")
	date, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"date": "must be a date in YYYY-MM-DD form"})
		return
	}

	absences, err := h.sessionService.AbsencesByDate(c.Request.Context(), date)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, absences)
}

// AbsencesExport godoc
// GET /api/v1/admin/sessions/absences/export?date=...
// Serves the absence listing for a date as an xlsx download.
func (h *SessionHandler) AbsencesExport(c *gin.Context) {
	raw := c.Query("date")
	date, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"date": "must be a date in YYYY-MM-DD form"})
		return
	}

	wb, err := h.sessionService.AbsencesWorkbook(c.Request.Context(), date)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	writeWorkbook(c, fmt.Sprintf("absences-%s.xlsx", raw), wb)
}
