package handler

import (
	"errors"
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

// ScoreHandler handles manual score corrections against one session.
type ScoreHandler struct {
	scoreService *service.ScoreService
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(scoreService *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scoreService: scoreService}
}

type addScoreRequest struct {
	model.SessionKeyRequest
	Entry model.ScoreEntry `json:"entry" binding:"required"`
}

type updateScoresRequest struct {
	model.SessionKeyRequest
	Entries []model.ScoreEntry `json:"entries" binding:"required,min=1,dive"`
}

type deleteScoresRequest struct {
	model.SessionKeyRequest
	StudentIDs []string `json:"student_ids" binding:"required,min=1,dive,min=1,max=20"`
}

// Add godoc
// POST /api/v1/admin/scores
// Records one score. An existing score for the same student and session is
// rejected, not overwritten.
func (h *ScoreHandler) Add(c *gin.Context) {
	var req addScoreRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	examDate, _ := time.Parse(model.DateLayout, req.Date)

	err := h.scoreService.AddOne(c.Request.Context(), examDate, req.Type, req.Entry)
	if err != nil {
		switch {
		case failBatch(c, err):
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrSessionUnknown)
		case errors.Is(err, repository.ErrDuplicateScore):
			response.Fail(c, http.StatusConflict, response.ErrScoreExists)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusCreated, gin.H{})
}

// Update godoc
// PUT /api/v1/admin/sessions/scores
// Rewrites existing entries for a session. Returns the IDs of students
// whose rows actually changed.
func (h *ScoreHandler) Update(c *gin.Context) {
	var req updateScoresRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	examDate, _ := time.Parse(model.DateLayout, req.Date)

	changed, err := h.scoreService.UpdateMany(c.Request.Context(), examDate, req.Type, req.Entries)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrSessionUnknown)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"changed_students": changed})
}

// Delete godoc
// DELETE /api/v1/admin/sessions/scores
// Removes the selected students' entries from a session.
func (h *ScoreHandler) Delete(c *gin.Context) {
	var req deleteScoresRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	examDate, _ := time.Parse(model.DateLayout, req.Date)

	deleted, err := h.scoreService.DeleteMany(c.Request.Context(), examDate, req.Type, req.StudentIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrSessionUnknown)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if deleted == 0 {
		response.Fail(c, http.StatusNotFound, response.ErrNothingSelected)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": deleted})
}
