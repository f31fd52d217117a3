package service

import (
	"context"
	"fmt"
	"time"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/examtrack/examtrack-backend/internal/repository"
	"github.com/examtrack/examtrack-backend/internal/spreadsheet"
	"github.com/rs/zerolog"
)

// SessionService manages the exam session registry.
type SessionService struct {
	sessionRepo    *repository.ExamSessionRepository
	attendanceRepo *repository.AttendanceRepository
	eligibility    passRecomputer
	cohorts        cohortInvalidator
	log            zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessionRepo *repository.ExamSessionRepository,
	attendanceRepo *repository.AttendanceRepository,
	eligibility passRecomputer,
	cohorts cohortInvalidator,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo:    sessionRepo,
		attendanceRepo: attendanceRepo,
		eligibility:    eligibility,
		cohorts:        cohorts,
		log:            log.With().Str("component", "session").Logger(),
	}
}

// Create registers a new exam session.
func (s *SessionService) Create(ctx context.Context, req model.CreateSessionRequest) (*model.ExamSession, error) {
	examDate, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("parse exam date: %w", err)
	}

	session := &model.ExamSession{
		ExamDate: examDate,
		ExamType: req.Type,
	}
	if req.Notes != "" {
		session.Notes = &req.Notes
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Update reschedules or annotates a session addressed by its current
// natural key. Moving the session onto a key another session already holds
// fails with repository.ErrDuplicateSession.
func (s *SessionService) Update(ctx context.Context, req model.UpdateSessionRequest) error {
	currentDate, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		return fmt.Errorf("parse exam date: %w", err)
	}
	id, err := s.sessionRepo.Resolve(ctx, currentDate, req.Type)
	if err != nil {
		return err
	}

	newDate, newType, err := req.TargetKey()
	if err != nil {
		return err
	}
	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}
	if err := s.sessionRepo.Update(ctx, id, newDate, newType, notes); err != nil {
		return err
	}

	// A moved exam date shifts which academic year its scores count toward.
	if !newDate.Equal(currentDate) {
		s.cohorts.Invalidate(ctx)
	}

	s.log.Info().
		Str("exam_date", newDate.Format(model.DateLayout)).
		Str("exam_type", string(newType)).
		Msg("Exam session updated")
	return nil
}

// List returns all sessions, newest first.
func (s *SessionService) List(ctx context.Context) ([]model.ExamSession, error) {
	return s.sessionRepo.List(ctx)
}

// Delete removes a session addressed by its natural key together with every
// score recorded under it, then recomputes the pass status of the students
// those scores belonged to.
func (s *SessionService) Delete(ctx context.Context, examDate time.Time, examType model.ExamType) error {
	id, err := s.sessionRepo.Resolve(ctx, examDate, examType)
	if err != nil {
		return err
	}

	entries, err := s.attendanceRepo.ListBySession(ctx, id)
	if err != nil {
		return fmt.Errorf("list session attendance: %w", err)
	}
	touched := make([]string, 0, len(entries))
	for _, e := range entries {
		touched = append(touched, e.StudentID)
	}

	if err := s.sessionRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.cohorts.Invalidate(ctx)
	s.eligibility.RecomputeAll(ctx, touched)

	s.log.Info().
		Str("exam_date", examDate.Format(model.DateLayout)).
		Str("exam_type", string(examType)).
		Int("removed_scores", len(entries)).
		Msg("Exam session deleted")
	return nil
}

// Attendance lists every recorded entry for a session.
func (s *SessionService) Attendance(ctx context.Context, examDate time.Time, examType model.ExamType) ([]model.ExamAttendance, error) {
	id, err := s.sessionRepo.Resolve(ctx, examDate, examType)
	if err != nil {
		return nil, err
	}
	return s.attendanceRepo.ListBySession(ctx, id)
}

// AbsencesByDate lists absence entries across every session held on a date.
func (s *SessionService) AbsencesByDate(ctx context.Context, date time.Time) ([]repository.AbsenceRow, error) {
	return s.attendanceRepo.ListAbsencesByDate(ctx, date)
}

// AbsencesWorkbook renders one date's absence listing as a workbook.
func (s *SessionService) AbsencesWorkbook(ctx context.Context, date time.Time) (*spreadsheet.Workbook, error) {
	rows, err := s.attendanceRepo.ListAbsencesByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return renderAbsenceWorkbook(rows)
}

func renderAbsenceWorkbook(rows []repository.AbsenceRow) (*spreadsheet.Workbook, error) {
	wb, err := spreadsheet.NewWorkbook("Absences")
	if err != nil {
		return nil, err
	}
	if err := wb.SetRow(0, []interface{}{"Student ID", "Status", "Notes"}); err != nil {
		return nil, err
	}
	for i, row := range rows {
		status := model.MarkerAbsent
		if row.IsExcused {
			status = model.MarkerExcused
		}
		out := []interface{}{row.StudentID, status, nil}
		if row.Notes != nil {
			out[2] = *row.Notes
		}
		if err := wb.SetRow(i+1, out); err != nil {
			return nil, err
		}
	}
	return wb, nil
}
