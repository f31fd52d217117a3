package service

import (
	"context"
	"fmt"
	"time"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/rs/zerolog"
)

// scoreEditor is the ledger surface for manual corrections.
type scoreEditor interface {
	InsertOne(ctx context.Context, cmd model.ScoreCommand) error
	UpdateEntries(ctx context.Context, sessionID int, commands []model.ScoreCommand) ([]string, error)
	DeleteEntries(ctx context.Context, sessionID int, studentIDs []string) (int64, error)
}

// ScoreService covers manual score corrections: single additions, bulk
// edits, and removals against one session. Workbook ingestion lives in
// IngestService.
type ScoreService struct {
	sessions    sessionResolver
	ledger      scoreEditor
	students    studentDirectory
	eligibility passRecomputer
	cohorts     cohortInvalidator
	log         zerolog.Logger
}

// NewScoreService creates a new ScoreService.
func NewScoreService(
	sessions sessionResolver,
	ledger scoreEditor,
	students studentDirectory,
	eligibility passRecomputer,
	cohorts cohortInvalidator,
	log zerolog.Logger,
) *ScoreService {
	return &ScoreService{
		sessions:    sessions,
		ledger:      ledger,
		students:    students,
		eligibility: eligibility,
		cohorts:     cohorts,
		log:         log.With().Str("component", "score").Logger(),
	}
}

func commandFromEntry(sessionID int, entry model.ScoreEntry) model.ScoreCommand {
	cmd := model.ScoreCommand{
		SessionID: sessionID,
		StudentID: model.NormalizeStudentID(entry.StudentID),
		Note:      entry.Notes,
	}
	switch entry.Status {
	case model.MarkerAbsent:
		cmd.IsAbsent = true
	case model.MarkerExcused:
		cmd.IsAbsent = true
		cmd.IsExcused = true
	default:
		cmd.Score = entry.CorrectAnswersCount
	}
	return cmd
}

// AddOne records a single score. A second score for the same student and
// session is rejected with repository.ErrDuplicateScore rather than
// overwritten.
func (s *ScoreService) AddOne(ctx context.Context, examDate time.Time, examType model.ExamType, entry model.ScoreEntry) error {
	sessionID, err := s.sessions.Resolve(ctx, examDate, examType)
	if err != nil {
		return err
	}

	studentID := model.NormalizeStudentID(entry.StudentID)
	known, err := s.students.ExistingIDs(ctx, []string{studentID})
	if err != nil {
		return fmt.Errorf("check student registry: %w", err)
	}
	if _, ok := known[studentID]; !ok {
		return &BatchError{
			Reason:          "student is not registered",
			MissingStudents: []string{studentID},
		}
	}

	if err := s.ledger.InsertOne(ctx, commandFromEntry(sessionID, entry)); err != nil {
		return err
	}

	s.cohorts.Invalidate(ctx)
	s.eligibility.RecomputeAll(ctx, []string{studentID})
	return nil
}

// UpdateMany rewrites existing entries for a session. Entries whose stored
// values already match are left untouched; only students whose rows actually
// changed get their pass status recomputed. Returns the changed student IDs.
func (s *ScoreService) UpdateMany(ctx context.Context, examDate time.Time, examType model.ExamType, entries []model.ScoreEntry) ([]string, error) {
	sessionID, err := s.sessions.Resolve(ctx, examDate, examType)
	if err != nil {
		return nil, err
	}

	commands := make([]model.ScoreCommand, 0, len(entries))
	for _, entry := range entries {
		commands = append(commands, commandFromEntry(sessionID, entry))
	}

	changed, updateErr := s.ledger.UpdateEntries(ctx, sessionID, commands)
	if len(changed) > 0 {
		// Rows rewritten before a mid-batch failure are committed ledger
		// writes; their students' pass status must follow them.
		s.cohorts.Invalidate(ctx)
		s.eligibility.RecomputeAll(ctx, changed)
	}
	if updateErr != nil {
		return nil, updateErr
	}
	return changed, nil
}

// DeleteMany removes entries for the given students from a session and
// recomputes their pass status. Returns how many rows were removed.
func (s *ScoreService) DeleteMany(ctx context.Context, examDate time.Time, examType model.ExamType, studentIDs []string) (int64, error) {
	sessionID, err := s.sessions.Resolve(ctx, examDate, examType)
	if err != nil {
		return 0, err
	}

	normalized := make([]string, 0, len(studentIDs))
	for _, id := range studentIDs {
		normalized = append(normalized, model.NormalizeStudentID(id))
	}

	deleted, err := s.ledger.DeleteEntries(ctx, sessionID, normalized)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.cohorts.Invalidate(ctx)
		s.eligibility.RecomputeAll(ctx, normalized)
	}
	return deleted, nil
}
