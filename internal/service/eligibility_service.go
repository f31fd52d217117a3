package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/examtrack/examtrack-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Passing thresholds. A student passes when any single non-absent session
// reached PassSingleThreshold correct answers, or their non-absent total
// reached PassTotalThreshold.
const (
	PassSingleThreshold = 2
	PassTotalThreshold  = 3

	CriterionSingleSession = "single-session>=2"
	CriterionCumulative    = "cumulative>=3"
)

// EvaluatePass applies the threshold policy to a student's aggregates.
// Both criteria are checked independently; when both hold the criteria
// string carries both labels. Neither holding yields (false, nil).
func EvaluatePass(total, max int) (bool, *string) {
	var met []string
	if max >= PassSingleThreshold {
		met = append(met, CriterionSingleSession)
	}
	if total >= PassTotalThreshold {
		met = append(met, CriterionCumulative)
	}
	if len(met) == 0 {
		return false, nil
	}
	criteria := strings.Join(met, ", ")
	return true, &criteria
}

// EligibilityService recomputes a student's derived pass status from their
// attendance history. It is the only writer of students.is_passed and
// students.passing_criteria.
type EligibilityService struct {
	attendanceRepo *repository.AttendanceRepository
	studentRepo    *repository.StudentRepository
	log            zerolog.Logger
}

// NewEligibilityService creates a new EligibilityService.
func NewEligibilityService(
	attendanceRepo *repository.AttendanceRepository,
	studentRepo *repository.StudentRepository,
	log zerolog.Logger,
) *EligibilityService {
	return &EligibilityService{
		attendanceRepo: attendanceRepo,
		studentRepo:    studentRepo,
		log:            log.With().Str("component", "eligibility").Logger(),
	}
}

// Recompute rereads the student's full non-absent history and overwrites
// their pass status unconditionally. Idempotent: a second run with no
// intervening ledger writes produces the same stored values.
func (s *EligibilityService) Recompute(ctx context.Context, studentID string) error {
	total, max, err := s.attendanceRepo.TotalsForStudent(ctx, studentID)
	if err != nil {
		return fmt.Errorf("aggregate attendance: %w", err)
	}

	passed, criteria := EvaluatePass(total, max)

	if err := s.studentRepo.UpdatePassStatus(ctx, studentID, passed, criteria); err != nil {
		return fmt.Errorf("write pass status: %w", err)
	}
	return nil
}

// RecomputeAll recomputes each student's status, logging failures rather
// than aborting: callers run this after a committed ingestion, and a failed
// recompute must not unwind the ingestion it follows.
func (s *EligibilityService) RecomputeAll(ctx context.Context, studentIDs []string) {
	for _, id := range studentIDs {
		if err := s.Recompute(ctx, id); err != nil {
			s.log.Error().Err(err).Str("student_id", id).Msg("Pass status recompute failed")
		}
	}
}
