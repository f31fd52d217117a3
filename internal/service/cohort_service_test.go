package service

import (
	"testing"
	"time"

	"github.com/examtrack/examtrack-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func fact(studentID string, sessionID int, date string, score int) repository.AttendanceFact {
	return repository.AttendanceFact{
		StudentID: studentID,
		Name:      "Student " + studentID,
		SessionID: sessionID,
		ExamDate:  day(date),
		Score:     score,
	}
}

func TestAcademicYearWindow(t *testing.T) {
	w := AcademicYearWindow(113, 1911)
	assert.Equal(t, day("2024-08-01"), w.Start)
	assert.Equal(t, day("2025-08-01"), w.End)

	assert.True(t, w.Contains(day("2024-08-01")))
	assert.True(t, w.Contains(day("2025-07-31")))
	assert.False(t, w.Contains(day("2025-08-01")))
	assert.False(t, w.Contains(day("2024-07-31")))
}

func TestComputeNewlyPassedFindsCrossings(t *testing.T) {
	w := AcademicYearWindow(113, 1911)
	facts := []repository.AttendanceFact{
		// S001: 1 point before the year, 2 more inside it. Crosses the
		// cumulative threshold during the year.
		fact("S001", 1, "2023-11-20", 1),
		fact("S001", 2, "2024-10-14", 1),
		fact("S001", 3, "2025-03-03", 1),
		// S002: already passed before the year starts.
		fact("S002", 1, "2023-11-20", 3),
		fact("S002", 2, "2024-10-14", 2),
		// S003: still failing after the year.
		fact("S003", 2, "2024-10-14", 1),
	}

	entries := ComputeNewlyPassed(facts, w)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "S001", entry.StudentID)
	assert.Equal(t, 2, entry.TotalCorrectAnswers)
	assert.Equal(t, 1, entry.MaxCorrectAnswers)
	assert.Equal(t, "cumulative>=3", entry.PassingCriteria)

	// Lifetime history, chronological.
	require.Len(t, entry.Sessions, 3)
	assert.Equal(t, day("2023-11-20"), entry.Sessions[0].ExamDate)
	assert.Equal(t, day("2025-03-03"), entry.Sessions[2].ExamDate)
}

func TestComputeNewlyPassedSingleSessionCriterion(t *testing.T) {
	w := AcademicYearWindow(113, 1911)
	facts := []repository.AttendanceFact{
		fact("S001", 1, "2024-12-09", 2),
	}

	entries := ComputeNewlyPassed(facts, w)
	require.Len(t, entries, 1)
	assert.Equal(t, "single-session>=2", entries[0].PassingCriteria)
}

func TestComputeNewlyPassedDeduplicatesBySession(t *testing.T) {
	w := AcademicYearWindow(113, 1911)
	// Duplicate facts for the same session must not double-count: only the
	// best result per session feeds the totals.
	facts := []repository.AttendanceFact{
		fact("S001", 1, "2024-10-14", 1),
		fact("S001", 1, "2024-10-14", 2),
		fact("S001", 1, "2024-10-14", 1),
	}

	entries := ComputeNewlyPassed(facts, w)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].TotalCorrectAnswers)
	assert.Equal(t, 2, entries[0].MaxCorrectAnswers)
	require.Len(t, entries[0].Sessions, 1)
	assert.Equal(t, 2, entries[0].Sessions[0].Score)
}

func TestComputeNewlyPassedIgnoresScoresAfterWindow(t *testing.T) {
	w := AcademicYearWindow(113, 1911)
	facts := []repository.AttendanceFact{
		fact("S001", 1, "2025-09-15", 5), // next academic year
	}

	entries := ComputeNewlyPassed(facts, w)
	assert.Empty(t, entries)
}

func TestComputeNewlyPassedSortsAndIsDeterministic(t *testing.T) {
	w := AcademicYearWindow(113, 1911)
	facts := []repository.AttendanceFact{
		fact("S900", 1, "2024-10-14", 3),
		fact("S100", 1, "2024-10-14", 3),
		fact("S500", 1, "2024-10-14", 3),
	}

	first := ComputeNewlyPassed(facts, w)
	require.Len(t, first, 3)
	assert.Equal(t, "S100", first[0].StudentID)
	assert.Equal(t, "S500", first[1].StudentID)
	assert.Equal(t, "S900", first[2].StudentID)

	// Map iteration must not leak into the output order.
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeNewlyPassed(facts, w))
	}
}
