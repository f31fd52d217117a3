package model

import "time"

// Cell vocabulary for score matrices: a score column carries either an
// integral number or one of these markers.
const (
	MarkerAbsent  = "absent"
	MarkerExcused = "excused"
)

// ExamAttendance is one student's outcome for one session, unique on
// (exam_session_id, student_id). IsExcused is only meaningful when IsAbsent
// is set, and an absent row always carries a zero score.
type ExamAttendance struct {
	ID                  int64   `json:"id"`
	ExamSessionID       int     `json:"exam_session_id"`
	StudentID           string  `json:"student_id"`
	IsAbsent            bool    `json:"is_absent"`
	IsExcused           bool    `json:"is_excused"`
	CorrectAnswersCount int     `json:"correct_answers_count"`
	Notes               *string `json:"notes,omitempty"`
}

// AttendanceDetail is an attendance row joined with its session identity,
// as returned by per-student history queries.
type AttendanceDetail struct {
	ExamDate            time.Time `json:"exam_date"`
	ExamType            ExamType  `json:"exam_type"`
	SessionNotes        *string   `json:"session_notes,omitempty"`
	IsAbsent            bool      `json:"is_absent"`
	IsExcused           bool      `json:"is_excused"`
	CorrectAnswersCount int       `json:"correct_answers_count"`
	Notes               *string   `json:"notes,omitempty"`
}

// ScoreCommand is one validated ingestion instruction emitted by the batch
// parser: insert this outcome for (SessionID, StudentID).
type ScoreCommand struct {
	SessionID int
	StudentID string
	IsAbsent  bool
	IsExcused bool
	Score     int
	Note      string
}

// ScoreEntry is one student's outcome as submitted by scoring endpoints.
// Status is blank for a sat exam, or one of the absence markers.
type ScoreEntry struct {
	StudentID           string `json:"student_id" binding:"required,min=1,max=20"`
	Status              string `json:"status" binding:"omitempty,oneof=absent excused"`
	CorrectAnswersCount int    `json:"correct_answers_count" binding:"min=0"`
	Notes               string `json:"notes" binding:"maxbytes=255"`
}

// IngestResult reports the outcome of a committed score batch.
type IngestResult struct {
	Ingested        int      `json:"ingested"`
	SkippedExisting int      `json:"skipped_existing"`
	TouchedStudents []string `json:"touched_students"`
}
