package model

import (
	"fmt"
	"strings"
	"time"
)

// ExamType distinguishes officially administered sittings from internal ones.
type ExamType string

const (
	ExamTypeOfficial ExamType = "official"
	ExamTypeInternal ExamType = "internal"
)

// DateLayout is the wire format for exam dates.
const DateLayout = "2006-01-02"

// ExamSession is one scheduled exam event, unique on (date, type).
type ExamSession struct {
	ID        int       `json:"id"`
	ExamDate  time.Time `json:"exam_date"`
	ExamType  ExamType  `json:"exam_type"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Label renders the session's natural key as "YYYY-MM-DD,<type>", the format
// spreadsheet headers and single-score requests use.
func (s ExamSession) Label() string {
	return fmt.Sprintf("%s,%s", s.ExamDate.Format(DateLayout), s.ExamType)
}

// ParseSessionLabel parses a "YYYY-MM-DD,<type>" pair into its natural key.
func ParseSessionLabel(label string) (time.Time, ExamType, error) {
	parts := strings.Split(label, ",")
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("session label %q: want \"YYYY-MM-DD,official|internal\"", label)
	}

	date, err := time.Parse(DateLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, "", fmt.Errorf("session label %q: bad date: %w", label, err)
	}

	examType := ExamType(strings.TrimSpace(parts[1]))
	if examType != ExamTypeOfficial && examType != ExamTypeInternal {
		return time.Time{}, "", fmt.Errorf("session label %q: unknown exam type %q", label, parts[1])
	}

	return date, examType, nil
}

// CreateSessionRequest is the payload for registering an exam session.
type CreateSessionRequest struct {
	Date  string   `json:"date" binding:"required,datetime=2006-01-02"`
	Type  ExamType `json:"type" binding:"required,oneof=official internal"`
	Notes string   `json:"notes" binding:"maxbytes=255"`
}

// SessionKeyRequest addresses an existing session by its natural key.
// Callers always pass the key explicitly; there is no server-side notion of
// a "currently selected" session.
type SessionKeyRequest struct {
	Date string   `json:"date" binding:"required,datetime=2006-01-02" form:"date"`
	Type ExamType `json:"type" binding:"required,oneof=official internal" form:"type"`
}

// UpdateSessionRequest reschedules or annotates a session addressed by its
// current natural key. An omitted new_date or new_type keeps the current
// value; notes always replace the stored ones.
type UpdateSessionRequest struct {
	SessionKeyRequest
	NewDate string   `json:"new_date" binding:"omitempty,datetime=2006-01-02"`
	NewType ExamType `json:"new_type" binding:"omitempty,oneof=official internal"`
	Notes   string   `json:"notes" binding:"maxbytes=255"`
}

// TargetKey returns the natural key the session should hold after the
// update.
func (r UpdateSessionRequest) TargetKey() (time.Time, ExamType, error) {
	date, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("parse exam date: %w", err)
	}
	if r.NewDate != "" {
		if date, err = time.Parse(DateLayout, r.NewDate); err != nil {
			return time.Time{}, "", fmt.Errorf("parse new exam date: %w", err)
		}
	}
	examType := r.Type
	if r.NewType != "" {
		examType = r.NewType
	}
	return date, examType, nil
}
