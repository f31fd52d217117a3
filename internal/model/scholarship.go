package model

import "time"

// ScholarshipRecord is a disbursement tied to a qualifying exam result.
// At most one record per student.
type ScholarshipRecord struct {
	ID                  int       `json:"id"`
	StudentID           string    `json:"student_id"`
	CorrectAnswersCount int       `json:"correct_answers_count"`
	ReceivedDate        time.Time `json:"received_date"`
	Amount              int       `json:"amount"`
	Notes               *string   `json:"notes,omitempty"`
}

// ScholarshipRow is a scholarship listing entry: claimed records carry their
// disbursement fields, unclaimed candidates carry the qualifying result only.
type ScholarshipRow struct {
	StudentID           string  `json:"student_id"`
	Name                string  `json:"name"`
	CorrectAnswersCount int     `json:"correct_answers_count"`
	ExamDate            string  `json:"exam_date"`
	Claimed             bool    `json:"claimed"`
	Amount              *int    `json:"amount,omitempty"`
	ReceivedDate        *string `json:"received_date,omitempty"`
	Notes               *string `json:"notes,omitempty"`
}

// UpdateScholarshipRequest edits an existing disbursement record.
type UpdateScholarshipRequest struct {
	CorrectAnswersCount int    `json:"correct_answers_count" binding:"min=0"`
	ReceivedDate        string `json:"received_date" binding:"required,datetime=2006-01-02"`
	Amount              int    `json:"amount" binding:"min=0"`
	Notes               string `json:"notes" binding:"maxbytes=255"`
}
