package model

import (
	"strings"
	"time"
)

// EnrollmentStatus represents a student's registration state.
type EnrollmentStatus string

const (
	EnrollmentEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentOnLeave   EnrollmentStatus = "on_leave"
	EnrollmentWithdrawn EnrollmentStatus = "withdrawn"
)

// StudentAttribute categorizes where a student comes from.
type StudentAttribute string

const (
	AttributeDepartmental      StudentAttribute = "departmental"
	AttributeInterdepartmental StudentAttribute = "interdepartmental"
	AttributeExternal          StudentAttribute = "external"
)

// Student represents a tracked cohort member. IsPassed and PassingCriteria
// are derived fields owned by the eligibility recomputation; nothing else
// may write them.
type Student struct {
	StudentID        string           `json:"student_id"`
	Name             string           `json:"name"`
	EnrollmentStatus EnrollmentStatus `json:"enrollment_status"`
	Attribute        StudentAttribute `json:"attribute"`
	IsPassed         bool             `json:"is_passed"`
	PassingCriteria  *string          `json:"passing_criteria,omitempty"`
	Notes            *string          `json:"notes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NormalizeStudentID trims and uppercases a raw student ID. Student IDs are
// case-insensitive and stored uppercase.
func NormalizeStudentID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// CreateStudentRequest is the payload for registering a single student.
type CreateStudentRequest struct {
	StudentID        string           `json:"student_id" binding:"required,min=1,max=20"`
	Name             string           `json:"name" binding:"required,min=1,max=100"`
	EnrollmentStatus EnrollmentStatus `json:"enrollment_status" binding:"required,oneof=enrolled on_leave withdrawn"`
	Attribute        StudentAttribute `json:"attribute" binding:"required,oneof=departmental interdepartmental external"`
	Notes            string           `json:"notes" binding:"maxbytes=255"`
}

// UpdateStudentRequest is the payload for updating a student's editable
// fields. Pass status is derived and deliberately absent here.
type UpdateStudentRequest struct {
	Name             string           `json:"name" binding:"required,min=1,max=100"`
	EnrollmentStatus EnrollmentStatus `json:"enrollment_status" binding:"required,oneof=enrolled on_leave withdrawn"`
	Attribute        StudentAttribute `json:"attribute" binding:"required,oneof=departmental interdepartmental external"`
	Notes            string           `json:"notes" binding:"maxbytes=255"`
}

// StudentProfile is a student joined with their full attendance history.
type StudentProfile struct {
	Student
	Attendance []AttendanceDetail `json:"exam_attendance"`
}
