package service

import (
	"context"
	"fmt"
	"io"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/examtrack/examtrack-backend/internal/repository"
	"github.com/examtrack/examtrack-backend/internal/spreadsheet"
	"github.com/rs/zerolog"
)

// StudentService manages the student registry.
type StudentService struct {
	studentRepo *repository.StudentRepository
	cohorts     cohortInvalidator
	log         zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(
	studentRepo *repository.StudentRepository,
	cohorts cohortInvalidator,
	log zerolog.Logger,
) *StudentService {
	return &StudentService{
		studentRepo: studentRepo,
		cohorts:     cohorts,
		log:         log.With().Str("component", "student").Logger(),
	}
}

// Create registers a student. New students always start not-passed; the
// derived fields fill in once their scores arrive.
func (s *StudentService) Create(ctx context.Context, req model.CreateStudentRequest) (*model.Student, error) {
	student := &model.Student{
		StudentID:        model.NormalizeStudentID(req.StudentID),
		Name:             req.Name,
		EnrollmentStatus: req.EnrollmentStatus,
		Attribute:        req.Attribute,
	}
	if req.Notes != "" {
		student.Notes = &req.Notes
	}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// List returns every registered student.
func (s *StudentService) List(ctx context.Context) ([]model.Student, error) {
	return s.studentRepo.List(ctx)
}

// Profile returns a student together with their full attendance history.
func (s *StudentService) Profile(ctx context.Context, studentID string) (*model.StudentProfile, error) {
	studentID = model.NormalizeStudentID(studentID)
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	history, err := s.studentRepo.HistoryByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load attendance history: %w", err)
	}
	return &model.StudentProfile{Student: *student, Attendance: history}, nil
}

// Update modifies a student's editable fields. The derived pass status is
// not editable through this path.
func (s *StudentService) Update(ctx context.Context, studentID string, req model.UpdateStudentRequest) (*model.Student, error) {
	student := &model.Student{
		StudentID:        model.NormalizeStudentID(studentID),
		Name:             req.Name,
		EnrollmentStatus: req.EnrollmentStatus,
		Attribute:        req.Attribute,
	}
	if req.Notes != "" {
		student.Notes = &req.Notes
	}
	if err := s.studentRepo.Update(ctx, student); err != nil {
		return nil, err
	}
	return s.studentRepo.GetByID(ctx, student.StudentID)
}

// Delete removes a student along with their scores and scholarship record.
func (s *StudentService) Delete(ctx context.Context, studentID string) error {
	if err := s.studentRepo.Delete(ctx, model.NormalizeStudentID(studentID)); err != nil {
		return err
	}
	s.cohorts.Invalidate(ctx)
	return nil
}

var enrollmentTokens = map[string]model.EnrollmentStatus{
	string(model.EnrollmentEnrolled):  model.EnrollmentEnrolled,
	string(model.EnrollmentOnLeave):   model.EnrollmentOnLeave,
	string(model.EnrollmentWithdrawn): model.EnrollmentWithdrawn,
}

var attributeTokens = map[string]model.StudentAttribute{
	string(model.AttributeDepartmental):      model.AttributeDepartmental,
	string(model.AttributeInterdepartmental): model.AttributeInterdepartmental,
	string(model.AttributeExternal):          model.AttributeExternal,
}

// Import registers students from an xlsx stream as one all-or-nothing
// batch. Row 1 is the header; each following row carries ID, name,
// enrollment status, attribute, and optional notes. Returns how many
// students were registered.
func (s *StudentService) Import(ctx context.Context, r io.Reader) (int, error) {
	grid, err := spreadsheet.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("decode workbook: %w", err)
	}
	if grid.RowCount() < 2 {
		return 0, &BatchError{Reason: "workbook has no student rows"}
	}

	var students []model.Student
	for row := 1; row < grid.RowCount(); row++ {
		idCell := grid.Cell(row, 0)
		if idCell.Kind != spreadsheet.KindText {
			return 0, &BatchError{Row: row + 1, Column: 1, Reason: "student ID must be text"}
		}
		id := model.NormalizeStudentID(idCell.Text)
		if id == "" {
			return 0, &BatchError{Row: row + 1, Column: 1, Reason: "student ID is empty"}
		}

		nameCell := grid.Cell(row, 1)
		if nameCell.Kind != spreadsheet.KindText {
			return 0, &BatchError{Row: row + 1, Column: 2, Reason: "name is required"}
		}

		statusCell := grid.Cell(row, 2)
		status, ok := enrollmentTokens[statusCell.Text]
		if statusCell.Kind != spreadsheet.KindText || !ok {
			return 0, &BatchError{
				Row: row + 1, Column: 3,
				Reason: "enrollment status must be one of enrolled, on_leave, withdrawn",
			}
		}

		attrCell := grid.Cell(row, 3)
		attr, ok := attributeTokens[attrCell.Text]
		if attrCell.Kind != spreadsheet.KindText || !ok {
			return 0, &BatchError{
				Row: row + 1, Column: 4,
				Reason: "attribute must be one of departmental, interdepartmental, external",
			}
		}

		student := model.Student{
			StudentID:        id,
			Name:             nameCell.Text,
			EnrollmentStatus: status,
			Attribute:        attr,
		}
		if note := grid.Cell(row, 4); note.Kind == spreadsheet.KindText {
			student.Notes = &note.Text
		}
		students = append(students, student)
	}

	if err := s.studentRepo.InsertBatch(ctx, students); err != nil {
		return 0, err
	}

	s.log.Info().Int("registered", len(students)).Msg("Student batch imported")
	return len(students), nil
}
