package service

import (
	"context"
	"fmt"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/examtrack/examtrack-backend/internal/spreadsheet"
)

// sessionLister supplies the registered sessions used to seed score
// template columns.
type sessionLister interface {
	List(ctx context.Context) ([]model.ExamSession, error)
}

// TemplateService builds empty import workbooks so operators start from the
// exact layout the importers expect.
type TemplateService struct {
	sessions sessionLister
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(sessions sessionLister) *TemplateService {
	return &TemplateService{sessions: sessions}
}

// ScoreTemplate lays out the score import sheet: student IDs down column A,
// session label and note column pairs to the right, one pair per registered
// session in chronological order. The example row shows the accepted cell
// vocabulary. With no sessions registered yet the header falls back to
// illustrative labels so the format is still visible.
func (s *TemplateService) ScoreTemplate(ctx context.Context) (*spreadsheet.Workbook, error) {
	wb, err := spreadsheet.NewWorkbook("Scores")
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, err
	}

	header := []interface{}{"Student ID"}
	// List is newest first; walk backwards for chronological columns.
	for i := len(sessions) - 1; i >= 0; i-- {
		header = append(header, sessions[i].Label(), "Notes")
	}
	if len(sessions) == 0 {
		header = append(header,
			fmt.Sprintf("2025-01-06,%s", model.ExamTypeOfficial), "Notes",
			fmt.Sprintf("2025-03-10,%s", model.ExamTypeInternal), "Notes")
	}
	if err := wb.SetRow(0, header); err != nil {
		return nil, err
	}

	example := []interface{}{"S1234567"}
	for col := 1; col < len(header); col += 2 {
		switch col {
		case 1:
			example = append(example, 3, "")
		case 3:
			example = append(example, model.MarkerExcused, "medical leave")
		default:
			example = append(example, "", "")
		}
	}
	if err := wb.SetRow(1, example); err != nil {
		return nil, err
	}
	return wb, nil
}

// StudentTemplate lays out the student import sheet.
func (s *TemplateService) StudentTemplate() (*spreadsheet.Workbook, error) {
	wb, err := spreadsheet.NewWorkbook("Students")
	if err != nil {
		return nil, err
	}
	header := []interface{}{
		"Student ID",
		"Name",
		fmt.Sprintf("Enrollment Status (%s/%s/%s)",
			model.EnrollmentEnrolled, model.EnrollmentOnLeave, model.EnrollmentWithdrawn),
		fmt.Sprintf("Attribute (%s/%s/%s)",
			model.AttributeDepartmental, model.AttributeInterdepartmental, model.AttributeExternal),
		"Notes",
	}
	if err := wb.SetRow(0, header); err != nil {
		return nil, err
	}
	example := []interface{}{
		"S1234567", "Jane Doe", string(model.EnrollmentEnrolled), string(model.AttributeDepartmental), "",
	}
	if err := wb.SetRow(1, example); err != nil {
		return nil, err
	}
	return wb, nil
}

// ScholarshipTemplate lays out the scholarship import sheet.
func (s *TemplateService) ScholarshipTemplate() (*spreadsheet.Workbook, error) {
	wb, err := spreadsheet.NewWorkbook("Scholarships")
	if err != nil {
		return nil, err
	}
	header := []interface{}{
		"Student ID",
		"Qualifying Score",
		"Received Date (YYYY-MM-DD)",
		"Amount",
		"Notes",
	}
	if err := wb.SetRow(0, header); err != nil {
		return nil, err
	}
	example := []interface{}{"S1234567", 3, "2025-10-15", 5000, ""}
	if err := wb.SetRow(1, example); err != nil {
		return nil, err
	}
	return wb, nil
}
