package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/examtrack/examtrack-backend/internal/repository"
	"github.com/examtrack/examtrack-backend/internal/spreadsheet"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ScholarshipService manages disbursement records and answers the
// claimed/unclaimed queries.
type ScholarshipService struct {
	scholarshipRepo *repository.ScholarshipRepository
	students        studentDirectory
	yearOffset      int
	log             zerolog.Logger
}

// NewScholarshipService creates a new ScholarshipService.
func NewScholarshipService(
	scholarshipRepo *repository.ScholarshipRepository,
	students studentDirectory,
	yearOffset int,
	log zerolog.Logger,
) *ScholarshipService {
	return &ScholarshipService{
		scholarshipRepo: scholarshipRepo,
		students:        students,
		yearOffset:      yearOffset,
		log:             log.With().Str("component", "scholarship").Logger(),
	}
}

// scholarshipWindow maps an academic year to the disbursement date range,
// September 1 through August 31 inclusive.
func (s *ScholarshipService) scholarshipWindow(academicYear int) (time.Time, time.Time) {
	civil := academicYear + s.yearOffset
	from := time.Date(civil, time.September, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(civil+1, time.August, 31, 0, 0, 0, 0, time.UTC)
	return from, to
}

// Import loads disbursement records from an xlsx stream as one
// all-or-nothing batch. Row 1 is the header; each following row carries
// student ID, qualifying score, received date, amount, and optional notes.
// Returns how many records were written.
func (s *ScholarshipService) Import(ctx context.Context, r io.Reader) (int, error) {
	grid, err := spreadsheet.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("decode workbook: %w", err)
	}
	if grid.RowCount() < 2 {
		return 0, &BatchError{Reason: "workbook has no scholarship rows"}
	}

	var records []model.ScholarshipRecord
	studentIDs := make([]string, 0, grid.RowCount()-1)
	for row := 1; row < grid.RowCount(); row++ {
		idCell := grid.Cell(row, 0)
		if idCell.Kind != spreadsheet.KindText {
			return 0, &BatchError{Row: row + 1, Column: 1, Reason: "student ID must be text"}
		}
		id := model.NormalizeStudentID(idCell.Text)
		if id == "" {
			return 0, &BatchError{Row: row + 1, Column: 1, Reason: "student ID is empty"}
		}
		studentIDs = append(studentIDs, id)

		count, err := integralCell(grid.Cell(row, 1))
		if err != nil {
			return 0, &BatchError{Row: row + 1, Column: 2, Reason: "qualifying score " + err.Error()}
		}

		dateCell := grid.Cell(row, 2)
		if dateCell.Kind != spreadsheet.KindText {
			return 0, &BatchError{Row: row + 1, Column: 3, Reason: "received date must be text (YYYY-MM-DD)"}
		}
		received, err := time.Parse(model.DateLayout, dateCell.Text)
		if err != nil {
			return 0, &BatchError{
				Row: row + 1, Column: 3,
				Reason: fmt.Sprintf("received date %q is not in YYYY-MM-DD form", dateCell.Text),
			}
		}

		amount, err := integralCell(grid.Cell(row, 3))
		if err != nil {
			return 0, &BatchError{Row: row + 1, Column: 4, Reason: "amount " + err.Error()}
		}

		rec := model.ScholarshipRecord{
			StudentID:           id,
			CorrectAnswersCount: count,
			ReceivedDate:        received,
			Amount:              amount,
		}
		if note := grid.Cell(row, 4); note.Kind == spreadsheet.KindText {
			rec.Notes = &note.Text
		}
		records = append(records, rec)
	}

	known, err := s.students.ExistingIDs(ctx, studentIDs)
	if err != nil {
		return 0, fmt.Errorf("check student registry: %w", err)
	}
	var missing []string
	seen := make(map[string]struct{})
	for _, id := range studentIDs {
		if _, ok := known[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return 0, &BatchError{
			Reason:          "workbook references students that are not registered",
			MissingStudents: missing,
		}
	}

	if err := s.scholarshipRepo.InsertBatch(ctx, records); err != nil {
		return 0, err
	}

	s.log.Info().Int("records", len(records)).Msg("Scholarship batch imported")
	return len(records), nil
}

func integralCell(cell spreadsheet.Cell) (int, error) {
	if cell.Kind != spreadsheet.KindNumber {
		return 0, fmt.Errorf("must be a number")
	}
	if cell.Number != math.Trunc(cell.Number) {
		return 0, fmt.Errorf("must be a whole number")
	}
	if cell.Number < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return int(cell.Number), nil
}

// Claimed lists disbursed scholarships, optionally limited to one academic
// year's disbursement window.
func (s *ScholarshipService) Claimed(ctx context.Context, academicYear *int) ([]model.ScholarshipRow, error) {
	var from, to *time.Time
	if academicYear != nil {
		f, t := s.scholarshipWindow(*academicYear)
		from, to = &f, &t
	}
	return s.scholarshipRepo.Claimed(ctx, from, to)
}

// Unclaimed lists students whose best official result qualifies for a
// scholarship but who have no disbursement record, optionally limited to
// results inside one academic year's window.
func (s *ScholarshipService) Unclaimed(ctx context.Context, academicYear *int) ([]model.ScholarshipRow, error) {
	var from, to *time.Time
	if academicYear != nil {
		f, t := s.scholarshipWindow(*academicYear)
		from, to = &f, &t
	}
	return s.scholarshipRepo.Unclaimed(ctx, from, to)
}

// RenderWorkbook lays a scholarship listing out as an xlsx sheet. Claimed
// rows carry their disbursement fields; unclaimed candidates leave them
// blank.
func (s *ScholarshipService) RenderWorkbook(rows []model.ScholarshipRow) (*spreadsheet.Workbook, error) {
	wb, err := spreadsheet.NewWorkbook("Scholarships")
	if err != nil {
		return nil, err
	}
	header := []interface{}{
		"Student ID", "Name", "Qualifying Score", "Exam Date",
		"Status", "Amount", "Received Date", "Notes",
	}
	if err := wb.SetRow(0, header); err != nil {
		return nil, err
	}

	for i, row := range rows {
		status := "unclaimed"
		if row.Claimed {
			status = "claimed"
		}
		out := []interface{}{
			row.StudentID, row.Name, row.CorrectAnswersCount, row.ExamDate,
			status, nil, nil, nil,
		}
		if row.Amount != nil {
			out[5] = *row.Amount
		}
		if row.ReceivedDate != nil {
			out[6] = *row.ReceivedDate
		}
		if row.Notes != nil {
			out[7] = *row.Notes
		}
		if err := wb.SetRow(i+1, out); err != nil {
			return nil, err
		}
	}
	return wb, nil
}

// Update rewrites a student's disbursement record.
func (s *ScholarshipService) Update(ctx context.Context, studentID string, req model.UpdateScholarshipRequest) error {
	received, err := time.Parse(model.DateLayout, req.ReceivedDate)
	if err != nil {
		return fmt.Errorf("parse received date: %w", err)
	}
	rec := model.ScholarshipRecord{
		CorrectAnswersCount: req.CorrectAnswersCount,
		ReceivedDate:        received,
		Amount:              req.Amount,
	}
	if req.Notes != "" {
		rec.Notes = &req.Notes
	}

	found, err := s.scholarshipRepo.Update(ctx, model.NormalizeStudentID(studentID), rec)
	if err != nil {
		return err
	}
	if !found {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a student's disbursement record.
func (s *ScholarshipService) Delete(ctx context.Context, studentID string) error {
	found, err := s.scholarshipRepo.Delete(ctx, model.NormalizeStudentID(studentID))
	if err != nil {
		return err
	}
	if !found {
		return pgx.ErrNoRows
	}
	return nil
}
