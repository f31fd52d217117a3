package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/examtrack/examtrack-backend/internal/spreadsheet"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// BatchError rejects an entire score workbook. No command derived from a
// workbook carrying one has been written when it is returned.
type BatchError struct {
	Row             int // 1-based sheet row, 0 when not tied to a row
	Column          int // 1-based sheet column, 0 when not tied to a column
	Reason          string
	MissingStudents []string
}

func (e *BatchError) Error() string {
	switch {
	case len(e.MissingStudents) > 0:
		return fmt.Sprintf("unknown students: %s", strings.Join(e.MissingStudents, ", "))
	case e.Row > 0 && e.Column > 0:
		return fmt.Sprintf("row %d, column %d: %s", e.Row, e.Column, e.Reason)
	case e.Row > 0:
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	case e.Column > 0:
		return fmt.Sprintf("column %d: %s", e.Column, e.Reason)
	default:
		return e.Reason
	}
}

// Fields flattens the error for a response envelope.
func (e *BatchError) Fields() map[string]string {
	fields := make(map[string]string)
	if e.Row > 0 {
		fields["row"] = strconv.Itoa(e.Row)
	}
	if e.Column > 0 {
		fields["column"] = strconv.Itoa(e.Column)
	}
	if e.Reason != "" {
		fields["reason"] = e.Reason
	}
	if len(e.MissingStudents) > 0 {
		fields["missing_students"] = strings.Join(e.MissingStudents, ", ")
	}
	return fields
}

type sessionResolver interface {
	Resolve(ctx context.Context, examDate time.Time, examType model.ExamType) (int, error)
}

type studentDirectory interface {
	ExistingIDs(ctx context.Context, studentIDs []string) (map[string]struct{}, error)
}

type scoreLedger interface {
	ApplyBatch(ctx context.Context, commands []model.ScoreCommand) (*model.IngestResult, error)
}

type passRecomputer interface {
	RecomputeAll(ctx context.Context, studentIDs []string)
}

type cohortInvalidator interface {
	Invalidate(ctx context.Context)
}

// IngestService turns score workbooks into committed ledger batches.
type IngestService struct {
	sessions    sessionResolver
	students    studentDirectory
	ledger      scoreLedger
	eligibility passRecomputer
	cohorts     cohortInvalidator
	log         zerolog.Logger
}

// NewIngestService creates a new IngestService.
func NewIngestService(
	sessions sessionResolver,
	students studentDirectory,
	ledger scoreLedger,
	eligibility passRecomputer,
	cohorts cohortInvalidator,
	log zerolog.Logger,
) *IngestService {
	return &IngestService{
		sessions:    sessions,
		students:    students,
		ledger:      ledger,
		eligibility: eligibility,
		cohorts:     cohorts,
		log:         log.With().Str("component", "ingest").Logger(),
	}
}

// ImportScores decodes an xlsx stream, validates the whole sheet, and
// applies it as a single all-or-nothing batch. Rows whose (session, student)
// pair already holds a score are skipped, not overwritten. After the batch
// commits, every touched student's pass status is recomputed; a recompute
// failure is logged but does not unwind the committed batch.
func (s *IngestService) ImportScores(ctx context.Context, r io.Reader) (*model.IngestResult, error) {
	grid, err := spreadsheet.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode workbook: %w", err)
	}

	commands, err := s.ParseGrid(ctx, grid)
	if err != nil {
		return nil, err
	}

	result, err := s.ledger.ApplyBatch(ctx, commands)
	if err != nil {
		return nil, fmt.Errorf("apply score batch: %w", err)
	}

	s.cohorts.Invalidate(ctx)
	s.eligibility.RecomputeAll(ctx, result.TouchedStudents)

	s.log.Info().
		Int("ingested", result.Ingested).
		Int("skipped_existing", result.SkippedExisting).
		Int("touched_students", len(result.TouchedStudents)).
		Msg("Score batch applied")

	return result, nil
}

// ParseGrid validates a decoded score sheet and emits one command per
// non-blank score cell. Any defect anywhere in the sheet rejects the whole
// sheet with a *BatchError; nothing is written here.
//
// Sheet layout: row 1 is the header, column A the student ID. Session
// labels sit at columns B, D, F, ... ("YYYY-MM-DD,official|internal"); the
// column to the right of each label carries free-form notes.
func (s *IngestService) ParseGrid(ctx context.Context, grid *spreadsheet.Grid) ([]model.ScoreCommand, error) {
	header := grid.Row(0)
	if len(header) < 2 {
		return nil, &BatchError{Reason: "workbook has no session columns"}
	}

	// Column index -> resolved session ID, header order preserved.
	sessionIDs := make(map[int]int)
	for col := 1; col < len(header); col += 2 {
		cell := grid.Cell(0, col)
		if cell.Kind != spreadsheet.KindText {
			return nil, &BatchError{Row: 1, Column: col + 1, Reason: "session header must be text"}
		}
		examDate, examType, err := model.ParseSessionLabel(cell.Text)
		if err != nil {
			return nil, &BatchError{Row: 1, Column: col + 1, Reason: err.Error()}
		}
		id, err := s.sessions.Resolve(ctx, examDate, examType)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &BatchError{
					Row: 1, Column: col + 1,
					Reason: fmt.Sprintf("exam session %q is not registered", cell.Text),
				}
			}
			return nil, fmt.Errorf("resolve session %q: %w", cell.Text, err)
		}
		sessionIDs[col] = id
	}

	studentIDs := make([]string, 0, grid.RowCount()-1)
	for row := 1; row < grid.RowCount(); row++ {
		idCell := grid.Cell(row, 0)
		if idCell.Kind != spreadsheet.KindText {
			return nil, &BatchError{Row: row + 1, Column: 1, Reason: "student ID must be text"}
		}
		id := model.NormalizeStudentID(idCell.Text)
		if id == "" {
			return nil, &BatchError{Row: row + 1, Column: 1, Reason: "student ID is empty"}
		}
		studentIDs = append(studentIDs, id)
	}

	known, err := s.students.ExistingIDs(ctx, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("check student registry: %w", err)
	}
	var missing []string
	seenMissing := make(map[string]struct{})
	for _, id := range studentIDs {
		if _, ok := known[id]; ok {
			continue
		}
		if _, dup := seenMissing[id]; dup {
			continue
		}
		seenMissing[id] = struct{}{}
		missing = append(missing, id)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &BatchError{
			Reason:          "workbook references students that are not registered",
			MissingStudents: missing,
		}
	}

	var commands []model.ScoreCommand
	for row := 1; row < grid.RowCount(); row++ {
		studentID := studentIDs[row-1]
		for col := 1; col < len(header); col += 2 {
			sessionID, ok := sessionIDs[col]
			if !ok {
				continue
			}
			cell := grid.Cell(row, col)
			cmd := model.ScoreCommand{SessionID: sessionID, StudentID: studentID}

			switch cell.Kind {
			case spreadsheet.KindBlank:
				continue
			case spreadsheet.KindText:
				switch {
				case strings.EqualFold(cell.Text, model.MarkerAbsent):
					cmd.IsAbsent = true
				case strings.EqualFold(cell.Text, model.MarkerExcused):
					cmd.IsAbsent = true
					cmd.IsExcused = true
				default:
					return nil, &BatchError{
						Row: row + 1, Column: col + 1,
						Reason: fmt.Sprintf("unrecognized cell value %q", cell.Text),
					}
				}
			case spreadsheet.KindNumber:
				if cell.Number != math.Trunc(cell.Number) {
					return nil, &BatchError{
						Row: row + 1, Column: col + 1,
						Reason: "score must be a whole number",
					}
				}
				if cell.Number < 0 {
					return nil, &BatchError{
						Row: row + 1, Column: col + 1,
						Reason: "score must not be negative",
					}
				}
				cmd.Score = int(cell.Number)
			}

			if note := grid.Cell(row, col+1); note.Kind == spreadsheet.KindText {
				cmd.Note = note.Text
			}
			commands = append(commands, cmd)
		}
	}

	return commands, nil
}
