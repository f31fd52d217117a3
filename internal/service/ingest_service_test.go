package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/examtrack/examtrack-backend/internal/spreadsheet"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionRegistry struct {
	sessions map[string]int
}

func (f *fakeSessionRegistry) Resolve(_ context.Context, examDate time.Time, examType model.ExamType) (int, error) {
	key := examDate.Format(model.DateLayout) + "," + string(examType)
	id, ok := f.sessions[key]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	return id, nil
}

type fakeStudentDirectory struct {
	known map[string]struct{}
}

func (f *fakeStudentDirectory) ExistingIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := f.known[id]; ok {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

type fakeLedger struct {
	applied  []model.ScoreCommand
	existing map[string]struct{} // "sessionID/studentID" pairs already stored
}

func (f *fakeLedger) ApplyBatch(_ context.Context, commands []model.ScoreCommand) (*model.IngestResult, error) {
	result := &model.IngestResult{}
	seen := make(map[string]struct{})
	for _, cmd := range commands {
		key := fmt.Sprintf("%d/%s", cmd.SessionID, cmd.StudentID)
		if _, dup := f.existing[key]; dup {
			result.SkippedExisting++
			continue
		}
		f.applied = append(f.applied, cmd)
		f.existing[key] = struct{}{}
		result.Ingested++
		if _, ok := seen[cmd.StudentID]; !ok {
			seen[cmd.StudentID] = struct{}{}
			result.TouchedStudents = append(result.TouchedStudents, cmd.StudentID)
		}
	}
	return result, nil
}

type fakeRecomputer struct {
	recomputed []string
}

func (f *fakeRecomputer) RecomputeAll(_ context.Context, ids []string) {
	f.recomputed = append(f.recomputed, ids...)
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(_ context.Context) { f.calls++ }

func newTestIngest(t *testing.T) (*IngestService, *fakeLedger, *fakeRecomputer, *fakeInvalidator) {
	t.Helper()
	ledger := &fakeLedger{existing: map[string]struct{}{}}
	recomputer := &fakeRecomputer{}
	invalidator := &fakeInvalidator{}
	svc := NewIngestService(
		&fakeSessionRegistry{sessions: map[string]int{
			"2025-01-06,official": 1,
			"2025-03-10,internal": 2,
		}},
		&fakeStudentDirectory{known: map[string]struct{}{
			"S001": {},
			"S002": {},
		}},
		ledger,
		recomputer,
		invalidator,
		zerolog.Nop(),
	)
	return svc, ledger, recomputer, invalidator
}

func textRow(values ...string) []spreadsheet.Cell {
	row := make([]spreadsheet.Cell, len(values))
	for i, v := range values {
		if v == "" {
			row[i] = spreadsheet.BlankCell()
		} else {
			row[i] = spreadsheet.TextCell(v)
		}
	}
	return row
}

func TestParseGridEmitsCommands(t *testing.T) {
	svc, _, _, _ := newTestIngest(t)

	grid := spreadsheet.NewGrid([][]spreadsheet.Cell{
		textRow("Student ID", "2025-01-06,official", "Notes", "2025-03-10,internal", "Notes"),
		{spreadsheet.TextCell("S001"), spreadsheet.NumberCell(3), spreadsheet.TextCell("late arrival"), spreadsheet.NumberCell(0), spreadsheet.BlankCell()},
		{spreadsheet.TextCell("s002"), spreadsheet.TextCell("excused"), spreadsheet.BlankCell(), spreadsheet.TextCell("absent"), spreadsheet.BlankCell()},
	})

	commands, err := svc.ParseGrid(context.Background(), grid)
	require.NoError(t, err)
	require.Len(t, commands, 4)

	assert.Equal(t, model.ScoreCommand{
		SessionID: 1, StudentID: "S001", Score: 3, Note: "late arrival",
	}, commands[0])
	assert.Equal(t, model.ScoreCommand{SessionID: 2, StudentID: "S001"}, commands[1])

	// Lowercase IDs normalize; excused implies absent.
	assert.Equal(t, "S002", commands[2].StudentID)
	assert.True(t, commands[2].IsAbsent)
	assert.True(t, commands[2].IsExcused)
	assert.True(t, commands[3].IsAbsent)
	assert.False(t, commands[3].IsExcused)
}

func TestParseGridSkipsBlankCells(t *testing.T) {
	svc, _, _, _ := newTestIngest(t)

	grid := spreadsheet.NewGrid([][]spreadsheet.Cell{
		textRow("Student ID", "2025-01-06,official", "Notes"),
		textRow("S001", "", ""),
	})

	commands, err := svc.ParseGrid(context.Background(), grid)
	require.NoError(t, err)
	assert.Empty(t, commands)
}

func TestParseGridRejectsFractionalScore(t *testing.T) {
	svc, _, _, _ := newTestIngest(t)

	grid := spreadsheet.NewGrid([][]spreadsheet.Cell{
		textRow("Student ID", "2025-01-06,official", "Notes"),
		{spreadsheet.TextCell("S001"), spreadsheet.NumberCell(5.5), spreadsheet.BlankCell()},
	})

	_, err := svc.ParseGrid(context.Background(), grid)
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 2, batchErr.Row)
	assert.Equal(t, 2, batchErr.Column)
	assert.Contains(t, batchErr.Reason, "whole number")
}

func TestParseGridAcceptsIntegralFloat(t *testing.T) {
	svc, _, _, _ := newTestIngest(t)

	grid := spreadsheet.NewGrid([][]spreadsheet.Cell{
		textRow("Student ID", "2025-01-06,official", "Notes"),
		{spreadsheet.TextCell("S001"), spreadsheet.NumberCell(5.0), spreadsheet.BlankCell()},
	})

	commands, err := svc.ParseGrid(context.Background(), grid)
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, 5, commands[0].Score)
}

func TestParseGridRejectsUnknownMarker(t *testing.T) {
	svc, _, _, _ := newTestIngest(t)

	grid := spreadsheet.NewGrid([][]spreadsheet.Cell{
		textRow("Student ID", "2025-01-06,official", "Notes"),
		textRow("S001", "sick", ""),
	})

	_, err := svc.ParseGrid(context.Background(), grid)
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Contains(t, batchErr.Reason, "unrecognized")
}

func TestParseGridRejectsUnknownStudentsWithFullList(t *testing.T) {
	svc, _, _, _ := newTestIngest(t)

	grid := spreadsheet.NewGrid([][]spreadsheet.Cell{
		textRow("Student ID", "2025-01-06,official", "Notes"),
		textRow("S001", "1", ""),
		textRow("S404", "2", ""),
		textRow("S405", "3", ""),
		textRow("S404", "1", ""),
	})

	_, err := svc.ParseGrid(context.Background(), grid)
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, []string{"S404", "S405"}, batchErr.MissingStudents)
}

func TestParseGridRejectsBlankStudentID(t *testing.T) {
	svc, _, _, _ := newTestIngest(t)

	grid := spreadsheet.NewGrid([][]spreadsheet.Cell{
		textRow("Student ID", "2025-01-06,official", "Notes"),
		textRow("S001", "1", ""),
		textRow("", "2", ""),
	})

	_, err := svc.ParseGrid(context.Background(), grid)
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 3, batchErr.Row)
	assert.Equal(t, 1, batchErr.Column)
}

func TestParseGridRejectsUnregisteredSession(t *testing.T) {
	svc, _, _, _ := newTestIngest(t)

	grid := spreadsheet.NewGrid([][]spreadsheet.Cell{
		textRow("Student ID", "2025-06-01,official", "Notes"),
		textRow("S001", "1", ""),
	})

	_, err := svc.ParseGrid(context.Background(), grid)
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 1, batchErr.Row)
	assert.Equal(t, 2, batchErr.Column)
	assert.Contains(t, batchErr.Reason, "not registered")
}

func TestParseGridRejectsMalformedHeader(t *testing.T) {
	svc, _, _, _ := newTestIngest(t)

	grid := spreadsheet.NewGrid([][]spreadsheet.Cell{
		textRow("Student ID", "January 6th", "Notes"),
		textRow("S001", "1", ""),
	})

	_, err := svc.ParseGrid(context.Background(), grid)
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 1, batchErr.Row)
}

func TestImportScoresRecomputesTouchedStudents(t *testing.T) {
	svc, ledger, recomputer, invalidator := newTestIngest(t)

	wb, err := spreadsheet.NewWorkbook("Scores")
	require.NoError(t, err)
	require.NoError(t, wb.SetRow(0, []interface{}{"Student ID", "2025-01-06,official", "Notes"}))
	require.NoError(t, wb.SetRow(1, []interface{}{"S001", 2, ""}))
	require.NoError(t, wb.SetRow(2, []interface{}{"S002", 1, ""}))

	var buf bytes.Buffer
	require.NoError(t, wb.WriteTo(&buf))

	result, err := svc.ImportScores(context.Background(), &buf)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Ingested)
	assert.Equal(t, 0, result.SkippedExisting)
	assert.Len(t, ledger.applied, 2)
	assert.Equal(t, []string{"S001", "S002"}, recomputer.recomputed)
	assert.Equal(t, 1, invalidator.calls)
}

func TestImportScoresReimportSkipsEveryRow(t *testing.T) {
	svc, ledger, recomputer, _ := newTestIngest(t)

	wb, err := spreadsheet.NewWorkbook("Scores")
	require.NoError(t, err)
	require.NoError(t, wb.SetRow(0, []interface{}{"Student ID", "2025-01-06,official", "Notes"}))
	require.NoError(t, wb.SetRow(1, []interface{}{"S001", 2, ""}))
	require.NoError(t, wb.SetRow(2, []interface{}{"S002", "absent", ""}))

	var buf bytes.Buffer
	require.NoError(t, wb.WriteTo(&buf))
	sheet := buf.Bytes()

	first, err := svc.ImportScores(context.Background(), bytes.NewReader(sheet))
	require.NoError(t, err)
	require.Equal(t, 2, first.Ingested)

	second, err := svc.ImportScores(context.Background(), bytes.NewReader(sheet))
	require.NoError(t, err)

	assert.Equal(t, 0, second.Ingested)
	assert.Equal(t, 2, second.SkippedExisting)
	assert.Empty(t, second.TouchedStudents)
	// Nothing new was written, so no further recomputes fire.
	assert.Len(t, ledger.applied, 2)
	assert.Equal(t, []string{"S001", "S002"}, recomputer.recomputed)
}
