package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/examtrack/examtrack-backend/internal/spreadsheet"
)

type fakeSessionLister struct {
	sessions []model.ExamSession
}

func (f *fakeSessionLister) List(_ context.Context) ([]model.ExamSession, error) {
	return f.sessions, nil
}

func decodeWorkbook(t *testing.T, wb *spreadsheet.Workbook) *spreadsheet.Grid {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, wb.WriteTo(&buf))
	grid, err := spreadsheet.Decode(&buf)
	require.NoError(t, err)
	return grid
}

func TestScoreTemplateSeedsColumnsFromSessions(t *testing.T) {
	// Newest first, matching the repository's List ordering.
	lister := &fakeSessionLister{sessions: []model.ExamSession{
		{ID: 2, ExamDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), ExamType: model.ExamTypeInternal},
		{ID: 1, ExamDate: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), ExamType: model.ExamTypeOfficial},
	}}
	svc := NewTemplateService(lister)

	wb, err := svc.ScoreTemplate(context.Background())
	require.NoError(t, err)
	grid := decodeWorkbook(t, wb)

	assert.Equal(t, "Student ID", grid.Cell(0, 0).Text)
	assert.Equal(t, "2025-01-06,official", grid.Cell(0, 1).Text)
	assert.Equal(t, "Notes", grid.Cell(0, 2).Text)
	assert.Equal(t, "2025-03-10,internal", grid.Cell(0, 3).Text)
	assert.Equal(t, "Notes", grid.Cell(0, 4).Text)

	// The example row stays aligned with however many sessions exist.
	assert.Equal(t, "S1234567", grid.Cell(1, 0).Text)
	assert.Equal(t, spreadsheet.KindNumber, grid.Cell(1, 1).Kind)
	assert.Equal(t, model.MarkerExcused, grid.Cell(1, 3).Text)
}

func TestScoreTemplateFallsBackWithoutSessions(t *testing.T) {
	svc := NewTemplateService(&fakeSessionLister{})

	wb, err := svc.ScoreTemplate(context.Background())
	require.NoError(t, err)
	grid := decodeWorkbook(t, wb)

	assert.Equal(t, "Student ID", grid.Cell(0, 0).Text)
	assert.Equal(t, "2025-01-06,official", grid.Cell(0, 1).Text)
	assert.Equal(t, "2025-03-10,internal", grid.Cell(0, 3).Text)
}
