package service

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examtrack/examtrack-backend/internal/model"
)

func TestRenderScholarshipWorkbook(t *testing.T) {
	amount := 5000
	received := "2025-10-15"
	svc := NewScholarshipService(nil, nil, 1911, zerolog.Nop())

	wb, err := svc.RenderWorkbook([]model.ScholarshipRow{
		{
			StudentID: "S001", Name: "Jane Doe", CorrectAnswersCount: 3,
			ExamDate: "2025-01-06", Claimed: true,
			Amount: &amount, ReceivedDate: &received,
		},
		{
			StudentID: "S002", Name: "John Roe", CorrectAnswersCount: 2,
			ExamDate: "2025-03-10", Claimed: false,
		},
	})
	require.NoError(t, err)
	grid := decodeWorkbook(t, wb)

	assert.Equal(t, "Student ID", grid.Cell(0, 0).Text)
	assert.Equal(t, "Status", grid.Cell(0, 4).Text)

	assert.Equal(t, "S001", grid.Cell(1, 0).Text)
	assert.Equal(t, "claimed", grid.Cell(1, 4).Text)
	assert.Equal(t, float64(5000), grid.Cell(1, 5).Number)
	assert.Equal(t, "2025-10-15", grid.Cell(1, 6).Text)

	// Unclaimed candidates leave the disbursement columns blank.
	assert.Equal(t, "unclaimed", grid.Cell(2, 4).Text)
	assert.True(t, grid.Cell(2, 5).Blank())
	assert.True(t, grid.Cell(2, 6).Blank())
}
