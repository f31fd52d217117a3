package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examtrack/examtrack-backend/internal/repository"
)

func TestRenderAbsenceWorkbook(t *testing.T) {
	note := "medical leave"
	wb, err := renderAbsenceWorkbook([]repository.AbsenceRow{
		{StudentID: "S001", IsExcused: true, Notes: &note},
		{StudentID: "S002", IsExcused: false},
	})
	require.NoError(t, err)
	grid := decodeWorkbook(t, wb)

	assert.Equal(t, "Student ID", grid.Cell(0, 0).Text)
	assert.Equal(t, "Status", grid.Cell(0, 1).Text)

	assert.Equal(t, "S001", grid.Cell(1, 0).Text)
	assert.Equal(t, "excused", grid.Cell(1, 1).Text)
	assert.Equal(t, "medical leave", grid.Cell(1, 2).Text)

	assert.Equal(t, "S002", grid.Cell(2, 0).Text)
	assert.Equal(t, "absent", grid.Cell(2, 1).Text)
	assert.True(t, grid.Cell(2, 2).Blank())
}
