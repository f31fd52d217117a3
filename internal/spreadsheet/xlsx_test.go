package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClassifiesCells(t *testing.T) {
	wb, err := NewWorkbook("Scores")
	require.NoError(t, err)
	require.NoError(t, wb.SetRow(0, []interface{}{"Student ID", "2025-01-06,official", "Notes"}))
	require.NoError(t, wb.SetRow(1, []interface{}{"S001", 3, "  makeup sitting  "}))
	require.NoError(t, wb.SetRow(2, []interface{}{"S002", 5.5, ""}))
	require.NoError(t, wb.SetRow(3, []interface{}{"S003", "excused", nil}))

	var buf bytes.Buffer
	require.NoError(t, wb.WriteTo(&buf))

	grid, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, 4, grid.RowCount())

	assert.Equal(t, TextCell("Student ID"), grid.Cell(0, 0))
	assert.Equal(t, TextCell("S001"), grid.Cell(1, 0))
	assert.Equal(t, NumberCell(3), grid.Cell(1, 1))
	// Surrounding whitespace is trimmed.
	assert.Equal(t, TextCell("makeup sitting"), grid.Cell(1, 2))
	// Fractional values stay numeric; the importer decides their fate.
	assert.Equal(t, NumberCell(5.5), grid.Cell(2, 1))
	assert.Equal(t, TextCell("excused"), grid.Cell(3, 1))
	assert.True(t, grid.Cell(3, 2).Blank())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(strings.NewReader("this is not a zip archive"))
	assert.ErrorIs(t, err, ErrBadWorkbook)
}

func TestGridOutOfRangeReadsAreBlank(t *testing.T) {
	grid := NewGrid([][]Cell{{TextCell("a")}})

	assert.True(t, grid.Cell(0, 5).Blank())
	assert.True(t, grid.Cell(5, 0).Blank())
	assert.True(t, grid.Cell(-1, 0).Blank())
	assert.Nil(t, grid.Row(9))
}
