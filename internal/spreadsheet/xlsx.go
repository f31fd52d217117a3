package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheet is returned when an uploaded workbook contains no worksheets.
var ErrNoSheet = errors.New("workbook has no worksheets")

// ErrBadWorkbook is returned when an upload is not a readable xlsx file.
var ErrBadWorkbook = errors.New("not a valid xlsx workbook")

// Decode reads an xlsx workbook and returns the first worksheet as a typed
// grid. String cells become text, numeric cells become numbers, everything
// unset becomes blank. Cell content is trimmed; a whitespace-only cell is
// treated as blank.
func Decode(r io.Reader) (*Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	sheet := sheets[0]

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	rows := make([][]Cell, len(raw))
	for ri, rawRow := range raw {
		row := make([]Cell, len(rawRow))
		for ci, value := range rawRow {
			cell, err := typedCell(f, sheet, ri, ci, value)
			if err != nil {
				return nil, err
			}
			row[ci] = cell
		}
		rows[ri] = row
	}

	return NewGrid(rows), nil
}

// typedCell classifies one cell using the workbook's stored cell type.
// Formula and error cells surface as text; validation upstream rejects them
// where a score is expected.
func typedCell(f *excelize.File, sheet string, row, col int, value string) (Cell, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return BlankCell(), nil
	}

	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return Cell{}, fmt.Errorf("cell (%d,%d): %w", row, col, err)
	}

	ct, err := f.GetCellType(sheet, axis)
	if err != nil {
		return Cell{}, fmt.Errorf("cell %s: %w", axis, err)
	}

	if ct == excelize.CellTypeNumber || ct == excelize.CellTypeUnset {
		if n, perr := strconv.ParseFloat(trimmed, 64); perr == nil {
			return NumberCell(n), nil
		}
	}

	return TextCell(trimmed), nil
}

// Workbook is a thin builder over excelize for generated exports and
// templates.
type Workbook struct {
	file  *excelize.File
	sheet string
}

// NewWorkbook creates a single-sheet workbook with the given sheet name.
func NewWorkbook(sheet string) (*Workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	return &Workbook{file: f, sheet: sheet}, nil
}

// SetRow writes values into the given zero-based row starting at column A.
func (w *Workbook) SetRow(row int, values []interface{}) error {
	axis, err := excelize.CoordinatesToCellName(1, row+1)
	if err != nil {
		return err
	}
	return w.file.SetSheetRow(w.sheet, axis, &values)
}

// WriteTo serializes the workbook as xlsx bytes.
func (w *Workbook) WriteTo(out io.Writer) error {
	defer w.file.Close()
	return w.file.Write(out)
}
