// Package spreadsheet isolates workbook IO behind a typed-cell grid so the
// ingestion logic never touches file-format details.
package spreadsheet

// CellKind discriminates the cell payloads ingestion cares about.
type CellKind int

const (
	KindBlank CellKind = iota
	KindText
	KindNumber
)

// Cell is one typed spreadsheet cell.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// Blank reports whether the cell carries no data.
func (c Cell) Blank() bool { return c.Kind == KindBlank }

// BlankCell returns an empty cell.
func BlankCell() Cell { return Cell{Kind: KindBlank} }

// TextCell returns a string-valued cell.
func TextCell(s string) Cell { return Cell{Kind: KindText, Text: s} }

// NumberCell returns a numeric cell.
func NumberCell(f float64) Cell { return Cell{Kind: KindNumber, Number: f} }

// Grid is a rectangular matrix of typed cells with zero-based addressing.
// Out-of-range reads yield blank cells, mirroring how spreadsheets treat
// unset trailing columns.
type Grid struct {
	rows [][]Cell
}

// NewGrid wraps pre-built rows into a Grid.
func NewGrid(rows [][]Cell) *Grid {
	return &Grid{rows: rows}
}

// RowCount returns the number of rows in the grid.
func (g *Grid) RowCount() int {
	return len(g.rows)
}

// Row returns row r, or nil when out of range.
func (g *Grid) Row(r int) []Cell {
	if r < 0 || r >= len(g.rows) {
		return nil
	}
	return g.rows[r]
}

// Cell returns the cell at (row, col), blank when out of range.
func (g *Grid) Cell(row, col int) Cell {
	if row < 0 || row >= len(g.rows) {
		return BlankCell()
	}
	r := g.rows[row]
	if col < 0 || col >= len(r) {
		return BlankCell()
	}
	return r[col]
}
