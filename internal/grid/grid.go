// Package grid holds the character-grid data model shared by the display
// reading pipeline: cells, row bands and the rows×cols recognition grid.
package grid

import "strings"

// Cell is the recognition result for one grid position.
// Position fields are only meaningful when Located is true.
type Cell struct {
	Char       rune
	Confidence float64
	X, Y, W, H int
	Located    bool
	Inverted   bool
}

// Blank returns true when the cell carries no character.
func (c Cell) Blank() bool { return c.Char == 0 || c.Char == ' ' }

// Center returns the pixel center of the cell rectangle.
func (c Cell) Center() (int, int) {
	return c.X + c.W/2, c.Y + c.H/2
}

// Band is a half-open vertical pixel interval [Y1, Y2) assigned to one text
// row. Score accumulates the ink-density mass used to rank bands.
type Band struct {
	Y1    int
	Y2    int
	Score float64
}

// Height returns the band height in pixels.
func (b Band) Height() int { return b.Y2 - b.Y1 }

// Overlaps reports whether two bands share any pixel rows.
func (b Band) Overlaps(o Band) bool { return b.Y1 < o.Y2 && o.Y1 < b.Y2 }

// Grid is the ordered rows×cols collection of cells. Row index increases
// downward, column index left-to-right.
type Grid struct {
	RowCount int
	ColCount int
	Cells    [][]Cell
}

// New creates an empty grid of the given shape. All cells start blank with
// zero confidence.
func New(rows, cols int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	cells := make([][]Cell, rows)
	for i := range cells {
		cells[i] = make([]Cell, cols)
	}
	return &Grid{RowCount: rows, ColCount: cols, Cells: cells}
}

// At returns the cell at (row, col), or a zero cell when out of bounds.
func (g *Grid) At(row, col int) Cell {
	if row < 0 || row >= g.RowCount || col < 0 || col >= g.ColCount {
		return Cell{}
	}
	return g.Cells[row][col]
}

// Set stores a cell at (row, col); out-of-bounds writes are dropped.
func (g *Grid) Set(row, col int, c Cell) {
	if row < 0 || row >= g.RowCount || col < 0 || col >= g.ColCount {
		return
	}
	g.Cells[row][col] = c
}

// SetChar stores a character with confidence at (row, col), preserving any
// existing cell geometry.
func (g *Grid) SetChar(row, col int, ch rune, conf float64) {
	if row < 0 || row >= g.RowCount || col < 0 || col >= g.ColCount {
		return
	}
	g.Cells[row][col].Char = ch
	g.Cells[row][col].Confidence = conf
}

// Row renders row i as a string, with blank cells as spaces. Trailing spaces
// are preserved so positions stay column-aligned.
func (g *Grid) Row(i int) string {
	if i < 0 || i >= g.RowCount {
		return ""
	}
	var sb strings.Builder
	sb.Grow(g.ColCount)
	for _, c := range g.Cells[i] {
		if c.Blank() {
			sb.WriteByte(' ')
		} else {
			sb.WriteRune(c.Char)
		}
	}
	return sb.String()
}

// Rows renders every row of the grid.
func (g *Grid) Rows() []string {
	out := make([]string, g.RowCount)
	for i := range out {
		out[i] = g.Row(i)
	}
	return out
}

// Empty reports whether no cell in the grid carries a character.
func (g *Grid) Empty() bool {
	for _, row := range g.Cells {
		for _, c := range row {
			if !c.Blank() {
				return false
			}
		}
	}
	return true
}
