// Package display renders the two status screens onto a character grid.
package display

import "strings"

const (
	DefaultCols = 16
	DefaultRows = 2
)

// Grid is a character display that behaves like a log: '\r' returns to
// column 0 and clears the rest of the row on the next write, '\n' moves to
// the next row and wraps to the top. Characters past the last column are
// dropped.
type Grid struct {
	cols, rows   int
	cells        [][]byte
	col, row     int
	clearOnWrite bool
}

func NewGrid(cols, rows int) *Grid {
	g := &Grid{cols: cols, rows: rows, cells: make([][]byte, rows)}
	for i := range g.cells {
		g.cells[i] = make([]byte, cols)
	}
	g.Clear()
	return g
}

// Clear blanks the grid and homes the cursor.
func (g *Grid) Clear() {
	for _, row := range g.cells {
		for i := range row {
			row[i] = ' '
		}
	}
	g.Home()
}

func (g *Grid) Home() {
	g.SetCursor(0, 0)
}

func (g *Grid) SetCursor(col, row int) {
	g.col = col
	g.row = row
}

// Write implements io.Writer. It never fails.
func (g *Grid) Write(p []byte) (int, error) {
	for _, c := range p {
		g.writeByte(c)
	}
	return len(p), nil
}

func (g *Grid) WriteString(s string) (int, error) {
	return g.Write([]byte(s))
}

func (g *Grid) writeByte(c byte) {
	switch c {
	case '\r':
		g.SetCursor(0, g.row)
		g.clearOnWrite = true
	case '\n':
		g.SetCursor(g.col, (g.row+1)%g.rows)
	default:
		if g.clearOnWrite {
			g.clearOnWrite = false
			g.clearToRight()
		}
		if g.col < g.cols {
			g.cells[g.row][g.col] = c
			g.col++
		}
	}
}

func (g *Grid) clearToRight() {
	for i := g.col; i < g.cols; i++ {
		g.cells[g.row][i] = ' '
	}
}

// Lines returns the grid content, one string per row.
func (g *Grid) Lines() []string {
	lines := make([]string, g.rows)
	for i, row := range g.cells {
		lines[i] = string(row)
	}
	return lines
}

func (g *Grid) String() string {
	return strings.Join(g.Lines(), "\n")
}
