// Package spatial provides cache-efficient spatial data structures for
// neighbor and occupancy queries over the arena's fixed 18x32 grid.
//
// All structures use preallocated slices with integer indices (not
// pointers) to minimize GC pressure and maximize cache locality.
package spatial

import "math"

// Grid provides O(1) average occupancy/neighbor queries over a board
// whose cells are exactly 1.0 unit wide (the arena's coordinate system:
// cell (c,r) spans [c,c+1)x[r,r+1)). Adapted from a general cellSize
// broad-phase grid down to this fixed cell size, since the board never
// needs any other granularity.
type Grid struct {
	cols, rows int
	cells      [][]uint32 // cells[row*cols+col] = entity indices occupying that cell
	scratch    []uint32
}

// NewGrid creates a grid for the given board dimensions.
func NewGrid(cols, rows int) *Grid {
	cells := make([][]uint32, cols*rows)
	for i := range cells {
		cells[i] = make([]uint32, 0, 4)
	}
	return &Grid{cols: cols, rows: rows, cells: cells, scratch: make([]uint32, 0, 32)}
}

// Clear resets all cells without deallocating underlying memory.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *Grid) clampCell(col, row int) (int, int) {
	if col < 0 {
		col = 0
	}
	if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// Insert adds entityID at board position (x, y).
func (g *Grid) Insert(entityID uint32, x, y float64) {
	col, row := g.clampCell(int(math.Floor(x)), int(math.Floor(y)))
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], entityID)
}

// QueryRadius returns entity IDs whose containing cell lies within
// radius of (cx, cy). The returned slice is a reused scratch buffer and
// may include entities just outside radius; callers perform the precise
// distance check. Copy the result if it must outlive the next call.
func (g *Grid) QueryRadius(cx, cy, radius float64) []uint32 {
	g.scratch = g.scratch[:0]

	minCol, minRow := g.clampCell(int(math.Floor(cx-radius)), int(math.Floor(cy-radius)))
	maxCol, maxRow := g.clampCell(int(math.Floor(cx+radius)), int(math.Floor(cy+radius)))

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}
	return g.scratch
}

// InBounds reports whether (col, row) lies within the grid.
func (g *Grid) InBounds(col, row int) bool {
	return col >= 0 && col < g.cols && row >= 0 && row < g.rows
}

// Cols returns the grid width in cells.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the grid height in cells.
func (g *Grid) Rows() int { return g.rows }
