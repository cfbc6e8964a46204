package engine

import "fmt"

// Grid stores cell kinds in row-major order. Its dimensions never change
// after construction; pushes only relabel cells.
type Grid struct {
	width  int
	height int
	cells  []CellKind
}

// NewGrid allocates a width x height grid filled with Empty cells
func NewGrid(width, height int) *Grid {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("engine: invalid grid size %dx%d", width, height))
	}
	cells := make([]CellKind, width*height)
	for i := range cells {
		cells[i] = Empty
	}
	return &Grid{width: width, height: height, cells: cells}
}

// Width returns the number of columns
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows
func (g *Grid) Height() int { return g.height }

// InBounds reports whether p addresses a cell of the grid
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

func (g *Grid) index(p Position) int {
	if !g.InBounds(p) {
		panic(fmt.Sprintf("engine: position (%d,%d) outside %dx%d grid", p.X, p.Y, g.width, g.height))
	}
	return p.Y*g.width + p.X
}

// Get returns the kind stored at p. It panics when p is out of bounds.
func (g *Grid) Get(p Position) CellKind {
	return g.cells[g.index(p)]
}

// Set overwrites the kind stored at p. It panics when p is out of bounds.
func (g *Grid) Set(p Position, kind CellKind) {
	g.cells[g.index(p)] = kind
}

// Clone returns a deep copy of the grid
func (g *Grid) Clone() *Grid {
	cells := make([]CellKind, len(g.cells))
	copy(cells, g.cells)
	return &Grid{width: g.width, height: g.height, cells: cells}
}

// Equal reports whether both grids have the same size and contents
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.width != other.width || g.height != other.height {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Count returns how many cells hold the given kind
func (g *Grid) Count(kind CellKind) int {
	n := 0
	for _, c := range g.cells {
		if c == kind {
			n++
		}
	}
	return n
}

// Find returns the positions holding kind in row-major order
func (g *Grid) Find(kind CellKind) []Position {
	var out []Position
	for i, c := range g.cells {
		if c == kind {
			out = append(out, Position{X: i % g.width, Y: i / g.width})
		}
	}
	return out
}

// Rows renders the grid using map symbols, one string per row
func (g *Grid) Rows() []string {
	rows := make([]string, g.height)
	buf := make([]byte, g.width)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			buf[x] = g.cells[y*g.width+x].Symbol()
		}
		rows[y] = string(buf)
	}
	return rows
}

// String renders the grid as newline separated rows
func (g *Grid) String() string {
	out := make([]byte, 0, (g.width+1)*g.height)
	for _, row := range g.Rows() {
		out = append(out, row...)
		out = append(out, '\n')
	}
	return string(out)
}
