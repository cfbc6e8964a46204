package engine

// Boxes lists the boxes on the board in row-major order. A double-wide box is
// reported at its left half.
func (s *Simulator) Boxes() []Position {
	return BoxPositions(s.grid)
}

// GPSScore sums 100*y + x over every box
func (s *Simulator) GPSScore() int {
	return ScoreGrid(s.grid)
}

// BoxPositions returns the Box and BoxLeft cells of g in row-major order
func BoxPositions(g *Grid) []Position {
	var out []Position
	for i, c := range g.cells {
		if c == Box || c == BoxLeft {
			out = append(out, Position{X: i % g.width, Y: i / g.width})
		}
	}
	return out
}

// ScoreGrid returns the GPS score of g
func ScoreGrid(g *Grid) int {
	total := 0
	for _, p := range BoxPositions(g) {
		total += p.GPS()
	}
	return total
}
