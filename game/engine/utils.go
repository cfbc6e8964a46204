package engine

import "fmt"

// CountKinds returns the number of cells holding each kind
func CountKinds(g *Grid) map[CellKind]int {
	counts := make(map[CellKind]int, 6)
	for _, c := range g.cells {
		counts[c]++
	}
	return counts
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// FindNearestBox returns the box closest to the robot and its distance
func FindNearestBox(state *GameState) (Position, int, bool) {
	minDistance := -1
	var nearestPos Position
	found := false

	for y, row := range state.Layout {
		for x := 0; x < len(row); x++ {
			if row[x] != 'O' && row[x] != '[' {
				continue
			}
			pos := Position{X: x, Y: y}
			distance := ManhattanDistance(state.RobotPos, pos)
			if row[x] == '[' {
				// The right half may be closer
				if d := ManhattanDistance(state.RobotPos, pos.Step(Right)); d < distance {
					distance = d
				}
			}
			if minDistance == -1 || distance < minDistance {
				minDistance = distance
				nearestPos = pos
				found = true
			}
		}
	}

	return nearestPos, minDistance, found
}

func hasBoxHalves(g *Grid) bool {
	for _, c := range g.cells {
		if c.IsBoxHalf() {
			return true
		}
	}
	return false
}

// checkPairing verifies that every BoxLeft has a BoxRight on its right and
// every BoxRight a BoxLeft on its left
func checkPairing(g *Grid) error {
	for i, c := range g.cells {
		p := Position{X: i % g.width, Y: i / g.width}
		other, want, ok := partner(p, c)
		if !ok {
			continue
		}
		if !g.InBounds(other) || g.Get(other) != want {
			return fmt.Errorf("%w: %s at (%d,%d)", ErrUnpairedBox, c, p.X, p.Y)
		}
	}
	return nil
}

// checkPerimeter verifies that the outer ring of the grid is all wall, so no
// push can ever leave the grid
func checkPerimeter(g *Grid) error {
	for x := 0; x < g.width; x++ {
		for _, y := range []int{0, g.height - 1} {
			if g.Get(Position{X: x, Y: y}) != Wall {
				return fmt.Errorf("%w: (%d,%d)", ErrOpenPerimeter, x, y)
			}
		}
	}
	for y := 0; y < g.height; y++ {
		for _, x := range []int{0, g.width - 1} {
			if g.Get(Position{X: x, Y: y}) != Wall {
				return fmt.Errorf("%w: (%d,%d)", ErrOpenPerimeter, x, y)
			}
		}
	}
	return nil
}

// CheckInvariants verifies the board properties every move must preserve:
// a single robot at the recorded position and paired box halves
func (s *Simulator) CheckInvariants() error {
	robots := s.grid.Find(Robot)
	switch {
	case len(robots) == 0:
		return ErrNoRobot
	case len(robots) > 1:
		return fmt.Errorf("%w: found %d", ErrMultipleRobots, len(robots))
	case robots[0] != s.robot:
		return fmt.Errorf("robot recorded at (%d,%d) but found at (%d,%d)",
			s.robot.X, s.robot.Y, robots[0].X, robots[0].Y)
	}
	return checkPairing(s.grid)
}
