package engine

import "fmt"

// Pushing runs in two phases for every top-level move. The feasibility pass
// walks the push graph without touching the grid; only when it succeeds does
// the commit pass shift cells, deepest first. Narrow boards never branch, so
// the same code handles both variants.

// partner returns the other half of the double-wide box whose half sits at p
func partner(p Position, kind CellKind) (Position, CellKind, bool) {
	switch kind {
	case BoxLeft:
		return p.Step(Right), BoxRight, true
	case BoxRight:
		return p.Step(Left), BoxLeft, true
	}
	return Position{}, "", false
}

// feasibility memoises answers for a single top-level query. Overlapping
// boxes in a vertical fan-out are reached through several paths.
type feasibility struct {
	grid    *Grid
	dir     Direction
	memo    map[Position]bool
	blocker *Position
}

func newFeasibility(grid *Grid, dir Direction) *feasibility {
	return &feasibility{grid: grid, dir: dir, memo: make(map[Position]bool)}
}

func (f *feasibility) check(p Position) bool {
	if ok, seen := f.memo[p]; seen {
		return ok
	}
	ok := f.eval(p)
	f.memo[p] = ok
	return ok
}

func (f *feasibility) eval(p Position) bool {
	kind := f.grid.Get(p)
	switch kind {
	case Wall:
		if f.blocker == nil {
			blocked := p
			f.blocker = &blocked
		}
		return false
	case Empty:
		return true
	}

	if f.dir.Vertical() {
		if other, _, ok := partner(p, kind); ok {
			if !f.check(other.Step(f.dir)) {
				return false
			}
		}
	}
	return f.check(p.Step(f.dir))
}

// CanPush reports whether the content of p can shift one step in d.
// It never mutates the grid.
func (s *Simulator) CanPush(p Position, d Direction) bool {
	if !d.Valid() {
		return false
	}
	return newFeasibility(s.grid, d).check(p)
}

// Push shifts the content of p and everything it pushes one step in d.
// Either every affected cell moves or none does.
func (s *Simulator) Push(p Position, d Direction) bool {
	ok, _, _ := s.push(p, d)
	return ok
}

// push returns the success flag, the new positions of the boxes that moved and,
// for blocked pushes, the first wall the feasibility pass ran into.
func (s *Simulator) push(p Position, d Direction) (bool, []Position, *Position) {
	if !d.Valid() {
		return false, nil, nil
	}
	f := newFeasibility(s.grid, d)
	if !f.check(p) {
		return false, nil, f.blocker
	}
	var moved []Position
	s.commit(p, d, &moved)
	return true, moved, nil
}

// commit shifts the cell at p, assuming feasibility already passed. A cell
// emptied earlier in the same move is a trivial success, which keeps every
// physical cell relabeled at most once.
func (s *Simulator) commit(p Position, d Direction, moved *[]Position) {
	kind := s.grid.Get(p)
	switch kind {
	case Empty:
		return
	case Wall:
		panic(fmt.Sprintf("engine: commit reached wall at (%d,%d) moving %s", p.X, p.Y, d))
	}

	if d.Vertical() {
		if other, otherKind, ok := partner(p, kind); ok {
			next := other.Step(d)
			s.commit(next, d, moved)
			s.grid.Set(next, otherKind)
			s.grid.Set(other, Empty)
			if otherKind == BoxLeft {
				*moved = append(*moved, next)
			}
		}
	}

	next := p.Step(d)
	s.commit(next, d, moved)
	s.grid.Set(next, kind)
	s.grid.Set(p, Empty)
	if kind == Box || kind == BoxLeft {
		*moved = append(*moved, next)
	}
}
