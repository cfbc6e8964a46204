package engine

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Puzzle is a parsed warehouse input: the map rows and the move script
type Puzzle struct {
	Layout []string
	Moves  []Direction
}

// The input is a block of map rows, a blank line, then any number of move
// lines. A map row ends at its newline; the first line that starts with no
// map token closes the map.
type puzzleGrammar struct {
	Rows  []*rowGrammar `parser:"EOL* ( @@ EOL? )+"`
	Moves []string      `parser:"( @Move | Row | Other | EOL )*"`
}

type rowGrammar struct {
	Cells []string `parser:"( @Row | @Other )+"`
}

var (
	puzzleLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "EOL", Pattern: `\r?\n`},
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Row", Pattern: `[#O@.\[\]]+`},
		{Name: "Move", Pattern: `[\^v<>]`},
		{Name: "Other", Pattern: `\S`},
	})

	puzzleParser = participle.MustBuild[puzzleGrammar](
		participle.Lexer(puzzleLexer),
		participle.Elide("Whitespace"),
	)
)

// ParsePuzzle parses the plain text puzzle format. Characters in the move
// section other than ^ v < > are skipped. The layout is returned as written;
// BuildGrid performs the structural checks.
func ParsePuzzle(input string) (*Puzzle, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyLayout
	}

	parsed, err := puzzleParser.ParseString("puzzle", input)
	if err != nil {
		return nil, fmt.Errorf("parse puzzle: %w", err)
	}

	puzzle := &Puzzle{
		Layout: make([]string, 0, len(parsed.Rows)),
		Moves:  make([]Direction, 0, len(parsed.Moves)),
	}
	for _, row := range parsed.Rows {
		puzzle.Layout = append(puzzle.Layout, strings.Join(row.Cells, ""))
	}
	for _, sym := range parsed.Moves {
		if d, ok := ParseDirection(sym); ok {
			puzzle.Moves = append(puzzle.Moves, d)
		}
	}
	return puzzle, nil
}

// DecodeMoves turns a move script into directions, skipping anything that is not ^ v < >
func DecodeMoves(script string) []Direction {
	moves := make([]Direction, 0, len(script))
	for i := 0; i < len(script); i++ {
		switch script[i] {
		case '^':
			moves = append(moves, Up)
		case 'v':
			moves = append(moves, Down)
		case '<':
			moves = append(moves, Left)
		case '>':
			moves = append(moves, Right)
		}
	}
	return moves
}

// EncodeMoves renders directions back into script symbols
func EncodeMoves(moves []Direction) string {
	buf := make([]byte, len(moves))
	for i, d := range moves {
		buf[i] = d.Symbol()
	}
	return string(buf)
}
