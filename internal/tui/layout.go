// Package tui draws the board in a terminal with termbox and turns mouse and key events
// into controller calls.
package tui

import "tinyboard/internal/rules"

// Square cell size in terminal cells. Odd height keeps the piece on the middle row.
const (
	SquareW = 5
	SquareH = 3
)

// Layout maps between board squares and terminal coordinates.
type Layout struct {
	OX, OY  int
	Flipped bool // black at the bottom
}

// NewLayout orients the board so the human's pieces sit at the bottom.
func NewLayout(human rules.Color) Layout {
	return Layout{OX: 3, OY: 1, Flipped: human == rules.Black}
}

// Origin returns the top-left terminal cell of sq.
func (l Layout) Origin(sq rules.Square) (x, y int) {
	f, r := int(sq.File()-'a'), int(sq.Rank()-'1')
	col, row := f, 7-r
	if l.Flipped {
		col, row = 7-f, r
	}
	return l.OX + col*SquareW, l.OY + row*SquareH
}

// SquareAt returns the square under a terminal cell.
func (l Layout) SquareAt(x, y int) (rules.Square, bool) {
	dx, dy := x-l.OX, y-l.OY
	if dx < 0 || dy < 0 {
		return "", false
	}
	col, row := dx/SquareW, dy/SquareH
	if col > 7 || row > 7 {
		return "", false
	}
	f, r := col, 7-row
	if l.Flipped {
		f, r = 7-col, row
	}
	return rules.SquareAt(f, r), true
}

// Width is the board width including the rank labels.
func (l Layout) Width() int { return l.OX + 8*SquareW }

// Height is the board height including the file labels.
func (l Layout) Height() int { return l.OY + 8*SquareH + 1 }

// Light reports whether sq is a light square.
func Light(sq rules.Square) bool {
	return (int(sq.File()-'a')+int(sq.Rank()-'1'))%2 == 1
}
