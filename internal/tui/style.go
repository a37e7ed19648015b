package tui

import (
	"github.com/nsf/termbox-go"

	"tinyboard/internal/board"
	"tinyboard/internal/rules"
)

// Board palette.
const (
	LightBg    = termbox.ColorWhite
	DarkBg     = termbox.ColorGreen
	SelectedBg = termbox.ColorYellow
	WhiteFg    = termbox.ColorBlue | termbox.AttrBold
	BlackFg    = termbox.ColorBlack
	CheckFg    = termbox.ColorRed | termbox.AttrBold
)

// Cell is how one square is drawn. Each highlight category owns its own channel so any
// combination stays visible.
type Cell struct {
	Fg, Bg   termbox.Attribute
	Dot      bool // empty legal target
	Brackets bool // occupied legal target
}

// StyleFor composes the drawing of a square from its highlight set.
func StyleFor(h board.Highlight, light bool, piece rules.Piece, occupied bool) Cell {
	c := Cell{Bg: DarkBg, Fg: BlackFg}
	if light {
		c.Bg = LightBg
	}
	if occupied && piece.Color == rules.White {
		c.Fg = WhiteFg
	}
	if h.Has(board.Selected) {
		c.Bg = SelectedBg
	}
	if h.Has(board.LegalTarget) {
		c.Dot = !occupied
		c.Brackets = occupied
	}
	if h.Has(board.KingInCheck) {
		c.Fg = CheckFg
	}
	if h.Has(board.LastMoveEndpoint) {
		c.Fg |= termbox.AttrUnderline
	}
	return c
}
