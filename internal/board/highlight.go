package board

import (
	"strings"

	"tinyboard/internal/rules"
)

// Highlight is a set of highlight categories for one square.
type Highlight uint8

const (
	Selected Highlight = 1 << iota
	LegalTarget
	LastMoveEndpoint
	KingInCheck
)

// Has reports whether all bits of c are set.
func (h Highlight) Has(c Highlight) bool { return h&c == c }

func (h Highlight) String() string {
	var parts []string
	for _, c := range []struct {
		bit  Highlight
		name string
	}{
		{Selected, "selected"},
		{LegalTarget, "target"},
		{LastMoveEndpoint, "last"},
		{KingInCheck, "check"},
	} {
		if h.Has(c.bit) {
			parts = append(parts, c.name)
		}
	}
	return strings.Join(parts, "|")
}

// Highlights maps squares to their categories.
type Highlights map[rules.Square]Highlight

// Derive computes the highlight map. Categories are OR-ed, so a square can carry several.
func Derive(sel *Selection, lastMove string, pos rules.Position) Highlights {
	out := make(Highlights)
	if sq, ok := sel.Selected(); ok {
		out[sq] |= Selected
		for _, d := range sel.dests {
			out[d] |= LegalTarget
		}
	}
	if mv, err := rules.ParseMoveCode(lastMove); err == nil {
		out[mv.From] |= LastMoveEndpoint
		out[mv.To] |= LastMoveEndpoint
	}
	if !pos.IsZero() {
		side := pos.SideToMove()
		if pos.InCheck(side) {
			if k, ok := pos.KingSquare(side); ok {
				out[k] |= KingInCheck
			}
		}
	}
	return out
}

// HighlightCache memoizes Derive on (selection, last move, position).
type HighlightCache struct {
	key   string
	value Highlights
	valid bool
}

// Get returns the cached map or recomputes it when the inputs changed.
func (c *HighlightCache) Get(sel *Selection, lastMove string, pos rules.Position) Highlights {
	key := sel.key() + "|" + lastMove + "|" + pos.FEN()
	if c.valid && c.key == key {
		return c.value
	}
	c.key = key
	c.value = Derive(sel, lastMove, pos)
	c.valid = true
	return c.value
}
