package board

import "tinyboard/internal/rules"

// Selection is the click/drag targeting state machine. The zero value is Idle.
type Selection struct {
	square rules.Square
	dests  []rules.Square
}

// Selected returns the selected square, if any.
func (s *Selection) Selected() (rules.Square, bool) {
	return s.square, s.square != ""
}

// Destinations returns a copy of the legal destinations of the selected square.
func (s *Selection) Destinations() []rules.Square {
	return append([]rules.Square(nil), s.dests...)
}

// Idle reports whether nothing is selected.
func (s *Selection) Idle() bool { return s.square == "" }

// Reset returns to Idle. Used on completed moves and every external refresh.
func (s *Selection) Reset() {
	s.square = ""
	s.dests = nil
}

// Select enters Selected(sq) when sq holds a movable piece of the side to move.
func (s *Selection) Select(sq rules.Square, m *Mirror) bool {
	dests, ok := m.Movable(sq)
	if !ok {
		s.Reset()
		return false
	}
	s.square = sq
	s.dests = dests
	return true
}

func (s *Selection) targets(sq rules.Square) bool {
	for _, d := range s.dests {
		if d == sq {
			return true
		}
	}
	return false
}

// Click applies one click. When the click completes a gesture on a legal destination it
// returns the attempted move and the machine is back in Idle.
func (s *Selection) Click(sq rules.Square, m *Mirror) (rules.Move, bool) {
	if s.Idle() {
		s.Select(sq, m)
		return rules.Move{}, false
	}
	if sq == s.square {
		s.Reset()
		return rules.Move{}, false
	}
	if s.targets(sq) {
		mv := rules.Move{From: s.square, To: sq}
		s.Reset()
		return mv, true
	}
	s.Select(sq, m)
	return rules.Move{}, false
}

// key identifies the selection for memoization.
func (s *Selection) key() string {
	k := string(s.square)
	for _, d := range s.dests {
		k += "," + string(d)
	}
	return k
}
