// Package board holds the client's local view of the game: the position mirror, the
// selection state machine and highlight derivation. Nothing here talks to the network.
package board

import (
	"tinyboard/internal/rules"
)

// Mirror is the local copy of the authoritative position. It has a single writer (the
// controller) and is only ever replaced wholesale.
type Mirror struct {
	pos rules.Position
}

// NewMirror returns an empty mirror.
func NewMirror() *Mirror { return &Mirror{} }

// Replace swaps in the position decoded from fen. On error the previous position stays.
func (m *Mirror) Replace(fen string) error {
	p, err := rules.ParsePosition(fen)
	if err != nil {
		return err
	}
	m.pos = p
	return nil
}

// Clear drops the position.
func (m *Mirror) Clear() { m.pos = rules.Position{} }

// Position returns the current snapshot.
func (m *Mirror) Position() rules.Position { return m.pos }

// Loaded reports whether a position is present.
func (m *Mirror) Loaded() bool { return !m.pos.IsZero() }

// SideToMove of the current position.
func (m *Mirror) SideToMove() rules.Color { return m.pos.SideToMove() }

// PieceAt forwards to the current position.
func (m *Mirror) PieceAt(sq rules.Square) (rules.Piece, bool) { return m.pos.PieceAt(sq) }

// Movable reports whether sq holds a piece of the side to move with at least one legal move,
// returning those destinations.
func (m *Mirror) Movable(sq rules.Square) ([]rules.Square, bool) {
	pc, ok := m.pos.PieceAt(sq)
	if !ok || pc.Color != m.pos.SideToMove() {
		return nil, false
	}
	dests := m.pos.LegalDestinations(sq)
	return dests, len(dests) > 0
}

// InCheck reports whether the side to move is in check.
func (m *Mirror) InCheck() bool {
	return m.Loaded() && m.pos.InCheck(m.pos.SideToMove())
}
