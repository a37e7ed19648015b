package controller

import "tinyboard/internal/rules"

// Mode is the interaction mode. Exactly one holds at a time.
type Mode uint8

const (
	AwaitingHumanInput Mode = iota
	MoveInFlight
	OpponentThinking
	GameOver
)

func (m Mode) String() string {
	switch m {
	case AwaitingHumanInput:
		return "your move"
	case MoveInFlight:
		return "submitting"
	case OpponentThinking:
		return "thinking"
	case GameOver:
		return "game over"
	}
	return "unknown"
}

// MoveCode serializes a gesture for transport. A pawn reaching its far rank always promotes
// to a queen, whatever promotion the caller asked for.
func MoveCode(mv rules.Move, moving rules.Piece) string {
	mv.Promotion = rules.NoKind
	if moving.Kind == rules.Pawn && mv.To.Valid() && mv.To.Rank() == moving.Color.FarRank() {
		mv.Promotion = rules.Queen
	}
	return mv.Code()
}
