package game

import (
	"errors"
	"sync"
	"time"

	"github.com/corentings/chess/v2"
	"github.com/google/uuid"
)

var (
	// ErrIllegalMove is returned for a well-formed move code that the position does not allow.
	ErrIllegalMove = errors.New("illegal move")
	// ErrInvalidMove is returned for text that is not a move code.
	ErrInvalidMove = errors.New("invalid move format")
	// ErrGameOver is returned when moving in a finished game.
	ErrGameOver = errors.New("game is over")
)

// Hub manages all live game sessions.
type Hub struct {
	Mu       sync.Mutex
	Sessions map[uuid.UUID]*Session
	// OnEvict is called, outside the hub lock, for every session dropped by Sweep.
	OnEvict func(id uuid.UUID)
}

// Session is one human-versus-engine game.
type Session struct {
	Mu         sync.Mutex
	ID         uuid.UUID
	g          *chess.Game
	uci        []string
	Human      string // "white" or "black"
	EngineElo  int
	EngineTime float64 // seconds
	StartedAt  time.Time
	LastSeen   time.Time
}

// Played describes a move that was just applied.
type Played struct {
	Number   int // full-move number the move belongs to
	Ply      int
	UCI      string
	SAN      string
	Color    string
	FENAfter string
}
