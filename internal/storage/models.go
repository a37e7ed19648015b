package storage

import (
	"time"

	"github.com/google/uuid"
)

// Game is one human-versus-engine game.
type Game struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	FEN         string
	PGN         string
	WhitePlayer string
	BlackPlayer string
	EngineElo   int
	EngineTime  float64
	Status      string
	Result      string
	Termination string
	OpeningName string
	TotalMoves  int
	Active      bool `gorm:"index"`
	CompletedAt *time.Time
	LastSeen    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Moves       []Move `gorm:"constraint:OnDelete:CASCADE;"`
}

// Move stores a single ply.
type Move struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GameID       uuid.UUID `gorm:"type:uuid;index"`
	Ply          int       `gorm:"index"`
	MoveNumber   int
	MoveNotation string
	UCI          string
	Color        string
	FENAfter     string
	Evaluation   *float64
	BestMove     string
	CreatedAt    time.Time
}
