package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps a gorm DB instance and provides helper methods for persisting games.
// A nil *Store is valid and turns every write into a no-op.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// DB exposes the underlying gorm DB instance.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Enabled reports whether a database is attached.
func (s *Store) Enabled() bool { return s != nil && s.db != nil }

// ErrNotFound is returned when a record is not found.
var ErrNotFound = gorm.ErrRecordNotFound

// GameStateUpdate represents a partial update to a game row.
type GameStateUpdate struct {
	FEN         *string
	PGN         *string
	Status      *string
	Result      *string
	Termination *string
	OpeningName *string
	TotalMoves  *int
	Active      *bool
	LastSeen    *time.Time
	CompletedAt *time.Time
}

// NewGame holds the fields known when a game starts.
type NewGame struct {
	ID          uuid.UUID
	WhitePlayer string
	BlackPlayer string
	EngineElo   int
	EngineTime  float64
	FEN         string
	StartedAt   time.Time
}

// CreateGame inserts a new game row.
func (s *Store) CreateGame(ctx context.Context, g NewGame) error {
	if s == nil {
		return nil
	}
	row := Game{
		ID:          g.ID,
		FEN:         g.FEN,
		WhitePlayer: g.WhitePlayer,
		BlackPlayer: g.BlackPlayer,
		EngineElo:   g.EngineElo,
		EngineTime:  g.EngineTime,
		Status:      "Active",
		Active:      true,
		LastSeen:    g.StartedAt,
		CreatedAt:   g.StartedAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// SaveGameState applies partial updates to the game row.
func (s *Store) SaveGameState(ctx context.Context, id uuid.UUID, upd GameStateUpdate) error {
	if s == nil {
		return nil
	}
	updates := make(map[string]any)
	if upd.FEN != nil {
		updates["fen"] = *upd.FEN
	}
	if upd.PGN != nil {
		updates["pgn"] = *upd.PGN
	}
	if upd.Status != nil {
		updates["status"] = *upd.Status
	}
	if upd.Result != nil {
		updates["result"] = *upd.Result
	}
	if upd.Termination != nil {
		updates["termination"] = *upd.Termination
	}
	if upd.OpeningName != nil {
		updates["opening_name"] = *upd.OpeningName
	}
	if upd.TotalMoves != nil {
		updates["total_moves"] = *upd.TotalMoves
	}
	if upd.Active != nil {
		updates["active"] = *upd.Active
	}
	if upd.LastSeen != nil {
		updates["last_seen"] = *upd.LastSeen
	}
	if upd.CompletedAt != nil {
		updates["completed_at"] = *upd.CompletedAt
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&Game{}).Where("id = ?", id).Updates(updates).Error
}

// RecordMove inserts a move row and advances the game's position in one transaction.
func (s *Store) RecordMove(ctx context.Context, m Move) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		return tx.Model(&Game{}).Where("id = ?", m.GameID).Updates(map[string]any{
			"fen":         m.FENAfter,
			"total_moves": m.Ply,
			"last_seen":   time.Now(),
		}).Error
	})
}

// Completion describes how a game ended.
type Completion struct {
	Result      string
	Termination string
	PGN         string
	OpeningName string
	At          time.Time
}

// CompleteGame marks a game as finished.
func (s *Store) CompleteGame(ctx context.Context, id uuid.UUID, c Completion) error {
	if s == nil {
		return nil
	}
	status := "Completed"
	active := false
	return s.SaveGameState(ctx, id, GameStateUpdate{
		Status:      &status,
		Result:      &c.Result,
		Termination: &c.Termination,
		PGN:         &c.PGN,
		OpeningName: &c.OpeningName,
		Active:      &active,
		CompletedAt: &c.At,
	})
}

// PersistedGame is a game row with its moves in play order.
type PersistedGame struct {
	Game  Game
	Moves []Move
}

// MoveCodes returns the stored moves as UCI codes.
func (p *PersistedGame) MoveCodes() []string {
	out := make([]string, 0, len(p.Moves))
	for _, m := range p.Moves {
		out = append(out, m.UCI)
	}
	return out
}

// LoadGame fetches a persisted game and its moves.
func (s *Store) LoadGame(ctx context.Context, id uuid.UUID) (*PersistedGame, error) {
	if s == nil {
		return nil, ErrNotFound
	}
	var game Game
	if err := s.db.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		return nil, err
	}
	var moves []Move
	if err := s.db.WithContext(ctx).
		Where("game_id = ?", id).
		Order("ply asc").
		Find(&moves).Error; err != nil {
		return nil, err
	}
	return &PersistedGame{Game: game, Moves: moves}, nil
}

// ListFinished pages through completed games, newest first.
func (s *Store) ListFinished(ctx context.Context, limit, offset int) ([]Game, int64, error) {
	if s == nil {
		return nil, 0, nil
	}
	var total int64
	q := s.db.WithContext(ctx).Model(&Game{}).Where("completed_at IS NOT NULL AND status = ?", "Completed")
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var games []Game
	if err := q.Order("completed_at desc").Limit(limit).Offset(offset).Find(&games).Error; err != nil {
		return nil, 0, err
	}
	return games, total, nil
}

// Stats represents aggregate counts for games.
type Stats struct {
	Started   int64
	Completed int64
	Active    int64
}

// FetchStats aggregates game counts for the health endpoint.
func (s *Store) FetchStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if s == nil {
		return stats, nil
	}
	if err := s.db.WithContext(ctx).Model(&Game{}).Count(&stats.Started).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&Game{}).Where("active = ?", true).Count(&stats.Active).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&Game{}).Where("completed_at IS NOT NULL").Count(&stats.Completed).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

// UpdateLastSeen updates the last seen timestamp for a game.
func (s *Store) UpdateLastSeen(ctx context.Context, id uuid.UUID, lastSeen time.Time) error {
	if s == nil {
		return nil
	}
	return s.SaveGameState(ctx, id, GameStateUpdate{LastSeen: &lastSeen})
}

// ForgetGame marks a game as abandoned after it idled out of memory.
func (s *Store) ForgetGame(ctx context.Context, id uuid.UUID, when time.Time) error {
	if s == nil {
		return nil
	}
	status := "Abandoned"
	active := false
	return s.db.WithContext(ctx).Model(&Game{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{"status": status, "active": active, "completed_at": when}).Error
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
