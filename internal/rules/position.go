// Package rules adapts github.com/corentings/chess/v2 into the small, purely functional
// rules capability the board client needs: legal destinations, check and game-over status.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/corentings/chess/v2"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position is an immutable decoded FEN. The zero value is an empty, unloaded position.
type Position struct {
	fen  string
	game *chess.Game
}

// ParsePosition decodes a FEN string.
func ParsePosition(fen string) (Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return Position{}, fmt.Errorf("%w: empty", ErrInvalidFEN)
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return Position{fen: fen, game: chess.NewGame(opt)}, nil
}

// IsZero reports whether no position has been loaded.
func (p Position) IsZero() bool { return p.game == nil }

// FEN returns the position string this value was decoded from.
func (p Position) FEN() string { return p.fen }

// SideToMove returns the color whose turn it is.
func (p Position) SideToMove() Color {
	if p.game == nil || p.game.Position().Turn() == chess.White {
		return White
	}
	return Black
}

// PieceAt returns the piece on sq, if any.
func (p Position) PieceAt(sq Square) (Piece, bool) {
	if p.game == nil || !sq.Valid() {
		return Piece{}, false
	}
	pc := p.game.Position().Board().Piece(toChessSquare(sq))
	if pc == chess.NoPiece {
		return Piece{}, false
	}
	return fromChessPiece(pc), true
}

// LegalDestinations lists the squares the piece on sq may move to, sorted. Promotion
// variants collapse into a single destination.
func (p Position) LegalDestinations(sq Square) []Square {
	if p.game == nil || !sq.Valid() {
		return nil
	}
	from := toChessSquare(sq)
	seen := make(map[Square]struct{})
	var out []Square
	for _, m := range p.game.Position().ValidMoves() {
		if m.S1() != from {
			continue
		}
		to := Square(m.S2().String())
		if _, ok := seen[to]; ok {
			continue
		}
		seen[to] = struct{}{}
		out = append(out, to)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsLegal reports whether from->to is a legal move in this position.
func (p Position) IsLegal(from, to Square) bool {
	for _, d := range p.LegalDestinations(from) {
		if d == to {
			return true
		}
	}
	return false
}

// IsGameOver reports checkmate, stalemate or an automatic draw.
func (p Position) IsGameOver() bool {
	if p.game == nil {
		return false
	}
	if p.game.Outcome() != chess.NoOutcome {
		return true
	}
	return len(p.game.Position().ValidMoves()) == 0
}

// grid returns the board as [file][rank].
func (p Position) grid() [8][8]Piece {
	var g [8][8]Piece
	if p.game == nil {
		return g
	}
	board := p.game.Position().Board()
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			pc := board.Piece(chess.NewSquare(chess.File(f), chess.Rank(r)))
			if pc != chess.NoPiece {
				g[f][r] = fromChessPiece(pc)
			}
		}
	}
	return g
}

func toChessSquare(sq Square) chess.Square {
	return chess.NewSquare(chess.File(sq.File()-'a'), chess.Rank(sq.Rank()-'1'))
}

func fromChessPiece(pc chess.Piece) Piece {
	out := Piece{Color: White}
	if pc.Color() == chess.Black {
		out.Color = Black
	}
	switch pc.Type() {
	case chess.Pawn:
		out.Kind = Pawn
	case chess.Knight:
		out.Kind = Knight
	case chess.Bishop:
		out.Kind = Bishop
	case chess.Rook:
		out.Kind = Rook
	case chess.Queen:
		out.Kind = Queen
	case chess.King:
		out.Kind = King
	}
	return out
}
