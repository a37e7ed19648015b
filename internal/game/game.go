package game

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
	"github.com/google/uuid"

	"tinyboard/internal/api"
	"tinyboard/internal/rules"
)

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

func book() *opening.BookECO {
	ecoOnce.Do(func() { ecoBook = opening.NewBookECO() })
	return ecoBook
}

// NewSession creates a session at the starting position.
func NewSession(id uuid.UUID, elo int, think float64) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		g:          chess.NewGame(),
		Human:      "white",
		EngineElo:  elo,
		EngineTime: think,
		StartedAt:  now,
		LastSeen:   now,
	}
}

// Touch updates the last seen timestamp
func (s *Session) Touch() {
	s.Mu.Lock()
	s.LastSeen = time.Now()
	s.Mu.Unlock()
}

// MakeMove applies a move code and returns what was played. The game is untouched on error.
func (s *Session) MakeMove(code string) (Played, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.makeMoveLocked(code)
}

func (s *Session) makeMoveLocked(code string) (Played, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if _, err := rules.ParseMoveCode(code); err != nil {
		return Played{}, fmt.Errorf("%w: %q", ErrInvalidMove, code)
	}
	if s.g.Outcome() != chess.NoOutcome {
		return Played{}, ErrGameOver
	}

	before := s.g.Position()
	color := colorName(before.Turn())
	number := len(s.uci)/2 + 1

	mv, ok := legalMove(before, code)
	if !ok {
		return Played{}, fmt.Errorf("%w: %s", ErrIllegalMove, code)
	}
	if err := s.g.Move(mv, nil); err != nil {
		return Played{}, fmt.Errorf("%w: %s", ErrIllegalMove, code)
	}
	s.uci = append(s.uci, code)
	s.LastSeen = time.Now()

	return Played{
		Number:   number,
		Ply:      len(s.uci),
		UCI:      code,
		SAN:      s.lastSANLocked(),
		Color:    color,
		FENAfter: s.g.FEN(),
	}, nil
}

// lastSANLocked encodes the last move against the position it was played from, so check
// and capture markers come out right.
func (s *Session) lastSANLocked() string {
	moves := s.g.Moves()
	positions := s.g.Positions()
	i := len(moves) - 1
	if i < 0 || i >= len(positions) {
		return ""
	}
	return chess.AlgebraicNotation{}.Encode(positions[i], moves[i])
}

// Replay applies stored move codes to a fresh session, used to rehydrate from storage.
func (s *Session) Replay(codes []string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	for _, c := range codes {
		if _, err := s.makeMoveLocked(c); err != nil {
			return fmt.Errorf("replay %s: %w", c, err)
		}
	}
	return nil
}

// FEN returns the current position.
func (s *Session) FEN() string {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.g.FEN()
}

// MovesUCI returns the list of moves in UCI notation
func (s *Session) MovesUCI() []string {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return append([]string(nil), s.uci...)
}

// Over reports whether the game has ended.
func (s *Session) Over() bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.g.Outcome() != chess.NoOutcome
}

// StateLocked returns the current game state (must be called with lock held)
func (s *Session) StateLocked() api.GameState {
	pos := s.g.Position()
	st := api.GameState{
		GameID:      s.ID.String(),
		FEN:         s.g.FEN(),
		Turn:        colorName(pos.Turn()),
		LegalMoves:  legalMoves(pos),
		MoveHistory: append([]string{}, s.uci...),
	}
	if n := len(s.uci); n > 0 {
		st.LastMove = s.uci[n-1]
	}
	if s.g.Outcome() != chess.NoOutcome {
		st.GameOver = true
		st.Result = s.g.Outcome().String()
		st.Termination = termination(s.g.Method())
	}
	return st
}

// State locks and returns the current game state.
func (s *Session) State() api.GameState {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.StateLocked()
}

// PGNLocked renders the game with its headers.
func (s *Session) PGNLocked(now time.Time) string {
	g := s.g.Clone()
	g.AddTagPair("Event", "Online Game")
	g.AddTagPair("Date", now.Format("2006.01.02"))
	white, black := s.Players()
	g.AddTagPair("White", white)
	g.AddTagPair("Black", black)
	g.AddTagPair("Result", g.Outcome().String())
	return g.String()
}

// HumanName is the player name recorded for the human seat.
const HumanName = "Human"

// Players returns the white and black player names.
func (s *Session) Players() (white, black string) {
	engine := fmt.Sprintf("Stockfish (%d)", s.EngineElo)
	if s.Human == "black" {
		return engine, HumanName
	}
	return HumanName, engine
}

// OpeningLocked names the opening once a few plies were played.
func (s *Session) OpeningLocked() string {
	if len(s.uci) < 4 {
		return ""
	}
	b := book()
	if b == nil {
		return ""
	}
	if o := b.Find(s.g.Moves()); o != nil {
		return o.Title()
	}
	return "Unknown Opening"
}

// PositionType buckets a position by its piece count.
func PositionType(pieces int) string {
	switch {
	case pieces > 24:
		return "Opening"
	case pieces > 10:
		return "Middlegame"
	default:
		return "Endgame"
	}
}

func colorName(c chess.Color) string {
	if c == chess.Black {
		return "black"
	}
	return "white"
}

func termination(m chess.Method) string {
	switch m {
	case chess.Checkmate:
		return "Checkmate"
	case chess.Stalemate:
		return "Stalemate"
	case chess.InsufficientMaterial:
		return "Insufficient material"
	case chess.SeventyFiveMoveRule:
		return "75-move rule"
	case chess.FivefoldRepetition:
		return "Fivefold repetition"
	case chess.ThreefoldRepetition, chess.FiftyMoveRule:
		return "Draw by repetition"
	}
	return "Unknown"
}

func promoLetter(pt chess.PieceType) string {
	switch pt {
	case chess.Queen:
		return "q"
	case chess.Rook:
		return "r"
	case chess.Bishop:
		return "b"
	case chess.Knight:
		return "n"
	}
	return ""
}

// legalMove resolves a move code against the legal moves of pos. Decoding alone accepts
// any pair of squares, so the decoded move must also be found among ValidMoves.
func legalMove(pos *chess.Position, code string) (*chess.Move, bool) {
	mv, err := chess.UCINotation{}.Decode(pos, code)
	if err != nil || mv == nil {
		return nil, false
	}
	for _, v := range pos.ValidMoves() {
		if v.S1() == mv.S1() && v.S2() == mv.S2() && v.Promo() == mv.Promo() {
			return &v, true
		}
	}
	return nil, false
}

func legalMoves(pos *chess.Position) []string {
	moves := pos.ValidMoves()
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.S1().String()+m.S2().String()+promoLetter(m.Promo()))
	}
	return out
}

// SANLine converts up to max plies of a UCI principal variation into SAN, stopping at the
// first move that does not apply.
func SANLine(fen string, pv []string, max int) []string {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil
	}
	g := chess.NewGame(opt)
	var out []string
	for _, code := range pv {
		if max > 0 && len(out) >= max {
			break
		}
		pos := g.Position()
		mv, ok := legalMove(pos, code)
		if !ok {
			break
		}
		san := chess.AlgebraicNotation{}.Encode(pos, mv)
		if err := g.Move(mv, nil); err != nil {
			break
		}
		out = append(out, san)
	}
	return out
}

// Describe reports the side to move and position type of a FEN.
func Describe(fen string) (turn, positionType string, err error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return "", "", err
	}
	pos := chess.NewGame(opt).Position()
	return colorName(pos.Turn()), PositionType(len(pos.Board().SquareMap())), nil
}
