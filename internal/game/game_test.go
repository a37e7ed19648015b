package game

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func newTestSession() *Session {
	return NewSession(uuid.New(), 1320, 0.1)
}

func TestMakeMoveValid(t *testing.T) {
	s := newTestSession()
	p, err := s.MakeMove("e2e4")
	if err != nil {
		t.Fatalf("expected move to be valid, got error: %v", err)
	}
	fen := p.FENAfter
	p.FENAfter = ""
	want := Played{Number: 1, Ply: 1, UCI: "e2e4", SAN: "e4", Color: "white"}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("played mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(fen, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b") {
		t.Fatalf("unexpected fen %q", fen)
	}
}

func TestMakeMoveInvalid(t *testing.T) {
	s := newTestSession()
	if _, err := s.MakeMove("e2e5"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected illegal move, got %v", err)
	}
	if _, err := s.MakeMove("hello"); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected invalid move, got %v", err)
	}
	if got := s.MovesUCI(); len(got) != 0 {
		t.Fatalf("history changed after rejected moves: %v", got)
	}
}

func TestMakeMoveRejectsUnreachableSquares(t *testing.T) {
	s := newTestSession()
	for _, code := range []string{"e2e5", "e1e3", "a1a5", "g1g3", "e7e5"} {
		if _, err := s.MakeMove(code); !errors.Is(err, ErrIllegalMove) {
			t.Fatalf("%s: expected illegal move, got %v", code, err)
		}
	}
	if got := s.FEN(); got != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1" {
		t.Fatalf("position changed after rejected moves: %q", got)
	}
}

func TestMakeMoveRejectsWrongSide(t *testing.T) {
	s := newTestSession()
	if _, err := s.MakeMove("e2e4"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.MakeMove("d2d4"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected white move with black to move to be illegal, got %v", err)
	}
	if diff := cmp.Diff([]string{"e2e4"}, s.MovesUCI()); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestReplayStopsAtIllegalMove(t *testing.T) {
	s := newTestSession()
	err := s.Replay([]string{"e2e4", "d2d4"})
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected illegal move from replay, got %v", err)
	}
}

func TestStateAfterMoves(t *testing.T) {
	s := newTestSession()
	for _, m := range []string{"e2e4", "e7e5"} {
		if _, err := s.MakeMove(m); err != nil {
			t.Fatalf("move %s: %v", m, err)
		}
	}
	st := s.State()
	if st.Turn != "white" || st.LastMove != "e7e5" || st.GameOver {
		t.Fatalf("unexpected state %+v", st)
	}
	if diff := cmp.Diff([]string{"e2e4", "e7e5"}, st.MoveHistory); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
	if len(st.LegalMoves) != 29 {
		t.Fatalf("expected 29 legal moves, got %d", len(st.LegalMoves))
	}
}

func TestCheckmateEndsGame(t *testing.T) {
	s := newTestSession()
	if err := s.Replay([]string{"f2f3", "e7e5", "g2g4", "d8h4"}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	st := s.State()
	if !st.GameOver || st.Result != "0-1" || st.Termination != "Checkmate" {
		t.Fatalf("expected black win by mate, got %+v", st)
	}
	if _, err := s.MakeMove("a2a3"); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected game over, got %v", err)
	}
}

func TestPromotionCode(t *testing.T) {
	s := newTestSession()
	moves := []string{"a2a4", "b7b5", "a4b5", "a7a6", "b5a6", "c8b7", "a6b7", "h7h6"}
	if err := s.Replay(moves); err != nil {
		t.Fatalf("replay: %v", err)
	}
	found := false
	for _, m := range s.State().LegalMoves {
		if m == "b7a8q" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected b7a8q among legal moves")
	}
	p, err := s.MakeMove("b7a8q")
	if err != nil {
		t.Fatalf("promotion: %v", err)
	}
	if !strings.HasPrefix(p.SAN, "bxa8=Q") {
		t.Fatalf("unexpected san %q", p.SAN)
	}
}

func TestPGNHeaders(t *testing.T) {
	s := newTestSession()
	if _, err := s.MakeMove("e2e4"); err != nil {
		t.Fatal(err)
	}
	s.Mu.Lock()
	pgn := s.PGNLocked(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	s.Mu.Unlock()
	for _, want := range []string{`[Event "Online Game"]`, `[Date "2024.03.09"]`, `[Black "Stockfish (1320)"]`, "e4"} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("pgn missing %q:\n%s", want, pgn)
		}
	}
}

func TestPGNHumanAsBlack(t *testing.T) {
	s := newTestSession()
	s.Human = "black"
	s.Mu.Lock()
	pgn := s.PGNLocked(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	s.Mu.Unlock()
	for _, want := range []string{`[White "Stockfish (1320)"]`, `[Black "Human"]`} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("pgn missing %q:\n%s", want, pgn)
		}
	}
}

func TestPositionType(t *testing.T) {
	cases := map[int]string{32: "Opening", 25: "Opening", 24: "Middlegame", 11: "Middlegame", 10: "Endgame", 2: "Endgame"}
	for n, want := range cases {
		if got := PositionType(n); got != want {
			t.Fatalf("PositionType(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestSANLine(t *testing.T) {
	got := SANLine("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		[]string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "a7a6", "b5a4"}, 5)
	want := []string{"e4", "e5", "Nf3", "Nc6", "Bb5"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("san line mismatch (-want +got):\n%s", diff)
	}
	if got := SANLine("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", []string{"e2e5"}, 5); len(got) != 0 {
		t.Fatalf("expected empty line for illegal pv, got %v", got)
	}
	got = SANLine("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", []string{"e2e4", "d2d4", "e7e5"}, 5)
	if diff := cmp.Diff([]string{"e4"}, got); diff != "" {
		t.Fatalf("expected line to stop at wrong-side move (-want +got):\n%s", diff)
	}
}

func TestDescribe(t *testing.T) {
	turn, kind, err := Describe("8/8/8/8/8/k7/8/K6R b - - 0 1")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if turn != "black" || kind != "Endgame" {
		t.Fatalf("got %s %s", turn, kind)
	}
	if _, _, err := Describe("not a fen"); err == nil {
		t.Fatalf("expected error for bad fen")
	}
}
