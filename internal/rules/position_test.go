package rules

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustPosition(t *testing.T, fen string) Position {
	t.Helper()
	p, err := ParsePosition(fen)
	if err != nil {
		t.Fatalf("parse %q: %v", fen, err)
	}
	return p
}

func TestParsePositionInvalid(t *testing.T) {
	for _, fen := range []string{"", "not a fen", "8/8/8 w - - 0 1"} {
		if _, err := ParsePosition(fen); !errors.Is(err, ErrInvalidFEN) {
			t.Fatalf("ParsePosition(%q) err = %v, want ErrInvalidFEN", fen, err)
		}
	}
}

func TestLegalDestinationsStart(t *testing.T) {
	p := mustPosition(t, StartFEN)
	if diff := cmp.Diff([]Square{"e3", "e4"}, p.LegalDestinations("e2")); diff != "" {
		t.Fatalf("e2 destinations (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Square{"f3", "h3"}, p.LegalDestinations("g1")); diff != "" {
		t.Fatalf("g1 destinations (-want +got):\n%s", diff)
	}
	if got := p.LegalDestinations("e7"); len(got) != 0 {
		t.Fatalf("black pawn should have no moves with white to move, got %v", got)
	}
	if got := p.LegalDestinations("e4"); len(got) != 0 {
		t.Fatalf("empty square should have no moves, got %v", got)
	}
}

func TestLegalDestinationsCollapsePromotions(t *testing.T) {
	p := mustPosition(t, "8/4P3/8/8/8/8/k7/7K w - - 0 1")
	if diff := cmp.Diff([]Square{"e8"}, p.LegalDestinations("e7")); diff != "" {
		t.Fatalf("promotion destinations (-want +got):\n%s", diff)
	}
}

func TestLegalDestinationsIsPure(t *testing.T) {
	p := mustPosition(t, StartFEN)
	before := p.LegalDestinations("b1")
	_ = p.InCheck(White)
	_, _ = p.KingSquare(White)
	after := p.LegalDestinations("b1")
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("destinations changed (-before +after):\n%s", diff)
	}
}

func TestPieceAtAndSideToMove(t *testing.T) {
	p := mustPosition(t, StartFEN)
	pc, ok := p.PieceAt("e1")
	if !ok || pc != (Piece{Color: White, Kind: King}) {
		t.Fatalf("e1 = %+v %v, want white king", pc, ok)
	}
	if _, ok := p.PieceAt("e4"); ok {
		t.Fatalf("e4 should be empty")
	}
	if p.SideToMove() != White {
		t.Fatalf("expected white to move")
	}
	b := mustPosition(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	if b.SideToMove() != Black {
		t.Fatalf("expected black to move")
	}
}

func TestInCheckAndKingSquare(t *testing.T) {
	// after 1.f3 e5 2.g4 Qh4#
	p := mustPosition(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	if !p.InCheck(White) {
		t.Fatalf("white should be in check")
	}
	if p.InCheck(Black) {
		t.Fatalf("black should not be in check")
	}
	sq, ok := p.KingSquare(White)
	if !ok || sq != "e1" {
		t.Fatalf("white king = %q %v, want e1", sq, ok)
	}
	if !p.IsGameOver() {
		t.Fatalf("fool's mate should be game over")
	}
}

func TestInCheckByKnightAndPawn(t *testing.T) {
	knight := mustPosition(t, "4k3/8/3N4/8/8/8/8/4K3 b - - 0 1")
	if !knight.InCheck(Black) {
		t.Fatalf("knight on d6 should check e8")
	}
	pawn := mustPosition(t, "4k3/8/8/8/8/8/3p4/4K3 w - - 0 1")
	if !pawn.InCheck(White) {
		t.Fatalf("black pawn on d2 should check e1")
	}
	blocked := mustPosition(t, "4k3/4p3/8/8/8/8/8/4R1K1 b - - 0 1")
	if blocked.InCheck(Black) {
		t.Fatalf("rook ray is blocked by the e7 pawn")
	}
}

func TestStalemateIsGameOver(t *testing.T) {
	p := mustPosition(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if p.InCheck(Black) {
		t.Fatalf("stalemated king is not in check")
	}
	if !p.IsGameOver() {
		t.Fatalf("stalemate should be game over")
	}
	if mustPosition(t, StartFEN).IsGameOver() {
		t.Fatalf("start position is not over")
	}
}
