package rules

import (
	"errors"
	"testing"
)

func TestParseMoveCode(t *testing.T) {
	m, err := ParseMoveCode("E7E8Q")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.From != "e7" || m.To != "e8" || m.Promotion != Queen {
		t.Fatalf("unexpected move %+v", m)
	}
	if m.Code() != "e7e8q" {
		t.Fatalf("code = %q", m.Code())
	}
	for _, bad := range []string{"", "e2", "e2e9", "i2e4", "e7e8k", "e2e4e5"} {
		if _, err := ParseMoveCode(bad); !errors.Is(err, ErrInvalidMoveCode) {
			t.Fatalf("ParseMoveCode(%q) err = %v", bad, err)
		}
	}
}

func TestSquareHelpers(t *testing.T) {
	if SquareAt(4, 3) != "e4" {
		t.Fatalf("SquareAt(4,3) = %q", SquareAt(4, 3))
	}
	if _, err := ParseSquare("z9"); !errors.Is(err, ErrInvalidSquare) {
		t.Fatalf("expected ErrInvalidSquare, got %v", err)
	}
	if Square("h8").Valid() != true || Square("h9").Valid() {
		t.Fatalf("Valid mismatch")
	}
}

func TestColor(t *testing.T) {
	if White.FarRank() != '8' || Black.FarRank() != '1' {
		t.Fatalf("far ranks wrong")
	}
	c, err := ParseColor("b")
	if err != nil || c != Black {
		t.Fatalf("ParseColor(b) = %v %v", c, err)
	}
	if Black.Other() != White || Black.String() != "black" {
		t.Fatalf("color helpers wrong")
	}
	if (Piece{Color: White, Kind: Knight}).Symbol() != "N" || (Piece{Color: Black, Kind: Queen}).Symbol() != "q" {
		t.Fatalf("symbols wrong")
	}
}
