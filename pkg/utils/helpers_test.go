package utils

import "testing"

func TestRandomHexLength(t *testing.T) {
	a, b := RandomHex(4), RandomHex(4)
	if len(a) != 8 || len(b) != 8 {
		t.Fatalf("expected 8 characters, got %q and %q", a, b)
	}
	if a == b {
		t.Fatalf("two ids collided: %s", a)
	}
}
