package buildinfo

import (
	"strings"
	"testing"
)

func TestStringHasDate(t *testing.T) {
	s := String()
	if !strings.HasSuffix(s, ")") || !strings.Contains(s, " (") {
		t.Fatalf("unexpected version %q", s)
	}
	if Commit == "" || Date == "" {
		t.Fatalf("commit or date empty: %q %q", Commit, Date)
	}
}
