package engine

import (
	"testing"
	"time"

	"github.com/freeeve/uci"
	"github.com/google/go-cmp/cmp"
)

func TestMovetime(t *testing.T) {
	cases := []struct {
		think time.Duration
		want  int64
	}{
		{0, 1},
		{500 * time.Microsecond, 1},
		{50 * time.Millisecond, 50},
		{100 * time.Millisecond, 100},
		{5 * time.Second, 5000},
	}
	for _, c := range cases {
		if got := movetime(c.think); got != c.want {
			t.Fatalf("movetime(%v) = %d, want %d", c.think, got, c.want)
		}
	}
}

func TestScorePawns(t *testing.T) {
	if got := (Score{Centipawns: 123}).Pawns(); got != 1.23 {
		t.Fatalf("expected 1.23, got %v", got)
	}
	if got := (Score{Centipawns: -40}).Pawns(); got != -0.4 {
		t.Fatalf("expected -0.4, got %v", got)
	}
	if got := (Score{Mate: 3}).Pawns(); got != 100 {
		t.Fatalf("expected 100 for mate, got %v", got)
	}
	if got := (Score{Mate: -2}).Pawns(); got != -100 {
		t.Fatalf("expected -100 for being mated, got %v", got)
	}
}

func TestCollectLinesKeepsDeepestPerRank(t *testing.T) {
	results := []uci.ScoreResult{
		{Depth: 10, Score: 20, MultiPV: 2, BestMoves: []string{"d2d4", "d7d5"}},
		{Depth: 12, Score: 35, MultiPV: 1, BestMoves: []string{"e2e4", "e7e5", "g1f3"}},
		{Depth: 12, Score: 15, MultiPV: 2, BestMoves: []string{"g1f3"}},
		{Depth: 12, Score: 5, MultiPV: 3, BestMoves: []string{"c2c4"}},
		{Depth: 11, Score: 30, MultiPV: 1, BestMoves: []string{"e2e4"}},
	}
	got := collectLines(results, 2)
	want := []Line{
		{Rank: 1, Move: "e2e4", PV: []string{"e2e4", "e7e5", "g1f3"}, Score: Score{Centipawns: 35, Depth: 12}},
		{Rank: 2, Move: "g1f3", PV: []string{"g1f3"}, Score: Score{Centipawns: 15, Depth: 12}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestMateScore(t *testing.T) {
	s := toScore(uci.ScoreResult{Depth: 20, Score: 2, Mate: true})
	if !s.IsMate() || s.Mate != 2 {
		t.Fatalf("expected mate in 2, got %+v", s)
	}
	if s := toScore(uci.ScoreResult{Mate: true}); s.Mate != -1 {
		t.Fatalf("expected mated score, got %+v", s)
	}
}
