package tui

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
	"github.com/rs/zerolog"

	"tinyboard/internal/api"
	"tinyboard/internal/board"
	"tinyboard/internal/controller"
	"tinyboard/internal/rules"
)

func TestLayoutWhiteOrientation(t *testing.T) {
	l := NewLayout(rules.White)
	x, y := l.Origin("a8")
	if x != l.OX || y != l.OY {
		t.Fatalf("a8 should be top-left, got %d,%d", x, y)
	}
	x, y = l.Origin("h1")
	if x != l.OX+7*SquareW || y != l.OY+7*SquareH {
		t.Fatalf("h1 should be bottom-right, got %d,%d", x, y)
	}
}

func TestLayoutBlackOrientation(t *testing.T) {
	l := NewLayout(rules.Black)
	if sq, ok := l.SquareAt(l.OX, l.OY); !ok || sq != "h1" {
		t.Fatalf("top-left should be h1, got %q", sq)
	}
	if sq, ok := l.SquareAt(l.OX+7*SquareW+SquareW-1, l.OY+7*SquareH+SquareH-1); !ok || sq != "a8" {
		t.Fatalf("bottom-right should be a8, got %q", sq)
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	for _, human := range []rules.Color{rules.White, rules.Black} {
		l := NewLayout(human)
		for f := 0; f < 8; f++ {
			for r := 0; r < 8; r++ {
				sq := rules.SquareAt(f, r)
				x, y := l.Origin(sq)
				got, ok := l.SquareAt(x+SquareW-1, y+SquareH-1)
				if !ok || got != sq {
					t.Fatalf("%s: %s mapped back to %q", human, sq, got)
				}
			}
		}
	}
}

func TestLayoutOffBoard(t *testing.T) {
	l := NewLayout(rules.White)
	for _, p := range [][2]int{{0, 0}, {l.OX - 1, l.OY}, {l.OX + 8*SquareW, l.OY}, {l.OX, l.OY + 8*SquareH}} {
		if sq, ok := l.SquareAt(p[0], p[1]); ok {
			t.Fatalf("%v should be off board, got %s", p, sq)
		}
	}
}

func TestLightSquares(t *testing.T) {
	if Light("a1") || !Light("h1") || !Light("a8") || Light("h8") {
		t.Fatalf("square colors wrong")
	}
}

func TestStyleComposes(t *testing.T) {
	white := rules.Piece{Color: rules.White, Kind: rules.King}

	c := StyleFor(board.KingInCheck|board.LastMoveEndpoint, true, white, true)
	if c.Fg != CheckFg|termbox.AttrUnderline || c.Bg != LightBg {
		t.Fatalf("check and last move should both show, got %+v", c)
	}

	c = StyleFor(board.Selected|board.LastMoveEndpoint, false, white, true)
	if c.Bg != SelectedBg || c.Fg != WhiteFg|termbox.AttrUnderline {
		t.Fatalf("selected last-move square wrong: %+v", c)
	}

	c = StyleFor(board.LegalTarget, false, rules.Piece{}, false)
	if !c.Dot || c.Brackets || c.Bg != DarkBg {
		t.Fatalf("empty target should show a dot: %+v", c)
	}
	c = StyleFor(board.LegalTarget|board.LastMoveEndpoint, false, rules.Piece{Color: rules.Black, Kind: rules.Pawn}, true)
	if c.Dot || !c.Brackets || c.Fg != BlackFg|termbox.AttrUnderline {
		t.Fatalf("occupied target should be bracketed: %+v", c)
	}
}

func TestFormatEval(t *testing.T) {
	cases := map[float64]string{1.2: "+1.2", -0.4: "-0.4", 0: "0.0", -0.04: "0.0", 0.04: "0.0", 100: "+100.0"}
	for in, want := range cases {
		if got := FormatEval(in); got != want {
			t.Fatalf("FormatEval(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestPanelLines(t *testing.T) {
	snap := controller.Snapshot{
		Mode:  controller.OpponentThinking,
		Human: rules.White,
		State: api.GameState{
			FEN:         "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2",
			Turn:        "black",
			MoveHistory: []string{"e2e4", "e7e5", "g1f3"},
		},
		Notice: "Engine move failed: engine unavailable",
	}
	lines := PanelLines(snap, []string{"Hints:"}, 40, 1)
	text := strings.Join(lines, "\n")
	for _, want := range []string{"You: white", "Status: thinking… /", "1. e2e4 e7e5", "2. g1f3", "! Engine move failed", "Hints:"} {
		if !strings.Contains(text, want) {
			t.Fatalf("panel missing %q:\n%s", want, text)
		}
	}
	for _, l := range PanelLines(snap, nil, 12, 0) {
		if runewidth.StringWidth(l) > 12 {
			t.Fatalf("line %q wider than 12", l)
		}
	}
}

func TestPanelGameOver(t *testing.T) {
	snap := controller.Snapshot{
		Mode:  controller.GameOver,
		Human: rules.Black,
		State: api.GameState{FEN: "x", Turn: "white", GameOver: true, Result: "0-1", Termination: "Checkmate"},
	}
	text := strings.Join(PanelLines(snap, nil, 40, 0), "\n")
	if !strings.Contains(text, "Result: 0-1 (Checkmate)") {
		t.Fatalf("result missing:\n%s", text)
	}
}

func TestHintLines(t *testing.T) {
	ev := 0.3
	mate := 2
	got := HintLines(api.Analysis{BestMoves: []api.BestMove{
		{Move: "e2e4", SAN: "e4", Rank: 1, Evaluation: &ev, Line: "e4 e5"},
		{Move: "d1h5", Rank: 2, MateIn: &mate},
	}})
	want := []string{"Hints:", "  1. e4     +0.3  e4 e5", "  2. d1h5   M2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("hint lines (-want +got):\n%s", diff)
	}
}

func TestHistoryLines(t *testing.T) {
	got := HistoryLines(api.GameHistory{Total: 1, Games: []api.GameSummary{{
		StartTime: "2024-03-09T10:00:00Z", Result: "1-0", EngineElo: 1320, TotalMoves: 41, OpeningName: "Italian Game",
	}}})
	want := []string{"History (1 games):", "  [1] 2024-03-09 1-0 vs 1320, 41 plies, Italian Game"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("history lines (-want +got):\n%s", diff)
	}
}

func TestDetailLines(t *testing.T) {
	got := DetailLines(api.GameDetails{
		Game: api.GameSummary{StartTime: "2024-03-09T10:00:00Z", Result: "0-1", WhitePlayer: "Stockfish (1320)", BlackPlayer: "Human"},
		Moves: []api.MoveRecord{
			{MoveNumber: 1, MoveNotation: "f3", Color: "white"},
			{MoveNumber: 1, MoveNotation: "e5", Color: "black"},
			{MoveNumber: 2, MoveNotation: "g4", Color: "white"},
			{MoveNumber: 2, MoveNotation: "Qh4#", Color: "black"},
		},
	})
	want := []string{
		"Game 2024-03-09:",
		"  Stockfish (1320) vs Human  0-1",
		"  1. f3 e5",
		"  2. g4 Qh4#",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("detail lines (-want +got):\n%s", diff)
	}
}

func TestHealthLines(t *testing.T) {
	got := HealthLines(api.Health{Status: "ok", Version: "abc1234", EngineAvailable: true, Stats: &api.Stats{Started: 3, Completed: 2, Active: 1}})
	want := []string{"Server: ok abc1234", "  engine yes, database no", "  3 started, 2 completed, 1 active"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("health lines (-want +got):\n%s", diff)
	}
}

func TestNotifyNeverBlocks(t *testing.T) {
	v := New(nil, rules.White, zeroLogger())
	for i := 0; i < 5; i++ {
		v.Notify()
	}
	if len(v.redraw) != 1 {
		t.Fatalf("expected one pending redraw, got %d", len(v.redraw))
	}
}

func zeroLogger() zerolog.Logger { return zerolog.Nop() }
