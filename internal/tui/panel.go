package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"tinyboard/internal/api"
	"tinyboard/internal/controller"
)

const maxMoveRows = 10

var spinner = []string{"|", "/", "-", "\\"}

// FormatEval renders pawns from the side to move's view, e.g. +1.2, -0.4, 0.0.
func FormatEval(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	if s == "-0.0" {
		return "0.0"
	}
	if v > 0 && s != "0.0" {
		return "+" + s
	}
	return s
}

// PanelLines builds the side panel text. extra holds the analysis, hint or history panel.
func PanelLines(snap controller.Snapshot, extra []string, width, frame int) []string {
	lines := []string{
		"tinyboard",
		"",
		fmt.Sprintf("You: %s", snap.Human),
	}
	if snap.State.FEN != "" {
		lines = append(lines, fmt.Sprintf("Turn: %s", snap.State.Turn))
	}
	status := snap.Mode.String()
	if snap.Mode == controller.OpponentThinking || snap.Mode == controller.MoveInFlight {
		status += "… " + spinner[frame%len(spinner)]
	}
	lines = append(lines, "Status: "+status)
	if snap.State.GameOver {
		res := "Result: " + snap.State.Result
		if snap.State.Termination != "" {
			res += " (" + snap.State.Termination + ")"
		}
		lines = append(lines, res)
	} else if snap.InCheck {
		lines = append(lines, "Check!")
	}

	if rows := moveRows(snap.State.MoveHistory); len(rows) > 0 {
		lines = append(lines, "", "Moves:")
		if len(rows) > maxMoveRows {
			rows = rows[len(rows)-maxMoveRows:]
		}
		lines = append(lines, rows...)
	}
	if snap.Notice != "" {
		lines = append(lines, "", "! "+snap.Notice)
	}
	if len(extra) > 0 {
		lines = append(lines, "")
		lines = append(lines, extra...)
	}
	lines = append(lines, "", "n new  r retry  a analyze  h hints", "g history  1-9 open  i server  q quit")

	for i, l := range lines {
		lines[i] = runewidth.Truncate(l, width, "…")
	}
	return lines
}

func moveRows(history []string) []string {
	var rows []string
	for i := 0; i < len(history); i += 2 {
		row := fmt.Sprintf("%d. %s", i/2+1, history[i])
		if i+1 < len(history) {
			row += " " + history[i+1]
		}
		rows = append(rows, row)
	}
	return rows
}

// AnalysisLines renders an /analyze-position reply.
func AnalysisLines(a api.Analysis) []string {
	return []string{
		"Analysis:",
		fmt.Sprintf("  eval %s (%s to move)", FormatEval(a.Evaluation), a.Turn),
		"  " + a.PositionType,
	}
}

// HintLines renders a /best-moves reply.
func HintLines(a api.Analysis) []string {
	lines := []string{"Hints:"}
	if len(a.BestMoves) == 0 {
		return append(lines, "  none")
	}
	for _, bm := range a.BestMoves {
		score := ""
		switch {
		case bm.MateIn != nil:
			score = fmt.Sprintf("M%d", *bm.MateIn)
		case bm.Evaluation != nil:
			score = FormatEval(*bm.Evaluation)
		}
		move := bm.SAN
		if move == "" {
			move = bm.Move
		}
		lines = append(lines, strings.TrimRight(fmt.Sprintf("  %d. %-6s %s  %s", bm.Rank, move, score, bm.Line), " "))
	}
	return lines
}

// HistoryLines renders a /game-history page.
func HistoryLines(h api.GameHistory) []string {
	lines := []string{fmt.Sprintf("History (%d games):", h.Total)}
	if len(h.Games) == 0 {
		return append(lines, "  none")
	}
	for i, g := range h.Games {
		line := fmt.Sprintf("  [%d] %s %s vs %d, %d plies", i+1, day(g.StartTime), g.Result, g.EngineElo, g.TotalMoves)
		if g.OpeningName != "" {
			line += ", " + g.OpeningName
		}
		lines = append(lines, line)
	}
	return lines
}

func day(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

// DetailLines renders one stored game from /game/{id}.
func DetailLines(d api.GameDetails) []string {
	g := d.Game
	lines := []string{
		fmt.Sprintf("Game %s:", day(g.StartTime)),
		fmt.Sprintf("  %s vs %s  %s", g.WhitePlayer, g.BlackPlayer, g.Result),
	}
	if g.OpeningName != "" {
		lines = append(lines, "  "+g.OpeningName)
	}
	var row strings.Builder
	for _, m := range d.Moves {
		if m.Color == "white" {
			if row.Len() > 0 {
				lines = append(lines, row.String())
				row.Reset()
			}
			fmt.Fprintf(&row, "  %d. %s", m.MoveNumber, m.MoveNotation)
			continue
		}
		if row.Len() == 0 {
			fmt.Fprintf(&row, "  %d. ...", m.MoveNumber)
		}
		row.WriteString(" " + m.MoveNotation)
	}
	if row.Len() > 0 {
		lines = append(lines, row.String())
	}
	return lines
}

// HealthLines renders a /health reply.
func HealthLines(h api.Health) []string {
	yesNo := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}
	lines := []string{
		fmt.Sprintf("Server: %s %s", h.Status, h.Version),
		"  engine " + yesNo(h.EngineAvailable) + ", database " + yesNo(h.Database),
	}
	if h.Stats != nil {
		lines = append(lines, fmt.Sprintf("  %d started, %d completed, %d active", h.Stats.Started, h.Stats.Completed, h.Stats.Active))
	}
	return lines
}
