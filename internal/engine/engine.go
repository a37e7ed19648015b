// Package engine drives a single Stockfish process over UCI.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/freeeve/uci"
	"github.com/rs/zerolog"
)

// ErrNoResult is returned when the engine finished a search without reporting a line.
var ErrNoResult = errors.New("no results from engine")

// Config holds the engine process settings.
type Config struct {
	Path    string
	Threads int
	HashMB  int
	Logger  zerolog.Logger
}

// Score is an evaluation from the side to move's point of view.
type Score struct {
	Centipawns int
	Mate       int // moves to mate, negative when being mated; zero when not a mate score
	Depth      int
}

// IsMate reports whether the score is a forced mate.
func (s Score) IsMate() bool { return s.Mate != 0 }

// Pawns converts the score to pawns. Mate scores saturate at plus or minus 100.
func (s Score) Pawns() float64 {
	if s.IsMate() {
		if s.Mate > 0 {
			return 100
		}
		return -100
	}
	return float64(s.Centipawns) / 100
}

// Line is one principal variation of a MultiPV search.
type Line struct {
	Rank  int
	Move  string
	PV    []string
	Score Score
}

// Engine serializes access to one UCI conversation.
type Engine struct {
	mu  sync.Mutex
	eng *uci.Engine
	log zerolog.Logger
	cfg Config
}

// New starts the engine binary and applies the base options.
func New(cfg Config) (*Engine, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("stockfish path required")
	}
	if cfg.Threads == 0 {
		cfg.Threads = 1
	}
	if cfg.HashMB == 0 {
		cfg.HashMB = 64
	}

	eng, err := uci.NewEngine(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	e := &Engine{eng: eng, log: cfg.Logger, cfg: cfg}
	if err := e.setMultiPV(1); err != nil {
		eng.Close()
		return nil, fmt.Errorf("set options: %w", err)
	}
	cfg.Logger.Info().Str("path", cfg.Path).Int("threads", cfg.Threads).Int("hash_mb", cfg.HashMB).Msg("engine started")
	return e, nil
}

// Close stops the engine process.
func (e *Engine) Close() error {
	if e == nil || e.eng == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.eng.Close()
	return nil
}

func (e *Engine) setMultiPV(n int) error {
	return e.eng.SetOptions(uci.Options{
		Hash:    e.cfg.HashMB,
		Threads: e.cfg.Threads,
		MultiPV: n,
		Ponder:  false,
		OwnBook: false,
	})
}

// limit bounds one search by depth or, when depth is zero, by move time.
type limit struct {
	depth int
	think time.Duration
}

// movetime converts a think budget to whole milliseconds. A zero movetime would send a bare
// "go", so it never drops below one.
func movetime(think time.Duration) int64 {
	return max(think.Milliseconds(), 1)
}

func (e *Engine) goSearch(l limit) (*uci.Results, error) {
	if l.depth > 0 {
		return e.eng.GoDepth(l.depth, uci.HighestDepthOnly)
	}
	// HighestDepthOnly compares against the requested depth, which is zero here.
	return e.eng.Go(0, "", movetime(l.think))
}

// Play picks a move for the side to move at a limited strength.
func (e *Engine) Play(ctx context.Context, fen string, elo int, think time.Duration) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := e.eng.SendOption("UCI_LimitStrength", true); err != nil {
		return "", fmt.Errorf("limit strength: %w", err)
	}
	defer func() {
		if err := e.eng.SendOption("UCI_LimitStrength", false); err != nil {
			e.log.Warn().Err(err).Msg("reset strength limit")
		}
	}()
	if err := e.eng.SendOption("UCI_Elo", elo); err != nil {
		return "", fmt.Errorf("set elo: %w", err)
	}
	if err := e.eng.SetFEN(fen); err != nil {
		return "", fmt.Errorf("set FEN: %w", err)
	}
	start := time.Now()
	res, err := e.goSearch(limit{think: think})
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	move := strings.TrimSpace(res.BestMove)
	if move == "" || move == "(none)" {
		return "", ErrNoResult
	}
	e.log.Debug().Str("fen", fen).Int("elo", elo).Str("move", move).Dur("dur", time.Since(start)).Msg("engine played")
	return move, nil
}

// Evaluate runs a short search on a position.
func (e *Engine) Evaluate(ctx context.Context, fen string) (Score, string, error) {
	lines, err := e.search(ctx, fen, limit{depth: 10}, 1)
	if err != nil {
		return Score{}, "", err
	}
	return lines[0].Score, lines[0].Move, nil
}

// Analyse searches a position to a fixed depth.
func (e *Engine) Analyse(ctx context.Context, fen string, depth int) (Score, error) {
	lines, err := e.search(ctx, fen, limit{depth: depth}, 1)
	if err != nil {
		return Score{}, err
	}
	return lines[0].Score, nil
}

// BestLines returns the top n lines, best first, after thinking for the given time.
func (e *Engine) BestLines(ctx context.Context, fen string, n int, think time.Duration) ([]Line, error) {
	return e.search(ctx, fen, limit{think: think}, n)
}

func (e *Engine) search(ctx context.Context, fen string, l limit, multipv int) ([]Line, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if multipv > 1 {
		if err := e.setMultiPV(multipv); err != nil {
			return nil, fmt.Errorf("set multipv: %w", err)
		}
		defer func() {
			if err := e.setMultiPV(1); err != nil {
				e.log.Warn().Err(err).Msg("reset multipv")
			}
		}()
	}
	if err := e.eng.SetFEN(fen); err != nil {
		return nil, fmt.Errorf("set FEN: %w", err)
	}
	res, err := e.goSearch(l)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	lines := collectLines(res.Results, multipv)
	if len(lines) == 0 {
		return nil, ErrNoResult
	}
	if lines[0].Move == "" {
		lines[0].Move = res.BestMove
	}
	return lines, nil
}

// collectLines keeps the deepest report of each MultiPV rank, ordered by rank.
func collectLines(results []uci.ScoreResult, limit int) []Line {
	byRank := make(map[int]uci.ScoreResult)
	for _, r := range results {
		rank := r.MultiPV
		if rank == 0 {
			rank = 1
		}
		if prev, ok := byRank[rank]; !ok || r.Depth >= prev.Depth {
			byRank[rank] = r
		}
	}
	lines := make([]Line, 0, len(byRank))
	for rank, r := range byRank {
		if limit > 0 && rank > limit {
			continue
		}
		l := Line{Rank: rank, PV: append([]string(nil), r.BestMoves...), Score: toScore(r)}
		if len(r.BestMoves) > 0 {
			l.Move = r.BestMoves[0]
		}
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Rank < lines[j].Rank })
	return lines
}

func toScore(r uci.ScoreResult) Score {
	if r.Mate {
		m := r.Score
		if m == 0 {
			// mated in the current position
			m = -1
		}
		return Score{Mate: m, Depth: r.Depth}
	}
	return Score{Centipawns: r.Score, Depth: r.Depth}
}
