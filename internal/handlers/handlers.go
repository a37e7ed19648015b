package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tinyboard/internal/api"
	"tinyboard/internal/engine"
	"tinyboard/internal/game"
	"tinyboard/internal/rules"
	"tinyboard/internal/storage"
)

// Engine is the opponent and analysis backend.
type Engine interface {
	Play(ctx context.Context, fen string, elo int, think time.Duration) (string, error)
	Evaluate(ctx context.Context, fen string) (engine.Score, string, error)
	Analyse(ctx context.Context, fen string, depth int) (engine.Score, error)
	BestLines(ctx context.Context, fen string, n int, think time.Duration) ([]engine.Line, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Hub     *game.Hub
	Engine  Engine // nil when no engine binary is configured
	Store   *storage.Store
	Log     zerolog.Logger
	Version string
}

// NewHandler creates a new handler instance
func NewHandler(hub *game.Hub, eng Engine, store *storage.Store, log zerolog.Logger, version string) *Handler {
	return &Handler{Hub: hub, Engine: eng, Store: store, Log: log, Version: version}
}

// Routes registers every endpoint behind the request id and access log middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /initialize-board", h.HandleInitialize)
	mux.HandleFunc("POST /post-move", h.HandleMove)
	mux.HandleFunc("POST /engine-move", h.HandleEngineMove)
	mux.HandleFunc("GET /best-moves", h.HandleBestMoves)
	mux.HandleFunc("POST /analyze-position", h.HandleAnalyze)
	mux.HandleFunc("GET /game-history", h.HandleHistory)
	mux.HandleFunc("GET /game/{id}", h.HandleGame)
	return RequestID(AccessLog(h.Log, mux))
}

// HandleHealth reports readiness and stored game counts.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := api.Health{
		Status:          "ok",
		EngineAvailable: h.Engine != nil,
		Database:        h.Store.Enabled(),
		Version:         h.Version,
	}
	if h.Store.Enabled() {
		st, err := h.Store.FetchStats(r.Context())
		if err != nil {
			h.Log.Warn().Err(err).Msg("fetch stats")
		} else {
			resp.Stats = &api.Stats{Started: st.Started, Completed: st.Completed, Active: st.Active}
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

// HandleInitialize starts a new game. The human plays white unless color=black is given.
func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	elo := clampInt(queryInt(q.Get("elo"), DefaultElo), MinElo, MaxElo)
	think := clampFloat(queryFloat(q.Get("time"), DefaultThink), MinThink, MaxThink)
	human := rules.White
	if raw := q.Get("color"); raw != "" {
		c, err := rules.ParseColor(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		human = c
	}

	s := h.Hub.Create(human.String(), elo, think)
	s.Mu.Lock()
	state := s.StateLocked()
	started := s.StartedAt
	white, black := s.Players()
	s.Mu.Unlock()

	if err := h.Store.CreateGame(r.Context(), storage.NewGame{
		ID:          s.ID,
		WhitePlayer: white,
		BlackPlayer: black,
		EngineElo:   elo,
		EngineTime:  think,
		FEN:         state.FEN,
		StartedAt:   started,
	}); err != nil {
		h.Log.Error().Err(err).Str("game", s.ID.String()).Msg("create game row")
	}
	h.Log.Info().Str("game", s.ID.String()).Str("human", human.String()).Int("elo", elo).Float64("time", think).Msg("game initialized")
	WriteJSON(w, http.StatusOK, state)
}

// HandleMove applies the human move.
func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	var req api.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad json")
		return
	}
	s, status, msg := h.lookup(r.Context(), req.GameID)
	if s == nil {
		WriteError(w, status, msg)
		return
	}

	code := strings.ToLower(strings.TrimSpace(req.Move))
	if code == "" {
		WriteError(w, http.StatusBadRequest, "no move provided")
		return
	}
	code = appendPromotionIfPawn(s, code)

	played, err := s.MakeMove(code)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	state := h.afterMove(r.Context(), s, played)
	WriteJSON(w, http.StatusOK, state)
}

// HandleEngineMove asks the engine for the opponent reply.
func (h *Handler) HandleEngineMove(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		WriteError(w, http.StatusServiceUnavailable, "engine unavailable")
		return
	}
	var req api.EngineMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad json")
		return
	}
	s, status, msg := h.lookup(r.Context(), req.GameID)
	if s == nil {
		WriteError(w, status, msg)
		return
	}
	if s.Over() {
		WriteError(w, http.StatusBadRequest, game.ErrGameOver.Error())
		return
	}

	elo := clampInt(orInt(req.Elo, DefaultElo), MinElo, MaxElo)
	think := clampFloat(orFloat(req.Time, DefaultThink), MinThink, MaxThink)
	s.Mu.Lock()
	s.EngineElo = elo
	s.EngineTime = think
	s.Mu.Unlock()

	move, err := h.Engine.Play(r.Context(), s.FEN(), elo, seconds(think))
	if err != nil {
		h.Log.Error().Err(err).Str("game", s.ID.String()).Msg("engine move")
		WriteError(w, http.StatusInternalServerError, "engine failed to move")
		return
	}
	played, err := s.MakeMove(move)
	if err != nil {
		h.Log.Error().Err(err).Str("game", s.ID.String()).Str("move", move).Msg("engine produced unusable move")
		WriteError(w, http.StatusInternalServerError, "engine failed to move")
		return
	}
	state := h.afterMove(r.Context(), s, played)
	state.EngineMove = played.SAN
	WriteJSON(w, http.StatusOK, state)
}

// HandleBestMoves lists the engine's top lines for a game.
func (h *Handler) HandleBestMoves(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		WriteError(w, http.StatusServiceUnavailable, "engine unavailable")
		return
	}
	q := r.URL.Query()
	s, status, msg := h.lookup(r.Context(), q.Get("game_id"))
	if s == nil {
		WriteError(w, status, msg)
		return
	}
	n := clampInt(queryInt(q.Get("multipv"), DefaultMultiPV), MinMultiPV, MaxMultiPV)
	think := clampFloat(queryFloat(q.Get("time"), DefaultHintThink), MinThink, MaxThink)

	fen := s.FEN()
	turn, kind, err := game.Describe(fen)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "bad position")
		return
	}
	resp := api.Analysis{BestMoves: []api.BestMove{}, PositionType: kind, Turn: turn}
	if s.Over() {
		WriteJSON(w, http.StatusOK, resp)
		return
	}
	lines, err := h.Engine.BestLines(r.Context(), fen, n, seconds(think))
	if err != nil {
		h.Log.Error().Err(err).Str("game", s.ID.String()).Msg("best lines")
		WriteError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	for _, l := range lines {
		resp.BestMoves = append(resp.BestMoves, bestMove(fen, l))
	}
	if len(lines) > 0 {
		resp.Evaluation = lines[0].Score.Pawns()
	}
	WriteJSON(w, http.StatusOK, resp)
}

// HandleAnalyze evaluates an arbitrary position.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req api.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad json")
		return
	}
	if _, err := rules.ParsePosition(req.FEN); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid FEN")
		return
	}
	turn, kind, err := game.Describe(req.FEN)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid FEN")
		return
	}
	if h.Engine == nil {
		WriteError(w, http.StatusServiceUnavailable, "engine unavailable")
		return
	}
	depth := clampInt(orInt(req.Depth, DefaultDepth), MinDepth, MaxDepth)
	score, err := h.Engine.Analyse(r.Context(), req.FEN, depth)
	if err != nil {
		h.Log.Error().Err(err).Msg("analyse")
		WriteError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	WriteJSON(w, http.StatusOK, api.Analysis{
		BestMoves:    []api.BestMove{},
		PositionType: kind,
		Turn:         turn,
		Evaluation:   score.Pawns(),
	})
}

// HandleHistory pages through finished games.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := clampInt(queryInt(q.Get("limit"), DefaultHistoryLimit), 1, MaxHistoryLimit)
	offset := queryInt(q.Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}
	games, total, err := h.Store.ListFinished(r.Context(), limit, offset)
	if err != nil {
		h.Log.Error().Err(err).Msg("list games")
		WriteError(w, http.StatusInternalServerError, "failed to list games")
		return
	}
	resp := api.GameHistory{Games: make([]api.GameSummary, 0, len(games)), Total: total, Limit: limit, Offset: offset}
	for _, g := range games {
		resp.Games = append(resp.Games, summary(g))
	}
	WriteJSON(w, http.StatusOK, resp)
}

// HandleGame returns one stored game with its moves.
func (h *Handler) HandleGame(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	pg, err := h.Store.LoadGame(r.Context(), id)
	if storage.IsNotFound(err) {
		WriteError(w, http.StatusNotFound, "game not found")
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Str("game", id.String()).Msg("load game")
		WriteError(w, http.StatusInternalServerError, "failed to load game")
		return
	}
	resp := api.GameDetails{Game: summary(pg.Game), Moves: make([]api.MoveRecord, 0, len(pg.Moves))}
	for _, m := range pg.Moves {
		resp.Moves = append(resp.Moves, api.MoveRecord{
			MoveNumber:   m.MoveNumber,
			MoveNotation: m.MoveNotation,
			UCI:          m.UCI,
			Color:        m.Color,
			FENAfter:     m.FENAfter,
			Evaluation:   m.Evaluation,
			BestMove:     m.BestMove,
			Timestamp:    m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	WriteJSON(w, http.StatusOK, resp)
}

// lookup resolves a session id, rehydrating it from storage when the hub dropped it.
func (h *Handler) lookup(ctx context.Context, raw string) (*game.Session, int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, http.StatusBadRequest, "no game_id provided"
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, http.StatusBadRequest, "invalid game_id"
	}
	if s, ok := h.Hub.Get(id); ok {
		s.Touch()
		if err := h.Store.UpdateLastSeen(ctx, id, time.Now()); err != nil {
			h.Log.Warn().Err(err).Str("game", raw).Msg("update last seen")
		}
		return s, 0, ""
	}

	pg, err := h.Store.LoadGame(ctx, id)
	if err != nil {
		if !storage.IsNotFound(err) {
			h.Log.Error().Err(err).Str("game", raw).Msg("load game for rehydration")
		}
		return nil, http.StatusNotFound, "game not found"
	}
	s := game.NewSession(id, pg.Game.EngineElo, pg.Game.EngineTime)
	s.StartedAt = pg.Game.CreatedAt
	if pg.Game.BlackPlayer == game.HumanName {
		s.Human = "black"
	}
	if err := s.Replay(pg.MoveCodes()); err != nil {
		h.Log.Error().Err(err).Str("game", raw).Msg("replay stored moves")
		return nil, http.StatusInternalServerError, "failed to restore game"
	}
	h.Hub.Put(s)
	h.Log.Info().Str("game", raw).Int("plies", len(pg.Moves)).Msg("game rehydrated")
	return s, 0, ""
}

// afterMove evaluates and persists a played move and returns the resulting state.
func (h *Handler) afterMove(ctx context.Context, s *game.Session, p game.Played) api.GameState {
	rec := storage.Move{
		GameID:       s.ID,
		Ply:          p.Ply,
		MoveNumber:   p.Number,
		MoveNotation: p.SAN,
		UCI:          p.UCI,
		Color:        p.Color,
		FENAfter:     p.FENAfter,
	}
	if h.Engine != nil && h.Store.Enabled() && !s.Over() {
		if score, best, err := h.Engine.Evaluate(ctx, p.FENAfter); err == nil {
			ev := score.Pawns()
			rec.Evaluation = &ev
			rec.BestMove = best
		} else {
			h.Log.Warn().Err(err).Str("game", s.ID.String()).Msg("evaluate move")
		}
	}
	if err := h.Store.RecordMove(ctx, rec); err != nil {
		h.Log.Error().Err(err).Str("game", s.ID.String()).Msg("record move")
	}

	now := time.Now()
	s.Mu.Lock()
	state := s.StateLocked()
	var done *storage.Completion
	if state.GameOver {
		state.PGN = s.PGNLocked(now)
		done = &storage.Completion{
			Result:      state.Result,
			Termination: state.Termination,
			PGN:         state.PGN,
			OpeningName: s.OpeningLocked(),
			At:          now,
		}
	}
	s.Mu.Unlock()

	if done != nil {
		if err := h.Store.CompleteGame(ctx, s.ID, *done); err != nil {
			h.Log.Error().Err(err).Str("game", s.ID.String()).Msg("complete game")
		}
		h.Log.Info().Str("game", s.ID.String()).Str("result", done.Result).Str("termination", done.Termination).Msg("game over")
	}
	return state
}

// Forget marks an evicted session as abandoned in storage.
func (h *Handler) Forget(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Store.ForgetGame(ctx, id, time.Now()); err != nil {
		h.Log.Warn().Err(err).Str("game", id.String()).Msg("forget game")
	}
	h.Log.Debug().Str("game", id.String()).Msg("session evicted")
}

func bestMove(fen string, l engine.Line) api.BestMove {
	bm := api.BestMove{Move: l.Move, Rank: l.Rank}
	line := game.SANLine(fen, l.PV, 5)
	if len(line) > 0 {
		bm.SAN = line[0]
		bm.Line = strings.Join(line, " ")
	}
	if l.Score.IsMate() {
		m := l.Score.Mate
		bm.MateIn = &m
	} else {
		ev := l.Score.Pawns()
		bm.Evaluation = &ev
	}
	return bm
}

func summary(g storage.Game) api.GameSummary {
	s := api.GameSummary{
		ID:          g.ID.String(),
		StartTime:   g.CreatedAt.UTC().Format(time.RFC3339),
		Result:      g.Result,
		WhitePlayer: g.WhitePlayer,
		BlackPlayer: g.BlackPlayer,
		EngineElo:   g.EngineElo,
		EngineTime:  g.EngineTime,
		TotalMoves:  g.TotalMoves,
		OpeningName: g.OpeningName,
		PGN:         g.PGN,
	}
	if g.CompletedAt != nil {
		s.EndTime = g.CompletedAt.UTC().Format(time.RFC3339)
	}
	return s
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
