// Package controller turns pointer gestures into moves, submits them to the game authority
// and arbitrates turns between the human and the remote opponent.
//
// The controller is the only writer of the position mirror and the cached game state. The
// cache is replaced wholesale from authority responses and never advanced locally; a failed
// request leaves it exactly as it was. Every request captures the session number at dispatch
// and its response is dropped if a new game was started in the meantime.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tinyboard/internal/api"
	"tinyboard/internal/board"
	"tinyboard/internal/rules"
)

// Authority is the remote holder of the canonical game.
type Authority interface {
	Initialize(ctx context.Context, human rules.Color, strength int, think time.Duration) (api.GameState, error)
	SubmitMove(ctx context.Context, gameID, code string) (api.GameState, error)
	RequestOpponentMove(ctx context.Context, gameID string, strength int, think time.Duration) (api.GameState, error)
}

// OpponentConfig is passed through to the authority untouched.
type OpponentConfig struct {
	Strength  int
	ThinkTime time.Duration
}

// Config tunes a Controller.
type Config struct {
	Human     rules.Color
	Opponent  OpponentConfig
	NoticeTTL time.Duration
	Logger    zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// OnChange is called, without locks held, after every state change.
	OnChange func()
}

// Notice is a transient user-visible message.
type Notice struct {
	Text    string
	Expires time.Time
}

// Snapshot is a consistent read-only view for rendering.
type Snapshot struct {
	Session       uint64
	Mode          Mode
	Human         rules.Color
	State         api.GameState
	Position      rules.Position
	Selected      rules.Square
	Destinations  []rules.Square
	Highlights    board.Highlights
	InCheck       bool
	InputAccepted bool
	Notice        string
}

// Controller owns the interaction state of one board.
type Controller struct {
	auth Authority
	cfg  Config
	log  zerolog.Logger

	mu      sync.Mutex
	mirror  *board.Mirror
	sel     board.Selection
	hl      board.HighlightCache
	state   api.GameState
	loaded  bool
	mode    Mode
	session uint64
	notice  Notice
}

// New wires a controller to an authority and the mirror it will own. No game is loaded
// until NewGame succeeds, so the controller starts in GameOver.
func New(auth Authority, mirror *board.Mirror, cfg Config) *Controller {
	if cfg.NoticeTTL <= 0 {
		cfg.NoticeTTL = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if mirror == nil {
		mirror = board.NewMirror()
	}
	return &Controller{
		auth:   auth,
		cfg:    cfg,
		log:    cfg.Logger,
		mirror: mirror,
		mode:   GameOver,
	}
}

func (c *Controller) changed() {
	if c.cfg.OnChange != nil {
		c.cfg.OnChange()
	}
}

// gateLocked is the turn/availability predicate.
func (c *Controller) gateLocked() bool {
	return c.mode == AwaitingHumanInput &&
		c.loaded &&
		!c.state.GameOver &&
		c.mirror.SideToMove() == c.cfg.Human
}

// InputAccepted reports whether clicks and drag starts are currently honored.
func (c *Controller) InputAccepted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gateLocked()
}

// Mode returns the current interaction mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Session returns the current session number.
func (c *Controller) Session() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// State returns a copy of the cached game state.
func (c *Controller) State() api.GameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyState(c.state)
}

// Snapshot returns everything a renderer needs in one consistent read.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos := c.mirror.Position()
	hl := c.hl.Get(&c.sel, c.state.LastMove, pos)
	s := Snapshot{
		Session:       c.session,
		Mode:          c.mode,
		Human:         c.cfg.Human,
		State:         copyState(c.state),
		Position:      pos,
		Destinations:  c.sel.Destinations(),
		Highlights:    make(board.Highlights, len(hl)),
		InCheck:       c.mirror.InCheck(),
		InputAccepted: c.gateLocked(),
	}
	for k, v := range hl {
		s.Highlights[k] = v
	}
	if sq, ok := c.sel.Selected(); ok {
		s.Selected = sq
	}
	if c.notice.Text != "" && c.cfg.Now().Before(c.notice.Expires) {
		s.Notice = c.notice.Text
	}
	return s
}

func (c *Controller) noticeLocked(format string, args ...any) {
	c.notice = Notice{
		Text:    fmt.Sprintf(format, args...),
		Expires: c.cfg.Now().Add(c.cfg.NoticeTTL),
	}
}

// restingModeLocked is the mode to fall back to when a request fails.
func (c *Controller) restingModeLocked() Mode {
	if !c.loaded || c.state.GameOver {
		return GameOver
	}
	return AwaitingHumanInput
}

// reconcileLocked replaces the cache and mirror with st. A malformed position changes nothing.
func (c *Controller) reconcileLocked(st api.GameState) error {
	if err := c.mirror.Replace(st.FEN); err != nil {
		return fmt.Errorf("authority returned an unusable position: %w", err)
	}
	c.state = copyState(st)
	c.sel.Reset()
	c.loaded = true
	return nil
}

// unloadLocked forgets the cached game. Used when the authority may have moved on without us.
func (c *Controller) unloadLocked() {
	c.state = api.GameState{}
	c.mirror.Clear()
	c.sel.Reset()
	c.loaded = false
}

// Click feeds one click to the selection machine. When it completes a gesture the move to
// attempt is returned; the caller passes it to AttemptMove. Clicks are dropped while the
// gate is closed.
func (c *Controller) Click(sq rules.Square) (rules.Move, bool) {
	c.mu.Lock()
	if !c.gateLocked() {
		c.mu.Unlock()
		return rules.Move{}, false
	}
	mv, ok := c.sel.Click(sq, c.mirror)
	c.mu.Unlock()
	c.changed()
	return mv, ok
}

// DragStart selects the dragged piece so its targets show. It reports whether the drag is
// allowed at all.
func (c *Controller) DragStart(sq rules.Square) bool {
	c.mu.Lock()
	if !c.gateLocked() {
		c.mu.Unlock()
		return false
	}
	ok := c.sel.Select(sq, c.mirror)
	c.mu.Unlock()
	c.changed()
	return ok
}

// Drop completes a drag. A drop back on the source square cancels it.
func (c *Controller) Drop(from, to rules.Square) (rules.Move, bool) {
	c.mu.Lock()
	if !c.gateLocked() {
		c.mu.Unlock()
		return rules.Move{}, false
	}
	c.sel.Reset()
	c.mu.Unlock()
	c.changed()
	if from == to {
		return rules.Move{}, false
	}
	return rules.Move{From: from, To: to}, true
}

// Deselect clears any selection.
func (c *Controller) Deselect() {
	c.mu.Lock()
	c.sel.Reset()
	c.mu.Unlock()
	c.changed()
}

// NewGame starts a fresh session. Any request still in flight for the previous session
// will have its response discarded. If one was, and the new game cannot be started, the
// previous game is unloaded too: the authority may already have applied the dropped request.
func (c *Controller) NewGame(ctx context.Context) error {
	c.mu.Lock()
	interrupted := c.mode == MoveInFlight || c.mode == OpponentThinking
	c.session++
	session := c.session
	c.mode = MoveInFlight
	c.sel.Reset()
	c.notice = Notice{}
	c.mu.Unlock()
	c.changed()

	opp := c.cfg.Opponent
	c.log.Info().Uint64("session", session).Int("strength", opp.Strength).Dur("think", opp.ThinkTime).Msg("starting new game")
	st, err := c.auth.Initialize(ctx, c.cfg.Human, opp.Strength, opp.ThinkTime)

	c.mu.Lock()
	if session != c.session {
		c.mu.Unlock()
		c.log.Debug().Uint64("session", session).Msg("dropping initialize response")
		return ErrSuperseded
	}
	if err == nil {
		err = c.reconcileLocked(st)
	}
	if err != nil {
		if interrupted {
			c.unloadLocked()
		}
		c.mode = c.restingModeLocked()
		c.noticeLocked("Failed to start new game: %s", reason(err))
		c.mu.Unlock()
		c.changed()
		c.log.Warn().Err(err).Msg("new game failed")
		return &Error{Kind: classify(err, TransportFailure), Op: "new game", Err: err}
	}
	if c.state.GameOver {
		c.mode = GameOver
		c.mu.Unlock()
		c.changed()
		return nil
	}
	if c.mirror.SideToMove() == c.cfg.Human {
		c.mode = AwaitingHumanInput
		c.mu.Unlock()
		c.changed()
		return nil
	}
	c.mode = OpponentThinking
	gameID := c.state.GameID
	c.mu.Unlock()
	c.changed()
	return c.fetchOpponent(ctx, session, gameID)
}

// precheckLocked validates a gesture against the mirror and returns its move code.
func (c *Controller) precheckLocked(mv rules.Move) (string, error) {
	pc, ok := c.mirror.PieceAt(mv.From)
	if !ok || pc.Color != c.mirror.SideToMove() {
		return "", rejectInput("attempt move", "no piece of the side to move on %s", mv.From)
	}
	if !c.mirror.Position().IsLegal(mv.From, mv.To) {
		return "", rejectInput("attempt move", "%s is not a legal destination from %s", mv.To, mv.From)
	}
	return MoveCode(mv, pc), nil
}

// AttemptMove submits a human move and, if the game continues, fetches the opponent's
// reply. It blocks for both round trips. Calls made while a request is outstanding are
// refused with InputRejected and never reach the network.
func (c *Controller) AttemptMove(ctx context.Context, mv rules.Move) error {
	c.mu.Lock()
	if !c.gateLocked() {
		mode := c.mode
		c.mu.Unlock()
		return rejectInput("attempt move", "input not accepted while %s", mode)
	}
	code, err := c.precheckLocked(mv)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.mode = MoveInFlight
	c.sel.Reset()
	session := c.session
	gameID := c.state.GameID
	c.mu.Unlock()
	c.changed()

	c.log.Debug().Str("move", code).Uint64("session", session).Msg("submitting move")
	st, err := c.auth.SubmitMove(ctx, gameID, code)

	c.mu.Lock()
	if session != c.session {
		c.mu.Unlock()
		c.log.Debug().Str("move", code).Msg("dropping move response from superseded session")
		return ErrSuperseded
	}
	if err == nil {
		err = c.reconcileLocked(st)
	}
	if err != nil {
		c.mode = AwaitingHumanInput
		c.sel.Reset()
		c.noticeLocked("Move %s rejected: %s", code, reason(err))
		c.mu.Unlock()
		c.changed()
		c.log.Info().Err(err).Str("move", code).Msg("move rejected")
		return &Error{Kind: classify(err, MoveRejected), Op: "submit " + code, Err: err}
	}
	if c.state.GameOver {
		c.mode = GameOver
		c.mu.Unlock()
		c.changed()
		c.log.Info().Str("result", st.Result).Str("termination", st.Termination).Msg("game over")
		return nil
	}
	c.mode = OpponentThinking
	c.mu.Unlock()
	c.changed()
	return c.fetchOpponent(ctx, session, gameID)
}

// RetryOpponent re-requests the opponent's move after a failed attempt. It is only valid
// while the opponent is to move and nothing is in flight.
func (c *Controller) RetryOpponent(ctx context.Context) error {
	c.mu.Lock()
	if c.mode != AwaitingHumanInput || !c.loaded || c.state.GameOver || c.mirror.SideToMove() == c.cfg.Human {
		c.mu.Unlock()
		return rejectInput("retry opponent", "opponent is not to move")
	}
	c.mode = OpponentThinking
	c.sel.Reset()
	session := c.session
	gameID := c.state.GameID
	c.mu.Unlock()
	c.changed()
	return c.fetchOpponent(ctx, session, gameID)
}

// fetchOpponent runs with mode OpponentThinking already set by the caller. gameID is the
// session's game as cached when the caller dispatched.
func (c *Controller) fetchOpponent(ctx context.Context, session uint64, gameID string) error {
	opp := c.cfg.Opponent
	start := c.cfg.Now()
	st, err := c.auth.RequestOpponentMove(ctx, gameID, opp.Strength, opp.ThinkTime)

	c.mu.Lock()
	if session != c.session {
		c.mu.Unlock()
		c.log.Debug().Msg("dropping opponent response from superseded session")
		return ErrSuperseded
	}
	if err == nil {
		err = c.reconcileLocked(st)
	}
	if err != nil {
		c.mode = AwaitingHumanInput
		c.noticeLocked("Engine move failed: %s", reason(err))
		c.mu.Unlock()
		c.changed()
		c.log.Warn().Err(err).Msg("opponent move failed")
		return &Error{Kind: classify(err, OpponentMoveFailed), Op: "opponent move", Err: err}
	}
	if c.state.GameOver {
		c.mode = GameOver
	} else {
		c.mode = AwaitingHumanInput
	}
	c.mu.Unlock()
	c.changed()
	c.log.Debug().
		Str("move", st.LastMove).
		Dur("took", c.cfg.Now().Sub(start)).
		Msg("opponent moved")
	return nil
}

func copyState(st api.GameState) api.GameState {
	st.LegalMoves = append([]string(nil), st.LegalMoves...)
	st.MoveHistory = append([]string(nil), st.MoveHistory...)
	return st
}
