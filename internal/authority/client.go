// Package authority is the HTTP client for the remote game authority.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tinyboard/internal/api"
	"tinyboard/internal/rules"
)

var (
	// ErrRejected means the authority understood the request and refused it.
	ErrRejected = errors.New("rejected by authority")
	// ErrTransport covers dial failures, 5xx replies and undecodable bodies.
	ErrTransport = errors.New("authority unreachable")
	// ErrNoSession is returned for game calls made without a session id.
	ErrNoSession = errors.New("no active game")
)

// RequestError carries the failing operation and the authority's reason.
type RequestError struct {
	Op     string
	Status int
	Reason string
	Err    error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RequestError) Unwrap() error { return e.Err }

// Client talks to one authority. It holds no game state; every game call names its session.
type Client struct {
	base string
	http *http.Client
	log  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithTimeout sets a per-request timeout on the default client. Opponent requests can take
// as long as the engine thinks, so keep it above the configured think time.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// New returns a client for the authority rooted at base, e.g. http://127.0.0.1:5000.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 60 * time.Second},
		log:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func requireGame(op, gameID string) error {
	if gameID == "" {
		return &RequestError{Op: op, Err: ErrNoSession}
	}
	return nil
}

// Initialize starts a new session with the human on the given side.
func (c *Client) Initialize(ctx context.Context, human rules.Color, strength int, think time.Duration) (api.GameState, error) {
	q := url.Values{}
	q.Set("color", human.String())
	if strength > 0 {
		q.Set("elo", strconv.Itoa(strength))
	}
	if think > 0 {
		q.Set("time", strconv.FormatFloat(think.Seconds(), 'f', -1, 64))
	}
	var st api.GameState
	if err := c.do(ctx, "initialize", http.MethodGet, "/initialize-board?"+q.Encode(), nil, &st); err != nil {
		return api.GameState{}, err
	}
	if st.GameID == "" {
		return api.GameState{}, &RequestError{Op: "initialize", Err: fmt.Errorf("%w: missing game id", ErrTransport)}
	}
	return st, nil
}

// SubmitMove proposes a move code for a session.
func (c *Client) SubmitMove(ctx context.Context, gameID, code string) (api.GameState, error) {
	if err := requireGame("submit move", gameID); err != nil {
		return api.GameState{}, err
	}
	var st api.GameState
	err := c.do(ctx, "submit move", http.MethodPost, "/post-move", api.MoveRequest{GameID: gameID, Move: code}, &st)
	return st, err
}

// RequestOpponentMove asks the authority to play the opponent's reply in a session.
func (c *Client) RequestOpponentMove(ctx context.Context, gameID string, strength int, think time.Duration) (api.GameState, error) {
	if err := requireGame("opponent move", gameID); err != nil {
		return api.GameState{}, err
	}
	req := api.EngineMoveRequest{GameID: gameID, Elo: strength, Time: think.Seconds()}
	var st api.GameState
	err := c.do(ctx, "opponent move", http.MethodPost, "/engine-move", req, &st)
	return st, err
}

// AnalyzePosition evaluates fen to the given depth. It does not touch the session.
func (c *Client) AnalyzePosition(ctx context.Context, fen string, depth int) (api.Analysis, error) {
	var a api.Analysis
	err := c.do(ctx, "analyze", http.MethodPost, "/analyze-position", api.AnalyzeRequest{FEN: fen, Depth: depth}, &a)
	return a, err
}

// BestMoves returns the top candidate lines of a session's position.
func (c *Client) BestMoves(ctx context.Context, gameID string, multipv int, think time.Duration) (api.Analysis, error) {
	if err := requireGame("best moves", gameID); err != nil {
		return api.Analysis{}, err
	}
	q := url.Values{}
	q.Set("game_id", gameID)
	q.Set("multipv", strconv.Itoa(multipv))
	q.Set("time", strconv.FormatFloat(think.Seconds(), 'f', -1, 64))
	var a api.Analysis
	err := c.do(ctx, "best moves", http.MethodGet, "/best-moves?"+q.Encode(), nil, &a)
	return a, err
}

// ListSessions pages through finished games, newest first.
func (c *Client) ListSessions(ctx context.Context, limit, offset int) (api.GameHistory, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var h api.GameHistory
	err := c.do(ctx, "list sessions", http.MethodGet, "/game-history?"+q.Encode(), nil, &h)
	return h, err
}

// GameDetails fetches one stored game with its moves.
func (c *Client) GameDetails(ctx context.Context, id string) (api.GameDetails, error) {
	var d api.GameDetails
	err := c.do(ctx, "game details", http.MethodGet, "/game/"+url.PathEscape(id), nil, &d)
	return d, err
}

// Health reports the authority status.
func (c *Client) Health(ctx context.Context) (api.Health, error) {
	var h api.Health
	err := c.do(ctx, "health", http.MethodGet, "/health", nil, &h)
	return h, err
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Op: op, Err: err}
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Msg("authority request failed")
		return &RequestError{Op: op, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &RequestError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}
	c.log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("dur", time.Since(start)).
		Msg("authority request")

	if resp.StatusCode >= 300 {
		var e api.ErrorResponse
		_ = json.Unmarshal(data, &e)
		kind := ErrTransport
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			kind = ErrRejected
		}
		return &RequestError{Op: op, Status: resp.StatusCode, Reason: e.Error, Err: kind}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RequestError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%w: malformed response: %v", ErrTransport, err)}
	}
	return nil
}
