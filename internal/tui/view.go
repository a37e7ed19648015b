package tui

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
	"github.com/rs/zerolog"

	"tinyboard/internal/api"
	"tinyboard/internal/controller"
	"tinyboard/internal/rules"
)

// Analyst serves the optional analysis panels.
type Analyst interface {
	AnalyzePosition(ctx context.Context, fen string, depth int) (api.Analysis, error)
	BestMoves(ctx context.Context, gameID string, multipv int, think time.Duration) (api.Analysis, error)
	ListSessions(ctx context.Context, limit, offset int) (api.GameHistory, error)
	GameDetails(ctx context.Context, id string) (api.GameDetails, error)
	Health(ctx context.Context) (api.Health, error)
}

const historyPage = 5

// View renders a controller snapshot and feeds input back to it.
type View struct {
	an     Analyst
	log    zerolog.Logger
	layout Layout
	redraw chan struct{}

	mu      sync.Mutex
	extra   []string
	history []api.GameSummary // last listed page, opened with 1-9

	press   rules.Square
	pressed bool
	frame   int
}

// New creates a view for a human playing human.
func New(an Analyst, human rules.Color, log zerolog.Logger) *View {
	return &View{
		an:     an,
		log:    log,
		layout: NewLayout(human),
		redraw: make(chan struct{}, 1),
	}
}

// Notify schedules a redraw. It never blocks, so it is safe as the controller's OnChange.
func (v *View) Notify() {
	select {
	case v.redraw <- struct{}{}:
	default:
	}
}

func (v *View) setExtra(lines []string) {
	v.mu.Lock()
	v.extra = lines
	v.mu.Unlock()
	v.Notify()
}

// Run owns the terminal until the user quits or ctx ends. It starts a new game first.
func (v *View) Run(ctx context.Context, ctl *controller.Controller) error {
	if err := termbox.Init(); err != nil {
		return err
	}
	defer termbox.Close()
	termbox.SetInputMode(termbox.InputEsc | termbox.InputMouse)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan termbox.Event)
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	defer termbox.Interrupt()

	v.async(ctx, "new game", ctl.NewGame)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	v.draw(ctl.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-v.redraw:
		case <-ticker.C:
			v.frame++
		case ev := <-events:
			if quit := v.handle(ctx, ctl, ev); quit {
				return nil
			}
		}
		v.draw(ctl.Snapshot())
	}
}

// handle dispatches one terminal event and reports whether to quit.
func (v *View) handle(ctx context.Context, ctl *controller.Controller, ev termbox.Event) bool {
	switch ev.Type {
	case termbox.EventKey:
		if ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC || ev.Ch == 'q' {
			return true
		}
		v.key(ctx, ctl, ev.Ch)
	case termbox.EventMouse:
		v.mouse(ctx, ctl, ev)
	case termbox.EventError:
		v.log.Error().Err(ev.Err).Msg("terminal event")
	}
	return false
}

func (v *View) key(ctx context.Context, ctl *controller.Controller, ch rune) {
	switch {
	case ch == 'n':
		v.setExtra(nil)
		v.async(ctx, "new game", ctl.NewGame)
	case ch == 'r':
		v.async(ctx, "retry opponent", ctl.RetryOpponent)
	case ch == 'a':
		fen := ctl.Snapshot().Position.FEN()
		if fen == "" {
			return
		}
		v.load("Analysis", func() []string { return v.analysis(ctx, fen) })
	case ch == 'h':
		id := ctl.Snapshot().State.GameID
		if id == "" {
			return
		}
		v.load("Hints", func() []string { return v.hints(ctx, id) })
	case ch == 'g':
		v.load("History", func() []string { return v.listHistory(ctx) })
	case ch >= '1' && ch <= '9':
		n := int(ch - '1')
		if _, ok := v.listed(n); !ok {
			return
		}
		v.load("Game", func() []string { return v.details(ctx, n) })
	case ch == 'i':
		v.load("Server", func() []string { return v.health(ctx) })
	}
}

// load shows a placeholder and fills the panel from fn off the event loop.
func (v *View) load(title string, fn func() []string) {
	v.setExtra([]string{title + ": …"})
	go func() { v.setExtra(fn()) }()
}

func (v *View) analysis(ctx context.Context, fen string) []string {
	a, err := v.an.AnalyzePosition(ctx, fen, 15)
	if err != nil {
		return []string{"Analysis failed: " + err.Error()}
	}
	return AnalysisLines(a)
}

func (v *View) hints(ctx context.Context, gameID string) []string {
	a, err := v.an.BestMoves(ctx, gameID, 3, 500*time.Millisecond)
	if err != nil {
		return []string{"Hints failed: " + err.Error()}
	}
	return HintLines(a)
}

func (v *View) listHistory(ctx context.Context) []string {
	h, err := v.an.ListSessions(ctx, historyPage, 0)
	if err != nil {
		return []string{"History failed: " + err.Error()}
	}
	v.mu.Lock()
	v.history = append([]api.GameSummary(nil), h.Games...)
	v.mu.Unlock()
	return HistoryLines(h)
}

// listed returns the id of the n-th game (0-based) of the last history page.
func (v *View) listed(n int) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n < 0 || n >= len(v.history) {
		return "", false
	}
	return v.history[n].ID, true
}

func (v *View) details(ctx context.Context, n int) []string {
	id, ok := v.listed(n)
	if !ok {
		return []string{"Game: not listed"}
	}
	d, err := v.an.GameDetails(ctx, id)
	if err != nil {
		return []string{"Game failed: " + err.Error()}
	}
	return DetailLines(d)
}

func (v *View) health(ctx context.Context) []string {
	h, err := v.an.Health(ctx)
	if err != nil {
		return []string{"Server unreachable: " + err.Error()}
	}
	return HealthLines(h)
}

// mouse turns a press and release into a click (same square) or a drag (different squares).
// A right click, or a release off the board, drops the selection.
func (v *View) mouse(ctx context.Context, ctl *controller.Controller, ev termbox.Event) {
	if ev.Mod&termbox.ModMotion != 0 {
		return
	}
	sq, onBoard := v.layout.SquareAt(ev.MouseX, ev.MouseY)
	switch ev.Key {
	case termbox.MouseRight:
		v.pressed = false
		ctl.Deselect()
	case termbox.MouseLeft:
		v.press, v.pressed = sq, onBoard
	case termbox.MouseRelease:
		from, ok := v.press, v.pressed
		v.pressed = false
		if !ok || !onBoard {
			ctl.Deselect()
			return
		}
		var mv rules.Move
		var complete bool
		if from == sq {
			mv, complete = ctl.Click(sq)
		} else if ctl.DragStart(from) {
			mv, complete = ctl.Drop(from, sq)
		}
		if complete {
			v.async(ctx, "move "+mv.Code(), func(ctx context.Context) error {
				return ctl.AttemptMove(ctx, mv)
			})
		}
	}
}

// async runs a controller request off the event loop. The controller posts its own
// notices, so failures are only logged here.
func (v *View) async(ctx context.Context, op string, fn func(context.Context) error) {
	go func() {
		err := fn(ctx)
		switch {
		case err == nil:
		case errors.Is(err, controller.ErrSuperseded), errors.Is(err, controller.ErrInputRejected):
			v.log.Debug().Err(err).Str("op", op).Msg("dropped")
		default:
			v.log.Warn().Err(err).Str("op", op).Msg("request failed")
		}
		v.Notify()
	}()
}

func (v *View) draw(snap controller.Snapshot) {
	const fg, bg = termbox.ColorDefault, termbox.ColorDefault
	_ = termbox.Clear(fg, bg)

	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			v.drawSquare(snap, rules.SquareAt(f, r))
		}
	}
	for i := 0; i < 8; i++ {
		sq := rules.SquareAt(i, i)
		x, y := v.layout.Origin(sq)
		termbox.SetCell(x+SquareW/2, v.layout.OY+8*SquareH, rune(sq.File()), fg, bg)
		termbox.SetCell(v.layout.OX-2, y+SquareH/2, rune(sq.Rank()), fg, bg)
	}

	v.mu.Lock()
	extra := append([]string(nil), v.extra...)
	v.mu.Unlock()

	w, _ := termbox.Size()
	px := v.layout.Width() + 3
	width := w - px - 1
	if width < 10 {
		width = 10
	}
	for i, line := range PanelLines(snap, extra, width, v.frame) {
		printText(px, v.layout.OY+i, line, fg, bg)
	}
	_ = termbox.Flush()
}

func (v *View) drawSquare(snap controller.Snapshot, sq rules.Square) {
	piece, occupied := snap.Position.PieceAt(sq)
	c := StyleFor(snap.Highlights[sq], Light(sq), piece, occupied)
	x, y := v.layout.Origin(sq)
	for dy := 0; dy < SquareH; dy++ {
		for dx := 0; dx < SquareW; dx++ {
			termbox.SetCell(x+dx, y+dy, ' ', c.Fg, c.Bg)
		}
	}
	mx, my := x+SquareW/2, y+SquareH/2
	switch {
	case occupied:
		termbox.SetCell(mx, my, rune(piece.Symbol()[0]), c.Fg, c.Bg)
		if c.Brackets {
			termbox.SetCell(mx-1, my, '[', c.Fg, c.Bg)
			termbox.SetCell(mx+1, my, ']', c.Fg, c.Bg)
		}
	case c.Dot:
		termbox.SetCell(mx, my, '•', c.Fg, c.Bg)
	}
}

func printText(x, y int, s string, fg, bg termbox.Attribute) {
	for _, r := range s {
		termbox.SetCell(x, y, r, fg, bg)
		x += runewidth.RuneWidth(r)
	}
}
