// Package tui runs a game session on a tcell screen.
package tui

import (
	"context"
	"errors"
	"image/color"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"github.com/tomz197/gravship/internal/asset"
	"github.com/tomz197/gravship/internal/config"
	"github.com/tomz197/gravship/internal/draw"
	"github.com/tomz197/gravship/internal/input"
	"github.com/tomz197/gravship/internal/loop"
)

// Options configures the tcell frontend.
type Options struct {
	FrameInterval time.Duration // Zero uses the terminal frame rate
	WallInterval  int
	KeyHold       time.Duration // Zero uses config.KeyHoldDuration
	Logger        *log.Logger
}

// TUI draws frames as half-block cells on a tcell screen. Key events
// arrive on a polling goroutine and are consumed once per frame.
type TUI struct {
	screen     tcell.Screen
	session    *loop.Session
	scheduler  *loop.TickerScheduler
	input      *input.State
	hold       *input.Hold
	compositor *draw.Compositor
	canvas     *draw.Canvas
	offsetCol  int
	offsetRow  int
	events     chan tcell.Event
	done       chan struct{}
	logger     *log.Logger
	now        func() time.Time
}

// New creates a frontend on an initialized screen. The caller owns the
// screen and calls Fini after Run returns.
func New(screen tcell.Screen, sprites *asset.Store, opts Options) (*TUI, error) {
	interval := opts.FrameInterval
	if interval <= 0 {
		interval = time.Second / config.TerminalFrameRate
	}
	hold := opts.KeyHold
	if hold <= 0 {
		hold = config.KeyHoldDuration
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	t := &TUI{
		screen:    screen,
		scheduler: loop.NewTickerScheduler(interval),
		input:     input.NewState(),
		hold:      input.NewHold(hold),
		events:    make(chan tcell.Event, 100),
		done:      make(chan struct{}),
		logger:    logger,
		now:       time.Now,
	}

	layers, compositor := loop.RasterLayers(config.SurfaceWidth, config.SurfaceHeight)
	t.compositor = compositor
	t.session = loop.New(sprites, t.input, loop.Options{
		WallInterval: opts.WallInterval,
		Presenter:    loop.PresenterFunc(t.present),
		Logger:       logger,
	})
	if err := t.session.Initialize(layers); err != nil {
		return nil, err
	}

	t.canvas = draw.NewCanvas(1, 1)
	t.resize()
	return t, nil
}

// Session returns the game session the frontend drives.
func (t *TUI) Session() *loop.Session {
	return t.session
}

// Run plays until a quit key or ctx cancellation.
func (t *TUI) Run(ctx context.Context) error {
	t.screen.HideCursor()
	t.screen.Clear()

	go t.pollEvents()
	defer close(t.done)

	if err := t.session.Start(t.scheduler); err != nil {
		return err
	}
	err := t.scheduler.Run(ctx)
	if sessErr := t.session.Err(); sessErr != nil {
		return sessErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (t *TUI) pollEvents() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case t.events <- ev:
		case <-t.done:
			return
		}
	}
}

func (t *TUI) present() error {
	now := t.now()
	quit := false

drain:
	for {
		select {
		case ev := <-t.events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if t.handleKey(ev, now) {
					quit = true
				}
			case *tcell.EventResize:
				t.screen.Sync()
				t.resize()
			}
		default:
			break drain
		}
	}
	t.hold.Apply(t.input, now)

	if quit {
		t.logger.Debug("quit key pressed")
		t.session.Stop()
		return nil
	}

	t.canvas.Paint(t.compositor.Frame(), t.setCell)
	t.screen.Show()
	return nil
}

// handleKey records the action for ev and reports whether it is a quit
// key.
func (t *TUI) handleKey(ev *tcell.EventKey, now time.Time) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		t.hold.Press(input.Up, now)
	case tcell.KeyDown:
		t.hold.Press(input.Down, now)
	case tcell.KeyLeft:
		t.hold.Press(input.Left, now)
	case tcell.KeyRight:
		t.hold.Press(input.Right, now)
	case tcell.KeyRune:
		r := ev.Rune()
		if r == 'q' || r == 'Q' {
			return true
		}
		if a, ok := input.ActionForRune(r); ok {
			t.hold.Press(a, now)
		}
	}
	return false
}

func (t *TUI) setCell(col, row int, top, bottom color.RGBA) {
	style := tcell.StyleDefault.Foreground(rgb(top)).Background(rgb(bottom))
	t.screen.SetContent(col+t.offsetCol, row+t.offsetRow, draw.BlockUpperHalf, nil, style)
}

func (t *TUI) resize() {
	w, h := t.screen.Size()
	renderWidth, renderHeight, offsetCol, offsetRow := draw.Fit(w, h, config.SurfaceWidth, config.SurfaceHeight)
	t.screen.Clear()
	t.canvas.Resize(renderWidth, renderHeight)
	t.canvas.Invalidate()
	t.offsetCol, t.offsetRow = offsetCol, offsetRow
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
