// Package window runs a game session in a desktop window with ebiten.
// Ebiten's update tick is the display refresh signal that drives frames.
package window

import (
	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/tomz197/gravship/internal/asset"
	"github.com/tomz197/gravship/internal/config"
	"github.com/tomz197/gravship/internal/input"
	"github.com/tomz197/gravship/internal/loop"
)

// Title is the window title.
const Title = "Gravship"

// keys maps keyboard keys to actions.
var keys = map[ebiten.Key]input.Action{
	ebiten.KeySpace: input.Primary,
	ebiten.KeyUp:    input.Up,
	ebiten.KeyDown:  input.Down,
	ebiten.KeyLeft:  input.Left,
	ebiten.KeyRight: input.Right,
	ebiten.KeyW:     input.Up,
	ebiten.KeyS:     input.Down,
	ebiten.KeyA:     input.Left,
	ebiten.KeyD:     input.Right,
}

// Options configures the window frontend.
type Options struct {
	Scale        int // Window size as a multiple of the surface size
	WallInterval int
	Logger       *log.Logger
}

// Game implements ebiten.Game for one session.
type Game struct {
	session   *loop.Session
	scheduler *loop.ManualScheduler
	input     *input.State
	layers    [3]*Surface // Background, walls, ship
	op        ebiten.DrawImageOptions
	logger    *log.Logger
}

var _ ebiten.Game = (*Game)(nil)

// New builds and starts a session drawing on ebiten images.
func New(sprites *asset.Store, opts Options) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	g := &Game{
		scheduler: loop.NewManualScheduler(),
		input:     input.NewState(),
		logger:    logger,
	}
	for i := range g.layers {
		g.layers[i] = NewSurface(config.SurfaceWidth, config.SurfaceHeight)
	}

	g.session = loop.New(sprites, g.input, loop.Options{
		WallInterval: opts.WallInterval,
		Logger:       logger,
	})
	err := g.session.Initialize(loop.Layers{
		Background: g.layers[0],
		Walls:      g.layers[1],
		Ship:       g.layers[2],
	})
	if err != nil {
		return nil, err
	}
	if err := g.session.Start(g.scheduler); err != nil {
		return nil, err
	}
	return g, nil
}

// Update applies key transitions and runs the pending frame.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	for key, action := range keys {
		switch {
		case inpututil.IsKeyJustPressed(key):
			g.input.Down(action)
		case inpututil.IsKeyJustReleased(key):
			g.input.Up(action)
		}
	}

	if !g.scheduler.Step() {
		if err := g.session.Err(); err != nil {
			return err
		}
		return ebiten.Termination
	}
	return nil
}

// Draw stacks the layers onto the screen.
func (g *Game) Draw(screen *ebiten.Image) {
	g.op.GeoM.Reset()
	for _, l := range g.layers {
		screen.DrawImage(l.Image(), &g.op)
	}
}

// Layout keeps the logical resolution fixed; ebiten scales it to the
// window.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return config.SurfaceWidth, config.SurfaceHeight
}

// Run opens the window and blocks until it is closed.
func Run(sprites *asset.Store, opts Options) error {
	g, err := New(sprites, opts)
	if err != nil {
		return err
	}
	scale := opts.Scale
	if scale < 1 {
		scale = 3
	}
	ebiten.SetWindowSize(config.SurfaceWidth*scale, config.SurfaceHeight*scale)
	ebiten.SetWindowTitle(Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g.logger.Debug("opening window", "scale", scale)
	return ebiten.RunGame(g)
}
