// Package loop wires the game entities to their drawing surfaces and runs
// the per-frame animation.
package loop

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/tomz197/gravship/internal/asset"
	"github.com/tomz197/gravship/internal/config"
	"github.com/tomz197/gravship/internal/draw"
	"github.com/tomz197/gravship/internal/input"
	"github.com/tomz197/gravship/internal/object"
)

// State is the session lifecycle phase.
type State int

const (
	StateUninitialized State = iota // Nothing built yet
	StateReady                      // Entities built, loop not started
	StateRunning                    // Frames are being scheduled
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrUnsupportedSurface means the host has no primary drawing
	// surface. The session must not be started.
	ErrUnsupportedSurface = errors.New("loop: drawing surface not supported")
	// ErrAssetsNotLoaded means Initialize ran before the sprites decoded.
	ErrAssetsNotLoaded = errors.New("loop: sprites not loaded")
	// ErrNotReady means Start was called outside the ready state.
	ErrNotReady = errors.New("loop: session not ready")
)

// Layers are the three stacked surfaces, bottom to top in compositing
// order.
type Layers struct {
	Background draw.Surface
	Walls      draw.Surface
	Ship       draw.Surface
}

// Presenter shows the finished frame, e.g. by compositing the layers and
// writing them to a terminal.
type Presenter interface {
	Present() error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func() error

// Present calls f.
func (f PresenterFunc) Present() error { return f() }

// Options tune a session. The zero value keeps walls inert and presents
// nothing.
type Options struct {
	// WallInterval is the number of frames between wall spawns. When
	// zero no walls are spawned or animated.
	WallInterval int
	// Presenter runs at the end of every frame.
	Presenter Presenter
	// Timestep overrides the ship's fixed integration step.
	Timestep object.Timestep
	Logger   *log.Logger
}

// Session owns one game: the background, the ship with its wall pool,
// and the layers they draw on.
type Session struct {
	opts    Options
	sprites *asset.Store
	input   *input.State
	logger  *log.Logger

	mu         sync.Mutex
	state      State
	background *object.Background
	ship       *object.Ship
	wallLayer  *draw.Layer
	scheduler  Scheduler
	frame      int
	animate    func() // Cached method value so rescheduling does not allocate

	stopped atomic.Bool
	err     atomic.Pointer[error]
}

// New creates an uninitialized session reading controls from in.
func New(sprites *asset.Store, in *input.State, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Session{
		opts:    opts,
		sprites: sprites,
		input:   in,
		logger:  logger,
	}
	s.animate = s.Animate
	return s
}

// Initialize wires one shared layer per entity type and builds the
// background and the ship. The ship starts near the centre of its layer.
func (s *Session) Initialize(layers Layers) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if layers.Background == nil || layers.Walls == nil || layers.Ship == nil {
		return ErrUnsupportedSurface
	}
	if !s.sprites.Loaded() {
		return ErrAssetsNotLoaded
	}

	bgLayer := draw.NewLayer(layers.Background)
	shipLayer := draw.NewLayer(layers.Ship)
	s.wallLayer = draw.NewLayer(layers.Walls)

	s.background = object.NewBackground(bgLayer, s.sprites.Background)

	s.ship = object.NewShip(shipLayer, s.wallLayer, object.ShipSprites{
		Ship:       s.sprites.Ship,
		TopWall:    s.sprites.TopWall,
		BottomWall: s.sprites.BottomWall,
	}, s.input)
	if s.opts.Timestep != nil {
		s.ship.Timestep = s.opts.Timestep
	}
	size := s.sprites.Ship.Bounds().Size()
	w, h := float64(size.X), float64(size.Y)
	startX := shipLayer.Width/2 - w + config.ShipSpawnOffset
	startY := shipLayer.Height/2 - h + config.ShipSpawnOffset
	s.ship.Init(startX, startY, w, h)

	s.state = StateReady
	s.logger.Debug("session initialized",
		"width", bgLayer.Width, "height", bgLayer.Height,
		"ship_x", startX, "ship_y", startY, "walls", s.opts.WallInterval)
	return nil
}

// Start draws the ship once and hands Animate to the scheduler. The
// session keeps running until Stop or a presenter error.
func (s *Session) Start(scheduler Scheduler) error {
	s.mu.Lock()
	if s.state != StateReady {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: state is %s", ErrNotReady, state)
	}
	s.scheduler = scheduler
	s.ship.Draw()
	s.state = StateRunning
	s.mu.Unlock()

	s.logger.Debug("session started")
	scheduler.RequestFrame(s.animate)
	return nil
}

// Animate runs one frame. It reschedules itself before doing any work so
// the cadence does not depend on how long the frame takes, then pans the
// background, moves the ship and animates the walls.
func (s *Session) Animate() {
	if s.stopped.Load() {
		return
	}
	s.scheduler.RequestFrame(s.animate)

	s.frame++
	s.background.Draw()
	s.ship.Move()
	if n := s.opts.WallInterval; n > 0 {
		if (s.frame-1)%n == 0 {
			s.ship.Walls().Acquire(s.wallLayer.Width, 0, config.WallSpeed)
		}
		s.ship.Walls().Animate()
	}

	if s.opts.Presenter != nil {
		if err := s.opts.Presenter.Present(); err != nil {
			s.fail(err)
		}
	}
}

// Stop makes the next frame return without rescheduling, which ends the
// loop.
func (s *Session) Stop() {
	s.stopped.Store(true)
}

func (s *Session) fail(err error) {
	err = fmt.Errorf("present frame %d: %w", s.frame, err)
	if s.err.CompareAndSwap(nil, &err) {
		s.logger.Error("stopping session", "err", err)
	}
	s.Stop()
}

// Err returns the error that stopped the session, if any.
func (s *Session) Err() error {
	if p := s.err.Load(); p != nil {
		return *p
	}
	return nil
}

// State returns the lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Frame returns the number of frames animated so far.
func (s *Session) Frame() int {
	return s.frame
}

// Ship returns the player's ship, nil before Initialize.
func (s *Session) Ship() *object.Ship {
	return s.ship
}

// Background returns the panning background, nil before Initialize.
func (s *Session) Background() *object.Background {
	return s.background
}

// RasterLayers creates three software layers of the given size and a
// compositor that stacks them in drawing order.
func RasterLayers(width, height int) (Layers, *draw.Compositor) {
	bg := draw.NewRaster(width, height)
	walls := draw.NewRaster(width, height)
	ship := draw.NewRaster(width, height)
	return Layers{Background: bg, Walls: walls, Ship: ship}, draw.NewCompositor(bg, walls, ship)
}
