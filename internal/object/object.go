// Package object defines the game's drawable entities.
package object

import (
	"time"

	"github.com/tomz197/gravship/internal/draw"
)

// Entity is a drawable game unit advanced once per frame.
type Entity interface {
	// Draw renders the entity on its layer.
	Draw()
	// Move advances the entity and redraws it.
	Move()
}

// Base holds the fields every entity shares: position and size in
// surface-local pixels, scroll speed, and the layer of its entity type.
// Its Draw and Move do nothing.
type Base struct {
	X, Y          float64
	Width, Height float64
	Speed         float64
	Layer         *draw.Layer
}

// Init places the entity and sets its size.
func (b *Base) Init(x, y, width, height float64) {
	b.X = x
	b.Y = y
	b.Width = width
	b.Height = height
}

// Draw is a no-op.
func (b *Base) Draw() {}

// Move is a no-op.
func (b *Base) Move() {}

// Timestep supplies the integration step used by physics each frame.
type Timestep interface {
	Delta() float64
}

// FixedTimestep is a constant step, independent of how much time passed
// between frames.
type FixedTimestep float64

// Delta returns the fixed step.
func (f FixedTimestep) Delta() float64 { return float64(f) }

// ElapsedTimestep scales a nominal step by the wall-clock time between
// calls, so physics speed no longer depends on the frame rate.
type ElapsedTimestep struct {
	nominal float64
	frame   time.Duration
	last    time.Time
	now     func() time.Time
}

// NewElapsedTimestep returns a timestep worth nominal per frame of real
// time.
func NewElapsedTimestep(nominal float64, frame time.Duration) *ElapsedTimestep {
	return &ElapsedTimestep{nominal: nominal, frame: frame, now: time.Now}
}

// Delta returns the step for the time since the previous call. The first
// call returns the nominal step.
func (e *ElapsedTimestep) Delta() float64 {
	now := e.now()
	if e.last.IsZero() || e.frame <= 0 {
		e.last = now
		return e.nominal
	}
	elapsed := now.Sub(e.last)
	e.last = now
	return e.nominal * float64(elapsed) / float64(e.frame)
}
