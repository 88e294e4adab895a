package object

import (
	"image"

	"github.com/tomz197/gravship/internal/config"
	"github.com/tomz197/gravship/internal/draw"
	"github.com/tomz197/gravship/internal/input"
	"github.com/tomz197/gravship/internal/pool"
)

// Ship is the player-controlled sprite. Gravity pulls it down every
// frame; holding the primary action replaces its velocity with an upward
// impulse. It owns the pool of walls it flies through.
type Ship struct {
	Base
	Gravity  float64
	Velocity float64
	Impulse  float64
	Timestep Timestep

	img    image.Image
	input  *input.State
	walls  *pool.Pool[*Wall]
	frames int
}

var _ Entity = (*Ship)(nil)

// ShipSprites are the images a ship and its walls are drawn with.
type ShipSprites struct {
	Ship       image.Image
	TopWall    image.Image
	BottomWall image.Image
}

// NewShip creates a ship drawing on layer, reading controls from in. Its
// wall pool is filled up front with walls drawing on wallLayer.
func NewShip(layer, wallLayer *draw.Layer, sprites ShipSprites, in *input.State) *Ship {
	s := &Ship{
		Gravity:  config.ShipGravity,
		Velocity: config.ShipVelocity,
		Impulse:  config.ShipImpulse,
		Timestep: FixedTimestep(config.ShipTimestep),
		img:      sprites.Ship,
		input:    in,
	}
	s.Layer = layer
	s.Speed = config.ShipSpeed
	size := sprites.Ship.Bounds().Size()
	s.Init(0, 0, float64(size.X), float64(size.Y))

	s.walls = pool.New(config.WallPoolCapacity, func() *Wall {
		return NewWall(wallLayer, sprites.TopWall, sprites.BottomWall)
	})
	return s
}

// Walls returns the ship's wall pool.
func (s *Ship) Walls() *pool.Pool[*Wall] {
	return s.walls
}

// Frames returns how many times Move has run.
func (s *Ship) Frames() int {
	return s.frames
}

// Draw renders the sprite at the current position.
func (s *Ship) Draw() {
	s.Layer.Surface.DrawImage(s.img, s.X, s.Y)
}

// Move applies one explicit Euler step: the impulse overrides velocity
// while the primary action is held, then position integrates velocity
// and velocity integrates gravity.
func (s *Ship) Move() {
	s.frames++
	s.Draw()

	if s.input.Pressed(input.Primary) {
		s.clear()
		s.Velocity = s.Impulse
	}

	s.clear()
	s.Y += s.Velocity
	s.Velocity += s.Gravity * s.Timestep.Delta()
	s.Draw()
}

// clear erases the sprite's dirty rectangle.
func (s *Ship) clear() {
	s.Layer.Surface.ClearRect(s.X, s.Y, s.Width, s.Height)
}
