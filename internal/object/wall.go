package object

import (
	"image"

	"github.com/tomz197/gravship/internal/draw"
	"github.com/tomz197/gravship/internal/pool"
)

// Wall is a top and bottom barrier pair scrolling together. Walls live in
// a pool and are recycled once they leave the layer on the left.
type Wall struct {
	Base
	top, bottom      image.Image
	topSize, botSize image.Point
	topY, bottomY    float64
	alive            bool
	drawn            bool    // A copy is on the layer at lastX
	lastX            float64 // Where the dirty rectangles were drawn
}

var _ pool.Recyclable = (*Wall)(nil)

// NewWall creates a dead wall drawing on layer.
func NewWall(layer *draw.Layer, top, bottom image.Image) *Wall {
	w := &Wall{
		top:     top,
		bottom:  bottom,
		topSize: top.Bounds().Size(),
		botSize: bottom.Bounds().Size(),
	}
	w.Layer = layer
	w.Init(0, 0, float64(max(w.topSize.X, w.botSize.X)), float64(w.topSize.Y))
	return w
}

// Alive reports whether the wall is in play.
func (w *Wall) Alive() bool {
	return w.alive
}

// Spawn puts the wall in play with its top piece at (x, y) and its
// bottom piece at x on the layer's bottom edge.
func (w *Wall) Spawn(x, y, speed float64) {
	w.alive = true
	w.drawn = false
	w.X = x
	w.Y = y
	w.topY = y
	w.bottomY = w.Layer.Height
	w.Speed = speed
}

// Draw erases the previous frame's pieces, scrolls left by the wall's
// speed and redraws. Returns true once the wall has scrolled its full
// width past the left edge.
func (w *Wall) Draw() bool {
	if w.drawn {
		w.erase()
	}
	w.X -= w.Speed
	w.Layer.Surface.DrawImage(w.top, w.X, w.topY)
	w.Layer.Surface.DrawImage(w.bottom, w.X, w.bottomY)
	w.lastX = w.X
	w.drawn = true
	return w.X <= -w.Width
}

// Clear erases the wall and takes it out of play.
func (w *Wall) Clear() {
	if w.drawn {
		w.erase()
	}
	w.alive = false
	w.drawn = false
	w.X, w.Y = 0, 0
	w.Speed = 0
}

func (w *Wall) erase() {
	w.Layer.Surface.ClearRect(w.lastX, w.topY, float64(w.topSize.X), float64(w.topSize.Y))
	w.Layer.Surface.ClearRect(w.lastX, w.bottomY, float64(w.botSize.X), float64(w.botSize.Y))
}
