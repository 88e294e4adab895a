package object

import (
	"image"

	"github.com/tomz197/gravship/internal/config"
	"github.com/tomz197/gravship/internal/draw"
)

// Background pans a tiled image leftwards, drawing a second copy one
// layer width to the right to cover the gap.
type Background struct {
	Base
	img image.Image
}

// NewBackground creates a background at the layer origin.
func NewBackground(layer *draw.Layer, img image.Image) *Background {
	b := &Background{img: img}
	b.Layer = layer
	b.Speed = config.BackgroundSpeed
	size := img.Bounds().Size()
	b.Init(0, 0, float64(size.X), float64(size.Y))
	return b
}

// Draw pans the background by its speed and redraws both copies,
// wrapping once the first copy has scrolled a full layer width.
func (b *Background) Draw() {
	b.X -= b.Speed
	b.Layer.Surface.DrawImage(b.img, b.X, b.Y)
	b.Layer.Surface.DrawImage(b.img, b.X+b.Layer.Width, b.Y)

	if b.X <= -b.Layer.Width {
		b.X = 0
	}
}
