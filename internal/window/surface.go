package window

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/tomz197/gravship/internal/draw"
)

// Surface is a drawing surface backed by an offscreen ebiten image.
type Surface struct {
	img     *ebiten.Image
	sprites map[image.Image]*ebiten.Image // GPU copies of decoded sprites
	op      ebiten.DrawImageOptions
}

var _ draw.Surface = (*Surface)(nil)

// NewSurface creates a transparent surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{
		img:     ebiten.NewImage(width, height),
		sprites: make(map[image.Image]*ebiten.Image),
	}
}

// DrawImage draws img with its top-left corner at (x, y). Each distinct
// sprite is uploaded once and reused.
func (s *Surface) DrawImage(img image.Image, x, y float64) {
	src, ok := s.sprites[img]
	if !ok {
		src = ebiten.NewImageFromImage(img)
		s.sprites[img] = src
	}
	s.op.GeoM.Reset()
	s.op.GeoM.Translate(x, y)
	s.img.DrawImage(src, &s.op)
}

// ClearRect makes the pixels covering the rectangle transparent.
func (s *Surface) ClearRect(x, y, w, h float64) {
	r := draw.Rect(x, y, w, h).Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}
	s.img.SubImage(r).(*ebiten.Image).Clear()
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.img.Bounds().Dx() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.img.Bounds().Dy() }

// Image returns the backing image.
func (s *Surface) Image() *ebiten.Image { return s.img }
