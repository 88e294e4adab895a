package draw

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Raster is a software Surface backed by an RGBA buffer. Cleared pixels
// are transparent so stacked rasters composite like canvas layers.
type Raster struct {
	img *image.RGBA
}

// NewRaster creates a transparent raster of the given size.
func NewRaster(width, height int) *Raster {
	return &Raster{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// DrawImage draws img with its top-left corner at (x, y), blending over
// what is already there.
func (r *Raster) DrawImage(img image.Image, x, y float64) {
	xdraw.Copy(r.img, image.Pt(floor(x), floor(y)), img, img.Bounds(), xdraw.Over, nil)
}

// ClearRect resets the covered pixels to transparent.
func (r *Raster) ClearRect(x, y, w, h float64) {
	rect := Rect(x, y, w, h).Intersect(r.img.Rect)
	if rect.Empty() {
		return
	}
	xdraw.Draw(r.img, rect, image.Transparent, image.Point{}, xdraw.Src)
}

// Clear resets the whole raster to transparent.
func (r *Raster) Clear() {
	clear(r.img.Pix)
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int { return r.img.Rect.Dx() }

// Height returns the raster height in pixels.
func (r *Raster) Height() int { return r.img.Rect.Dy() }

// Image exposes the backing buffer.
func (r *Raster) Image() *image.RGBA { return r.img }

// Compositor stacks rasters bottom to top into a reusable opaque frame.
type Compositor struct {
	frame  *image.RGBA
	layers []*Raster
	base   *image.Uniform
}

// NewCompositor creates a compositor for layers given bottom first.
// All layers are expected to share the first layer's size.
func NewCompositor(layers ...*Raster) *Compositor {
	w, h := 0, 0
	if len(layers) > 0 {
		w, h = layers[0].Width(), layers[0].Height()
	}
	return &Compositor{
		frame:  image.NewRGBA(image.Rect(0, 0, w, h)),
		layers: layers,
		base:   image.NewUniform(color.RGBA{A: 0xff}),
	}
}

// Frame composes the layers and returns the shared frame buffer, valid
// until the next call.
func (c *Compositor) Frame() *image.RGBA {
	xdraw.Draw(c.frame, c.frame.Rect, c.base, image.Point{}, xdraw.Src)
	for _, l := range c.layers {
		xdraw.Draw(c.frame, c.frame.Rect, l.img, image.Point{}, xdraw.Over)
	}
	return c.frame
}
