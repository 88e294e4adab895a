// Package draw provides the drawing surfaces the game renders onto and
// the terminal plumbing that presents them.
package draw

import "image"

// Surface is a 2D layer entities draw onto. Coordinates are surface-local
// pixels; anything outside the surface is clipped.
type Surface interface {
	DrawImage(img image.Image, x, y float64)
	ClearRect(x, y, w, h float64)
	Width() int
	Height() int
}

// Layer is the drawing context shared by every entity of one type:
// the surface plus its dimensions, configured once per session.
type Layer struct {
	Surface Surface
	Width   float64
	Height  float64
}

// NewLayer captures the surface and its current dimensions.
func NewLayer(s Surface) *Layer {
	return &Layer{
		Surface: s,
		Width:   float64(s.Width()),
		Height:  float64(s.Height()),
	}
}

// Rect converts a floating-point rectangle to the smallest pixel
// rectangle covering it.
func Rect(x, y, w, h float64) image.Rectangle {
	return image.Rect(floor(x), floor(y), ceil(x+w), ceil(y+h))
}

func floor(v float64) int {
	i := int(v)
	if float64(i) > v {
		i--
	}
	return i
}

func ceil(v float64) int {
	i := int(v)
	if float64(i) < v {
		i++
	}
	return i
}
