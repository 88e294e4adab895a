package draw

import (
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Canvas presents a frame on a terminal with 2x vertical resolution
// using upper half-block characters: the foreground colour paints the
// top sub-pixel and the background colour the bottom one. Only cells
// that changed since the previous Render are written.
type Canvas struct {
	termWidth      int // Render area columns
	termHeight     int // Render area rows
	subPixelHeight int // termHeight * 2

	// Offset for centering the render area when the terminal is larger
	// than the scaled frame. 0-based columns/rows to skip.
	offsetCol int
	offsetRow int

	scaled *image.RGBA // Frame scaled to termWidth x subPixelHeight
	cells  []cell      // Last colours written per cell
	dirty  bool        // Force a full repaint on the next Render

	// Reusable buffers to reduce allocations
	renderBuf strings.Builder
	numBuf    [20]byte
}

type cell struct {
	top, bottom color.RGBA
}

// NewCanvas creates a canvas covering termWidth x termHeight cells.
func NewCanvas(termWidth, termHeight int) *Canvas {
	c := &Canvas{}
	c.Resize(termWidth, termHeight)
	return c
}

// Resize reallocates the canvas for a new render area and forces a full
// repaint.
func (c *Canvas) Resize(termWidth, termHeight int) {
	termWidth = max(termWidth, 1)
	termHeight = max(termHeight, 1)
	if termWidth == c.termWidth && termHeight == c.termHeight {
		return
	}
	c.termWidth = termWidth
	c.termHeight = termHeight
	c.subPixelHeight = termHeight * 2
	c.scaled = image.NewRGBA(image.Rect(0, 0, termWidth, c.subPixelHeight))
	c.cells = make([]cell, termWidth*termHeight)
	c.dirty = true
}

// SetOffset sets the column and row offset for centering the canvas.
// Offsets are 0-based terminal positions: the canvas starts at (offsetCol+1, offsetRow+1).
func (c *Canvas) SetOffset(col, row int) {
	if col != c.offsetCol || row != c.offsetRow {
		c.dirty = true
	}
	c.offsetCol = col
	c.offsetRow = row
}

// Invalidate forces the next Render to repaint every cell, e.g. after the
// terminal was cleared.
func (c *Canvas) Invalidate() {
	c.dirty = true
}

// TerminalWidth returns the render area column count.
func (c *Canvas) TerminalWidth() int {
	return c.termWidth
}

// TerminalHeight returns the render area row count.
func (c *Canvas) TerminalHeight() int {
	return c.termHeight
}

// Cell returns the colours last rendered at a 0-based cell position.
func (c *Canvas) Cell(col, row int) (top, bottom color.RGBA) {
	cl := c.cells[row*c.termWidth+col]
	return cl.top, cl.bottom
}

// Paint resamples frame to the canvas resolution and calls fn for every
// cell whose colours changed since the previous Paint (every cell after
// Resize, SetOffset or Invalidate). Positions are 0-based and exclude the
// offset.
func (c *Canvas) Paint(frame image.Image, fn func(col, row int, top, bottom color.RGBA)) {
	xdraw.ApproxBiLinear.Scale(c.scaled, c.scaled.Rect, frame, frame.Bounds(), xdraw.Src, nil)
	for row := 0; row < c.termHeight; row++ {
		for col := 0; col < c.termWidth; col++ {
			next := cell{
				top:    c.scaled.RGBAAt(col, row*2),
				bottom: c.scaled.RGBAAt(col, row*2+1),
			}
			idx := row*c.termWidth + col
			if !c.dirty && next == c.cells[idx] {
				continue
			}
			c.cells[idx] = next
			fn(col, row, next.top, next.bottom)
		}
	}
	c.dirty = false
}

// maxChunkSize is the maximum bytes to write at once for optimal network flow.
// 1500 bytes matches typical MTU size for smooth SSH/network transmission.
const maxChunkSize = 1400

// Render scales frame to the canvas and writes the changed cells to w as
// ANSI half-blocks with 24-bit colours.
func (c *Canvas) Render(w io.Writer, frame image.Image) error {
	c.renderBuf.Reset()
	var lastFg, lastBg color.RGBA
	styled := false
	cursorCol, cursorRow := -1, -1

	c.Paint(frame, func(col, row int, top, bottom color.RGBA) {
		// The cursor advances by one after each rune, so adjacent
		// changed cells need no explicit move.
		if row != cursorRow || col != cursorCol {
			c.moveCursor(col+1+c.offsetCol, row+1+c.offsetRow)
		}
		if !styled || top != lastFg {
			c.writeColor(38, top)
			lastFg = top
		}
		if !styled || bottom != lastBg {
			c.writeColor(48, bottom)
			lastBg = bottom
		}
		styled = true
		c.renderBuf.WriteRune(BlockUpperHalf)
		cursorCol, cursorRow = col+1, row
	})

	if c.renderBuf.Len() == 0 {
		return nil
	}
	c.renderBuf.WriteString("\033[0m")

	// Write output in chunks for optimal network flow
	data := c.renderBuf.String()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		data = data[len(chunk):]
	}
	return nil
}

func (c *Canvas) moveCursor(col, row int) {
	c.renderBuf.WriteString("\033[")
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(row), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(col), 10))
	c.renderBuf.WriteByte('H')
}

// writeColor appends a 24-bit SGR colour; layer is 38 (fg) or 48 (bg).
func (c *Canvas) writeColor(layer int, rgba color.RGBA) {
	c.renderBuf.WriteString("\033[")
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(layer), 10))
	c.renderBuf.WriteString(";2;")
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(rgba.R), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(rgba.G), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(rgba.B), 10))
	c.renderBuf.WriteByte('m')
}

// Fit computes the largest render area that shows a logicalWidth x
// logicalHeight frame with square half-block pixels inside a termWidth x
// termHeight terminal, plus the offsets that centre it.
func Fit(termWidth, termHeight int, logicalWidth, logicalHeight float64) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	if termWidth < 1 || termHeight < 1 || logicalWidth <= 0 || logicalHeight <= 0 {
		return max(termWidth, 1), max(termHeight, 1), 0, 0
	}
	scale := min(float64(termWidth)/logicalWidth, float64(termHeight*2)/logicalHeight)
	renderWidth = max(int(logicalWidth*scale), 1)
	renderHeight = max(int(logicalHeight*scale/2), 1)
	offsetCol = (termWidth - renderWidth) / 2
	offsetRow = (termHeight - renderHeight) / 2
	return renderWidth, renderHeight, offsetCol, offsetRow
}
