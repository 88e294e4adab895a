// Package client runs a game session on an ANSI terminal: bytes in from a
// reader, half-block frames out to a writer. The local terminal and SSH
// sessions both use it.
package client

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/gravship/internal/asset"
	"github.com/tomz197/gravship/internal/config"
	"github.com/tomz197/gravship/internal/draw"
	"github.com/tomz197/gravship/internal/input"
	"github.com/tomz197/gravship/internal/loop"
)

// Client handles rendering and input for a single terminal.
type Client struct {
	session      *loop.Session
	scheduler    *loop.TickerScheduler
	input        *input.State
	inputStream  *input.Stream
	compositor   *draw.Compositor
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates one frame for chunked output
	writer       io.Writer
	termSizeFunc draw.TermSizeFunc
	termWidth    int // Last seen terminal size
	termHeight   int
	logger       *log.Logger
	now          func() time.Time
}

// Options configures the client.
type Options struct {
	TermSizeFunc  draw.TermSizeFunc
	FrameInterval time.Duration // Zero uses the terminal frame rate
	WallInterval  int
	KeyHold       time.Duration // Zero uses config.KeyHoldDuration
	Logger        *log.Logger
}

// New creates a client for a loaded sprite store, reading keys from r and
// drawing to w.
func New(sprites *asset.Store, r *bufio.Reader, w io.Writer, opts Options) (*Client, error) {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	interval := opts.FrameInterval
	if interval <= 0 {
		interval = time.Second / config.TerminalFrameRate
	}
	hold := opts.KeyHold
	if hold <= 0 {
		hold = config.KeyHoldDuration
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &Client{
		scheduler:    loop.NewTickerScheduler(interval),
		input:        input.NewState(),
		writer:       w,
		chunkWriter:  draw.NewChunkWriter(w),
		termSizeFunc: termSizeFunc,
		logger:       logger,
		now:          time.Now,
	}

	layers, compositor := loop.RasterLayers(config.SurfaceWidth, config.SurfaceHeight)
	c.compositor = compositor
	c.session = loop.New(sprites, c.input, loop.Options{
		WallInterval: opts.WallInterval,
		Presenter:    loop.PresenterFunc(c.present),
		Logger:       logger,
	})
	if err := c.session.Initialize(layers); err != nil {
		return nil, err
	}

	termWidth, termHeight, err := termSizeFunc()
	if err != nil {
		return nil, err
	}
	renderWidth, renderHeight, offsetCol, offsetRow := c.fit(termWidth, termHeight)
	c.canvas = draw.NewCanvas(renderWidth, renderHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.termWidth, c.termHeight = termWidth, termHeight

	// The reader goroutine starts last so a failed New leaves nothing
	// running.
	c.inputStream = input.StartStream(r, hold)
	return c, nil
}

// Session returns the game session the client drives.
func (c *Client) Session() *loop.Session {
	return c.session
}

// Run plays until a quit key, the end of input, a write error or ctx
// cancellation.
func (c *Client) Run(ctx context.Context) error {
	draw.EnterAltScreen(c.writer)
	draw.HideCursor(c.writer)
	defer draw.ExitAltScreen(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	if err := c.session.Start(c.scheduler); err != nil {
		return err
	}
	c.logger.Debug("terminal client running", "interval", c.scheduler.Interval())

	err := c.scheduler.Run(ctx)
	if sessErr := c.session.Err(); sessErr != nil {
		return sessErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// present runs at the end of every frame. Keys read here steer the next
// frame.
func (c *Client) present() error {
	c.inputStream.Poll(c.input, c.now())
	if c.inputStream.Quit() || c.inputStream.Closed() {
		c.logger.Debug("input ended", "quit", c.inputStream.Quit())
		c.session.Stop()
		return nil
	}

	c.updateScreen()
	if err := c.canvas.Render(c.chunkWriter, c.compositor.Frame()); err != nil {
		return err
	}
	return c.chunkWriter.Flush()
}

// updateScreen follows terminal resizes. On a real change the terminal is
// cleared to remove pixels outside the new canvas area.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil || (termWidth == c.termWidth && termHeight == c.termHeight) {
		return
	}
	c.termWidth, c.termHeight = termWidth, termHeight
	c.logger.Debug("terminal resized", "cols", termWidth, "rows", termHeight)

	renderWidth, renderHeight, offsetCol, offsetRow := c.fit(termWidth, termHeight)
	draw.ClearScreen(c.chunkWriter)
	c.canvas.Resize(renderWidth, renderHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.canvas.Invalidate()
}

func (c *Client) fit(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	return draw.Fit(termWidth, termHeight, config.SurfaceWidth, config.SurfaceHeight)
}
