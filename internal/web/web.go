// Package web serves the game to browsers. Each websocket connection runs
// its own session; frames go out as PNG images and key events come back
// as JSON.
package web

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"image/png"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/tomz197/gravship/internal/asset"
	"github.com/tomz197/gravship/internal/config"
	"github.com/tomz197/gravship/internal/hub"
	"github.com/tomz197/gravship/internal/input"
	"github.com/tomz197/gravship/internal/loop"
)

// SocketPath is where the page connects its websocket.
const SocketPath = "/ws"

const (
	maxMessageSize = 1024
	writeWait      = 10 * time.Second
)

//go:embed index.html
var indexHTML string

var page = template.Must(template.New("index").Parse(indexHTML))

// KeyEvent is a key transition sent by the page.
type KeyEvent struct {
	Type    string `json:"type"` // "keydown" or "keyup"
	KeyCode int    `json:"keyCode"`
}

// Options configures the web frontend.
type Options struct {
	FrameInterval time.Duration // Zero uses the web frame rate
	WallInterval  int
	Logger        *log.Logger
}

// Server serves the page and the game socket.
type Server struct {
	sprites  *asset.Store
	hub      *hub.Hub
	opts     Options
	logger   *log.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux
	pngPool  sync.Pool
}

// NewServer creates the HTTP handler for a loaded sprite store.
// Connections are registered with h.
func NewServer(sprites *asset.Store, h *hub.Hub, opts Options) *Server {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = time.Second / config.WebFrameRate
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		sprites: sprites,
		hub:     h,
		opts:    opts,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxMessageSize,
			WriteBufferSize: 16 << 10,
		},
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET "+SocketPath, s.handleSocket)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	codes := make([]int, 0, len(input.KeyCodes))
	for code := range input.KeyCodes {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := page.Execute(w, struct {
		Width, Height int
		KeyCodes      []int
		SocketPath    string
	}{config.SurfaceWidth, config.SurfaceHeight, codes, SocketPath})
	if err != nil {
		s.logger.Error("render page", "err", err)
	}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade", "err", err)
		return
	}
	defer conn.Close()

	ctx, c, err := s.hub.Join(r.Context(), "web", r.RemoteAddr, "")
	if err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		return
	}
	defer s.hub.Leave(c)

	if err := s.play(ctx, conn, c.Logger); err != nil {
		c.Logger.Debug("session ended", "err", err)
	}
}

// play runs one session until the socket fails or ctx is done.
func (s *Server) play(ctx context.Context, conn *websocket.Conn, logger *log.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := input.NewState()
	layers, compositor := loop.RasterLayers(config.SurfaceWidth, config.SurfaceHeight)
	buf := s.pngBuffer()
	defer s.pngPool.Put(buf)
	enc := png.Encoder{CompressionLevel: png.BestSpeed}

	session := loop.New(s.sprites, state, loop.Options{
		WallInterval: s.opts.WallInterval,
		Logger:       logger,
		Presenter: loop.PresenterFunc(func() error {
			buf.Reset()
			if err := enc.Encode(buf, compositor.Frame()); err != nil {
				return err
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			return conn.WriteMessage(websocket.BinaryMessage, buf.Bytes())
		}),
	})
	if err := session.Initialize(layers); err != nil {
		return err
	}

	go func() {
		defer cancel()
		if err := readKeys(conn, state); err != nil {
			logger.Debug("read", "err", err)
		}
	}()

	scheduler := loop.NewTickerScheduler(s.opts.FrameInterval)
	if err := session.Start(scheduler); err != nil {
		return err
	}
	err := scheduler.Run(ctx)
	if sessErr := session.Err(); sessErr != nil {
		return sessErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// readKeys applies key events from the socket until it fails.
func readKeys(conn *websocket.Conn, state *input.State) error {
	conn.SetReadLimit(maxMessageSize)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var ev KeyEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue
		}
		switch ev.Type {
		case "keydown":
			state.KeyDown(ev.KeyCode)
		case "keyup":
			state.KeyUp(ev.KeyCode)
		}
	}
}

func (s *Server) pngBuffer() *bytes.Buffer {
	if b, ok := s.pngPool.Get().(*bytes.Buffer); ok {
		return b
	}
	return new(bytes.Buffer)
}
