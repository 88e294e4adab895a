package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"

	"github.com/tomz197/gravship/internal/asset"
	"github.com/tomz197/gravship/internal/client"
	"github.com/tomz197/gravship/internal/config"
	"github.com/tomz197/gravship/internal/draw"
	"github.com/tomz197/gravship/internal/hub"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "gravship-ssh",
	})
	if config.GetEnv("GRAVSHIP_DEBUG", "") != "" {
		logger.SetLevel(log.DebugLevel)
	}

	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	logger.Info("ssh config", "host", host, "port", port, "host_key", hostKeyPath)

	sprites := asset.NewStore()
	if err := sprites.Load(context.Background(), asset.Default()); err != nil {
		logger.Fatal("failed to load sprites", "err", err)
	}

	players := hub.New(logger)
	g := &game{
		sprites: sprites,
		hub:     players,
		opts: client.Options{
			FrameInterval: config.FallbackFrameInterval,
			WallInterval:  config.GetEnvInt("GRAVSHIP_WALLS", config.WallInterval),
		},
	}
	if fps := config.GetEnvInt("GRAVSHIP_FPS", config.TerminalFrameRate); fps > 0 {
		g.opts.FrameInterval = time.Second / time.Duration(fps)
	}

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			g.middleware,
			activeterm.Middleware(),
			logging.StructuredMiddlewareWithLogger(logger, log.InfoLevel),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("failed to create server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting ssh server", "addr", net.JoinHostPort(host, port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down server")
	players.Shutdown(config.ShutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", "err", err)
	}
}

// game runs one independent session per SSH connection.
type game struct {
	sprites *asset.Store
	hub     *hub.Hub
	opts    client.Options
}

func (g *game) middleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		styles := newStyles(lipgloss.NewRenderer(sess))

		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, styles.err.Render("PTY required. Connect with: ssh -t user@host"))
			return
		}

		ctx, conn, err := g.hub.Join(sess.Context(), "ssh", sess.RemoteAddr().String(), sess.User())
		if err != nil {
			fmt.Fprintln(sess, styles.notice.Render("Server is shutting down, try again later."))
			return
		}
		defer g.hub.Leave(conn)
		conn.Logger.Debug("pty", "term", pty.Term, "cols", pty.Window.Width, "rows", pty.Window.Height)

		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		opts := g.opts
		opts.TermSizeFunc = sizeTracker.getSize
		opts.Logger = conn.Logger
		c, err := client.New(g.sprites, bufio.NewReader(sess), sess, opts)
		if err != nil {
			conn.Logger.Error("failed to start session", "err", err)
			fmt.Fprintln(sess, styles.err.Render("Could not start the game."))
			return
		}

		err = c.Run(ctx)
		switch {
		case err != nil:
			conn.Logger.Error("game error", "err", err)
		case errors.Is(ctx.Err(), context.Canceled) && sess.Context().Err() == nil:
			fmt.Fprintln(sess, styles.notice.Render("Server is shutting down. Thanks for playing!"))
		default:
			fmt.Fprintf(sess, "%s\r\n", styles.notice.Render(
				fmt.Sprintf("Thanks for playing, %s! You flew %d frames.", sess.User(), c.Session().Frame())))
		}
		next(sess)
	}
}

type styles struct {
	notice lipgloss.Style
	err    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		notice: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1),
		err:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87")).Padding(0, 1),
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
