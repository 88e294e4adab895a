// Package hub tracks the live game connections of a server so they can
// be listed and shut down together.
package hub

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// ErrClosed is returned by Join once Shutdown has begun.
var ErrClosed = errors.New("hub: shutting down")

// Conn is one connected player. Each connection runs its own session.
type Conn struct {
	ID      uuid.UUID
	Kind    string // "ssh" or "web"
	Remote  string
	User    string
	Started time.Time
	Logger  *log.Logger // Tagged with the connection id

	cancel context.CancelFunc
}

// Info is a point-in-time view of a connection.
type Info struct {
	ID      uuid.UUID
	Kind    string
	Remote  string
	User    string
	Started time.Time
}

// Hub is the registry of live connections.
type Hub struct {
	mu      sync.Mutex
	conns   map[uuid.UUID]*Conn
	closing bool
	left    chan struct{} // Signalled whenever a connection leaves
	logger  *log.Logger
}

// New creates an empty hub.
func New(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		conns:  make(map[uuid.UUID]*Conn),
		left:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Join registers a connection and returns a context that is cancelled
// when the hub shuts down or parent is done. Callers must Leave when the
// connection ends.
func (h *Hub) Join(parent context.Context, kind, remote, user string) (context.Context, *Conn, error) {
	ctx, cancel := context.WithCancel(parent)
	c := &Conn{
		ID:      uuid.New(),
		Kind:    kind,
		Remote:  remote,
		User:    user,
		Started: time.Now(),
		cancel:  cancel,
	}
	c.Logger = h.logger.With("session", c.ID.String())

	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		cancel()
		return nil, nil, ErrClosed
	}
	h.conns[c.ID] = c
	n := len(h.conns)
	h.mu.Unlock()

	c.Logger.Info("player joined", "kind", kind, "remote", remote, "user", user, "players", n)
	return ctx, c, nil
}

// Leave removes a connection and cancels its context.
func (h *Hub) Leave(c *Conn) {
	c.cancel()

	h.mu.Lock()
	_, ok := h.conns[c.ID]
	delete(h.conns, c.ID)
	n := len(h.conns)
	h.mu.Unlock()

	if !ok {
		return
	}
	c.Logger.Info("player left", "played", time.Since(c.Started).Round(time.Second), "players", n)
	select {
	case h.left <- struct{}{}:
	default:
	}
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// List returns the live connections, oldest first.
func (h *Hub) List() []Info {
	h.mu.Lock()
	infos := make([]Info, 0, len(h.conns))
	for _, c := range h.conns {
		infos = append(infos, Info{
			ID:      c.ID,
			Kind:    c.Kind,
			Remote:  c.Remote,
			User:    c.User,
			Started: c.Started,
		})
	}
	h.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Started.Before(infos[j].Started)
	})
	return infos
}

// Shutdown refuses new connections, cancels every live one and waits for
// them to leave, up to timeout. It reports whether all of them left.
func (h *Hub) Shutdown(timeout time.Duration) bool {
	h.mu.Lock()
	h.closing = true
	for _, c := range h.conns {
		c.cancel()
	}
	remaining := len(h.conns)
	h.mu.Unlock()

	h.logger.Info("stopping sessions", "players", remaining)

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if h.Len() == 0 {
			return true
		}
		select {
		case <-deadline.C:
			h.logger.Warn("shutdown timed out", "players", h.Len())
			return false
		case <-h.left:
		}
	}
}
