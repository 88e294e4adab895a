package input

import (
	"bufio"
	"time"
)

// Hold turns press-only key reports into held actions: an action counts
// as held until the hold window passes without another press. Terminals
// report key repeats but never releases, so this is the closest thing to
// key-up they allow.
type Hold struct {
	window  time.Duration
	pressed [numActions]time.Time
}

// NewHold creates a tracker with the given hold window.
func NewHold(window time.Duration) *Hold {
	return &Hold{window: window}
}

// Press records a press of a at now.
func (h *Hold) Press(a Action, now time.Time) {
	if a >= 0 && a < numActions {
		h.pressed[a] = now
	}
}

// Apply publishes every action's held flag to s.
func (h *Hold) Apply(s *State, now time.Time) {
	for a := Action(0); a < numActions; a++ {
		last := h.pressed[a]
		s.Set(a, !last.IsZero() && now.Sub(last) < h.window)
	}
}

// Stream delivers input bytes from a terminal via a channel and maps them
// to actions.
type Stream struct {
	ch      chan byte
	hold    *Hold
	buf     []byte
	pending []byte // Incomplete escape sequence carried to the next Poll
	quit    bool
	closed  bool
}

// StartStream spawns a goroutine that reads from r and sends bytes to the
// stream. The goroutine ends when r returns an error.
func StartStream(r *bufio.Reader, window time.Duration) *Stream {
	s := &Stream{
		ch:   make(chan byte, 128),
		hold: NewHold(window),
		buf:  make([]byte, 0, 64),
	}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// Poll drains all available bytes without blocking, records the actions
// they press and publishes the held flags to state.
func (s *Stream) Poll(state *State, now time.Time) {
	s.buf = append(s.buf[:0], s.pending...)
	carried := len(s.buf)
	s.pending = s.pending[:0]

drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			s.buf = append(s.buf, b)
		default:
			break drain
		}
	}

	// An escape sequence still incomplete after a Poll that brought no
	// new bytes is taken as typed.
	final := s.closed || len(s.buf) == carried
	s.parse(now, final)
	s.hold.Apply(state, now)
}

// Quit reports whether a quit key (q, Ctrl-C or a lone Escape) has been
// read.
func (s *Stream) Quit() bool {
	return s.quit
}

// Closed reports whether the underlying reader has ended.
func (s *Stream) Closed() bool {
	return s.closed
}

// parse maps the drained bytes, handling CSI arrow key sequences.
func (s *Stream) parse(now time.Time, final bool) {
	buf := s.buf
	for i := 0; i < len(buf); i++ {
		b := buf[i]

		if b == '\x1b' {
			// CSI sequence: ESC [ <code>
			if i+2 < len(buf) && buf[i+1] == '[' {
				if a, ok := arrowAction(buf[i+2]); ok {
					s.hold.Press(a, now)
				}
				i += 2
				continue
			}
			rest := buf[i:]
			if len(rest) == 1 || (len(rest) == 2 && rest[1] == '[') {
				if !final {
					s.pending = append(s.pending, rest...)
					return
				}
				if len(rest) == 1 {
					s.quit = true
				}
				return
			}
			continue
		}

		if a, ok := ActionForRune(rune(b)); ok {
			s.hold.Press(a, now)
			continue
		}
		switch b {
		case 'q', 'Q', '\x03':
			s.quit = true
		}
	}
}

func arrowAction(code byte) (Action, bool) {
	switch code {
	case 'A':
		return Up, true
	case 'B':
		return Down, true
	case 'C':
		return Right, true
	case 'D':
		return Left, true
	}
	return 0, false
}

// ActionForRune maps character keys: space for the primary action plus
// WASD and IJKL for directions.
func ActionForRune(r rune) (Action, bool) {
	switch r {
	case ' ':
		return Primary, true
	case 'a', 'A', 'j', 'J':
		return Left, true
	case 'd', 'D', 'l', 'L':
		return Right, true
	case 'w', 'W', 'i', 'I':
		return Up, true
	case 's', 'S', 'k', 'K':
		return Down, true
	}
	return 0, false
}
