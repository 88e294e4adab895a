// Package input tracks which game actions are held and translates raw
// key events from the frontends into them.
package input

import "sync/atomic"

// Action is a logical control the game reacts to.
type Action int

const (
	Up Action = iota
	Down
	Left
	Right
	Primary

	numActions
)

var actionNames = [numActions]string{
	Up:      "up",
	Down:    "down",
	Left:    "left",
	Right:   "right",
	Primary: "primary",
}

// String returns the action name.
func (a Action) String() string {
	if a < 0 || a >= numActions {
		return "unknown"
	}
	return actionNames[a]
}

// KeyCodes maps DOM key codes to actions.
var KeyCodes = map[int]Action{
	32: Primary, // space
	37: Left,
	38: Up,
	39: Right,
	40: Down,
}

// ActionForKeyCode returns the action bound to a DOM key code.
func ActionForKeyCode(code int) (Action, bool) {
	a, ok := KeyCodes[code]
	return a, ok
}

// State holds the pressed flag of every action. Key hooks may run on
// other goroutines than the frame loop, so each flag is atomic.
// The zero value has every action released.
type State struct {
	pressed [numActions]atomic.Bool
}

// NewState returns a State with every action released.
func NewState() *State {
	return &State{}
}

// Down marks the action as pressed.
func (s *State) Down(a Action) {
	if a >= 0 && a < numActions {
		s.pressed[a].Store(true)
	}
}

// Up marks the action as released.
func (s *State) Up(a Action) {
	if a >= 0 && a < numActions {
		s.pressed[a].Store(false)
	}
}

// Set stores the pressed flag for the action.
func (s *State) Set(a Action, pressed bool) {
	if pressed {
		s.Down(a)
		return
	}
	s.Up(a)
}

// Pressed reports whether the action is held.
func (s *State) Pressed(a Action) bool {
	if a < 0 || a >= numActions {
		return false
	}
	return s.pressed[a].Load()
}

// KeyDown handles a key press by DOM key code. It returns false for
// unmapped keys, which callers should leave to the host.
func (s *State) KeyDown(code int) bool {
	a, ok := ActionForKeyCode(code)
	if ok {
		s.Down(a)
	}
	return ok
}

// KeyUp handles a key release by DOM key code.
func (s *State) KeyUp(code int) bool {
	a, ok := ActionForKeyCode(code)
	if ok {
		s.Up(a)
	}
	return ok
}
