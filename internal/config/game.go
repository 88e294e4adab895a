package config

import "time"

// Play surface - every layer shares these logical dimensions.
// Terminal frontends scale the composed frame to fit.
const (
	SurfaceWidth  = 320
	SurfaceHeight = 180
)

// Background
const (
	BackgroundSpeed = 1.0 // Pixels panned per frame
)

// Ship
const (
	ShipSpeed       = 3.0
	ShipGravity     = 2.0
	ShipVelocity    = 1.0  // Initial vertical velocity
	ShipImpulse     = -6.0 // Velocity set while the primary action is held
	ShipTimestep    = 0.1  // Nominal integration step, not wall-clock time
	ShipSpawnOffset = 30.0 // Added to the centred spawn point on both axes
)

// Walls
const (
	WallPoolCapacity = 30
	WallSpeed        = 1.0
	WallInterval     = 120 // Frames between wall spawns, 0 keeps walls inert
)

// Frame scheduling
const (
	FallbackFrameRate     = 180
	FallbackFrameInterval = time.Second / FallbackFrameRate
	TerminalFrameRate     = 60
	WebFrameRate          = 30
)

// Input
const (
	// KeyHoldDuration is how long a key counts as held after its last
	// byte on a terminal, which reports presses but never releases.
	KeyHoldDuration = 120 * time.Millisecond
)

// Shutdown
const (
	ShutdownTimeout = 5 * time.Second
)
