package config

import (
	"flag"
	"fmt"
	"time"
)

// Frontend names accepted by the -ui flag.
const (
	UITerminal = "term"
	UITcell    = "tcell"
	UIWindow   = "window"
)

// Settings holds the runtime options shared by the commands.
// Flags take precedence over environment variables.
type Settings struct {
	UI           string
	FrameRate    int
	WallInterval int
	Debug        bool
	LogPath      string
}

// BindFlags registers the settings on fs, seeding defaults from the
// GRAVSHIP_* environment variables.
func (s *Settings) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&s.UI, "ui", GetEnv("GRAVSHIP_UI", UITerminal), "frontend: term, tcell or window")
	fs.IntVar(&s.FrameRate, "fps", GetEnvInt("GRAVSHIP_FPS", TerminalFrameRate), "frame rate for timer-driven frontends")
	fs.IntVar(&s.WallInterval, "walls", GetEnvInt("GRAVSHIP_WALLS", WallInterval), "frames between wall spawns (0 keeps walls inert)")
	fs.BoolVar(&s.Debug, "debug", GetEnv("GRAVSHIP_DEBUG", "") != "", "write logs to -log")
	fs.StringVar(&s.LogPath, "log", GetEnv("GRAVSHIP_LOG", "logs/gravship.log"), "log file used with -debug")
}

// Validate reports the first invalid option.
func (s *Settings) Validate() error {
	switch s.UI {
	case UITerminal, UITcell, UIWindow:
	default:
		return fmt.Errorf("unknown ui %q", s.UI)
	}
	if s.FrameRate <= 0 {
		return fmt.Errorf("fps must be positive, got %d", s.FrameRate)
	}
	if s.WallInterval < 0 {
		return fmt.Errorf("walls must not be negative, got %d", s.WallInterval)
	}
	return nil
}

// FrameInterval converts the frame rate into a scheduler interval,
// falling back to FallbackFrameInterval when no rate is set.
func (s *Settings) FrameInterval() time.Duration {
	if s.FrameRate <= 0 {
		return FallbackFrameInterval
	}
	return time.Second / time.Duration(s.FrameRate)
}
