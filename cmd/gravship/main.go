package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/tomz197/gravship/internal/asset"
	"github.com/tomz197/gravship/internal/client"
	"github.com/tomz197/gravship/internal/config"
	"github.com/tomz197/gravship/internal/tui"
	"github.com/tomz197/gravship/internal/window"
)

func main() {
	os.Exit(run())
}

func run() int {
	var settings config.Settings
	settings.BindFlags(flag.CommandLine)
	flag.Parse()
	if err := settings.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		return 2
	}

	logger, closeLog, err := newLogger(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log: %v\n", err)
		return 1
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := play(ctx, settings, logger); err != nil {
		logger.Error("game error", "err", err)
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		return 1
	}
	return 0
}

// newLogger discards logs unless debugging, since the terminal is the
// game surface.
func newLogger(settings config.Settings) (*log.Logger, func(), error) {
	if !settings.Debug {
		return log.New(io.Discard), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(settings.LogPath), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(settings.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := log.NewWithOptions(f, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
		Prefix:          "gravship",
	})
	return logger, func() { f.Close() }, nil
}

func play(ctx context.Context, settings config.Settings, logger *log.Logger) error {
	sprites := asset.NewStore()
	sprites.OnAllLoaded(func() { logger.Debug("sprites loaded") })
	if err := sprites.Load(ctx, asset.Default()); err != nil {
		return fmt.Errorf("load sprites: %w", err)
	}
	logger.Debug("starting", "ui", settings.UI, "fps", settings.FrameRate, "walls", settings.WallInterval)

	switch settings.UI {
	case config.UIWindow:
		return window.Run(sprites, window.Options{
			WallInterval: settings.WallInterval,
			Logger:       logger,
		})
	case config.UITcell:
		return playTcell(ctx, sprites, settings, logger)
	default:
		return playTerminal(ctx, sprites, settings, logger)
	}
}

func playTerminal(ctx context.Context, sprites *asset.Store, settings config.Settings, logger *log.Logger) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	c, err := client.New(sprites, bufio.NewReader(os.Stdin), os.Stdout, client.Options{
		FrameInterval: settings.FrameInterval(),
		WallInterval:  settings.WallInterval,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	return c.Run(ctx)
}

func playTcell(ctx context.Context, sprites *asset.Store, settings config.Settings, logger *log.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	t, err := tui.New(screen, sprites, tui.Options{
		FrameInterval: settings.FrameInterval(),
		WallInterval:  settings.WallInterval,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	return t.Run(ctx)
}
