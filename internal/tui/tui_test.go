package tui

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"github.com/tomz197/gravship/internal/asset"
	"github.com/tomz197/gravship/internal/config"
	"github.com/tomz197/gravship/internal/draw"
	"github.com/tomz197/gravship/internal/input"
	"github.com/tomz197/gravship/internal/loop"
)

func newTestTUI(t *testing.T) (*TUI, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 24)

	store := asset.NewStore()
	if err := store.Load(context.Background(), asset.Default()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	tui, err := New(screen, store, Options{
		FrameInterval: time.Millisecond,
		Logger:        log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tui, screen
}

func TestTUIPaintsHalfBlocks(t *testing.T) {
	tui, screen := newTestTUI(t)
	m := loop.NewManualScheduler()
	if err := tui.Session().Start(m); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Step()

	// 80x24 fits a 320x180 frame as 80x22 cells, one row down.
	if tui.offsetCol != 0 || tui.offsetRow != 1 {
		t.Fatalf("offset = (%d, %d), want (0, 1)", tui.offsetCol, tui.offsetRow)
	}
	for _, pos := range [][2]int{{0, 1}, {79, 22}} {
		r, _, _, _ := screen.GetContent(pos[0], pos[1])
		if r != draw.BlockUpperHalf {
			t.Errorf("cell %v = %q, want half block", pos, r)
		}
	}
	if r, _, _, _ := screen.GetContent(0, 0); r == draw.BlockUpperHalf {
		t.Error("row above the canvas was painted")
	}
}

func TestTUIKeyHold(t *testing.T) {
	tui, _ := newTestTUI(t)
	base := time.Now()
	tui.now = func() time.Time { return base }

	tui.events <- tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone)
	if err := tui.present(); err != nil {
		t.Fatalf("present: %v", err)
	}
	if !tui.input.Pressed(input.Primary) {
		t.Fatal("space did not press the primary action")
	}

	tui.now = func() time.Time { return base.Add(config.KeyHoldDuration + time.Millisecond) }
	tui.present()
	if tui.input.Pressed(input.Primary) {
		t.Fatal("primary action still held after the hold window")
	}
}

func TestTUIKeyMapping(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want input.Action
	}{
		{"up", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), input.Up},
		{"down", tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), input.Down},
		{"left", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), input.Left},
		{"right", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), input.Right},
		{"w", tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone), input.Up},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), input.Primary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tui, _ := newTestTUI(t)
			now := time.Now()
			if tui.handleKey(tt.ev, now) {
				t.Fatal("key reported as quit")
			}
			tui.hold.Apply(tui.input, now)
			if !tui.input.Pressed(tt.want) {
				t.Fatalf("%s not pressed", tt.want)
			}
		})
	}
}

func TestTUIQuitKeys(t *testing.T) {
	keys := []*tcell.EventKey{
		tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone),
		tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone),
		tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModNone),
	}
	tui, _ := newTestTUI(t)
	for _, ev := range keys {
		if !tui.handleKey(ev, time.Now()) {
			t.Errorf("key %v not treated as quit", ev.Name())
		}
	}
}

func TestTUIRunStopsOnQuit(t *testing.T) {
	tui, screen := newTestTUI(t)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	done := make(chan error, 1)
	go func() { done <- tui.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on q")
	}
}
