package loop

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tomz197/gravship/internal/asset"
	"github.com/tomz197/gravship/internal/config"
	"github.com/tomz197/gravship/internal/draw"
	"github.com/tomz197/gravship/internal/input"
)

func loadedStore(t *testing.T) *asset.Store {
	t.Helper()
	store := asset.NewStore()
	if err := store.Load(context.Background(), asset.Default()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return store
}

func testLayers() Layers {
	return Layers{
		Background: draw.NewRaster(config.SurfaceWidth, config.SurfaceHeight),
		Walls:      draw.NewRaster(config.SurfaceWidth, config.SurfaceHeight),
		Ship:       draw.NewRaster(config.SurfaceWidth, config.SurfaceHeight),
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newReadySession(t *testing.T, opts Options) *Session {
	t.Helper()
	opts.Logger = quietLogger()
	s := New(loadedStore(t), input.NewState(), opts)
	if err := s.Initialize(testLayers()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := New(loadedStore(t), input.NewState(), Options{Logger: quietLogger()})
	if s.State() != StateUninitialized {
		t.Fatalf("State() = %v, want uninitialized", s.State())
	}
	if err := s.Start(NewManualScheduler()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Start before Initialize = %v, want ErrNotReady", err)
	}

	if err := s.Initialize(testLayers()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if s.State() != StateReady {
		t.Fatalf("State() = %v, want ready", s.State())
	}

	if err := s.Start(NewManualScheduler()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.State() != StateRunning {
		t.Fatalf("State() = %v, want running", s.State())
	}
	if err := s.Start(NewManualScheduler()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("second Start = %v, want ErrNotReady", err)
	}
}

func TestSessionUnsupportedSurface(t *testing.T) {
	s := New(loadedStore(t), input.NewState(), Options{Logger: quietLogger()})
	layers := testLayers()
	layers.Background = nil
	if err := s.Initialize(layers); !errors.Is(err, ErrUnsupportedSurface) {
		t.Fatalf("Initialize = %v, want ErrUnsupportedSurface", err)
	}
	if s.State() != StateUninitialized {
		t.Fatalf("State() = %v, want uninitialized", s.State())
	}
}

func TestSessionWaitsForSprites(t *testing.T) {
	s := New(asset.NewStore(), input.NewState(), Options{Logger: quietLogger()})
	if err := s.Initialize(testLayers()); !errors.Is(err, ErrAssetsNotLoaded) {
		t.Fatalf("Initialize = %v, want ErrAssetsNotLoaded", err)
	}
}

func TestSessionShipStartPosition(t *testing.T) {
	s := newReadySession(t, Options{})
	ship := s.Ship()
	wantX := float64(config.SurfaceWidth)/2 - ship.Width + config.ShipSpawnOffset
	wantY := float64(config.SurfaceHeight)/2 - ship.Height + config.ShipSpawnOffset
	if ship.X != wantX || ship.Y != wantY {
		t.Fatalf("ship at (%v, %v), want (%v, %v)", ship.X, ship.Y, wantX, wantY)
	}
	if s.Background().X != 0 || s.Background().Y != 0 {
		t.Fatalf("background at (%v, %v), want origin", s.Background().X, s.Background().Y)
	}
}

func TestSessionAnimateReschedulesAndAdvances(t *testing.T) {
	s := newReadySession(t, Options{})
	m := NewManualScheduler()
	if err := s.Start(m); err != nil {
		t.Fatalf("Start: %v", err)
	}

	startY := s.Ship().Y
	for i := 0; i < 10; i++ {
		if !m.Step() {
			t.Fatalf("frame %d was not rescheduled", i)
		}
	}
	if s.Frame() != 10 {
		t.Fatalf("Frame() = %d, want 10", s.Frame())
	}
	if s.Background().X != -10*config.BackgroundSpeed {
		t.Fatalf("background X = %v, want %v", s.Background().X, -10*config.BackgroundSpeed)
	}
	if s.Ship().Y <= startY {
		t.Fatalf("ship did not fall: y %v -> %v", startY, s.Ship().Y)
	}
}

func TestSessionWallsInertByDefault(t *testing.T) {
	s := newReadySession(t, Options{})
	m := NewManualScheduler()
	s.Start(m)
	for i := 0; i < 50; i++ {
		m.Step()
	}
	if n := s.Ship().Walls().Live(); n != 0 {
		t.Fatalf("Live() = %d, want 0 with spawning disabled", n)
	}
}

func TestSessionSpawnsWalls(t *testing.T) {
	s := newReadySession(t, Options{WallInterval: 10})
	m := NewManualScheduler()
	s.Start(m)
	for i := 0; i < 25; i++ {
		m.Step()
	}
	// Spawned on frames 1, 11 and 21; none has scrolled off yet.
	if n := s.Ship().Walls().Live(); n != 3 {
		t.Fatalf("Live() = %d, want 3", n)
	}
	head := s.Ship().Walls().At(0)
	if head.X != float64(config.SurfaceWidth)-5*config.WallSpeed {
		t.Fatalf("newest wall at x=%v, want %v", head.X, float64(config.SurfaceWidth)-5*config.WallSpeed)
	}
}

func TestSessionPresenterErrorStopsLoop(t *testing.T) {
	boom := errors.New("boom")
	presented := 0
	s := newReadySession(t, Options{Presenter: PresenterFunc(func() error {
		presented++
		if presented == 3 {
			return boom
		}
		return nil
	})})
	m := NewManualScheduler()
	s.Start(m)

	steps := 0
	for m.Step() {
		steps++
		if steps > 100 {
			t.Fatal("loop kept running after presenter error")
		}
	}
	if !errors.Is(s.Err(), boom) {
		t.Fatalf("Err() = %v, want boom", s.Err())
	}
	// The failing frame had already rescheduled, so one more runs and
	// then declines.
	if steps != 4 || presented != 3 {
		t.Fatalf("steps = %d, presented = %d, want 4 and 3", steps, presented)
	}
}

func TestSessionStop(t *testing.T) {
	s := newReadySession(t, Options{})
	m := NewManualScheduler()
	s.Start(m)
	m.Step()
	s.Stop()
	m.Step()
	if m.Step() {
		t.Fatal("frame ran after Stop")
	}
	if s.Err() != nil {
		t.Fatalf("Err() = %v, want nil", s.Err())
	}
}
