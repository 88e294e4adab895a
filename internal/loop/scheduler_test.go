package loop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomz197/gravship/internal/config"
)

func TestManualSchedulerStep(t *testing.T) {
	m := NewManualScheduler()
	if m.Step() {
		t.Fatal("Step ran a callback with nothing requested")
	}

	calls := 0
	m.RequestFrame(func() { calls++ })
	if !m.Step() {
		t.Fatal("Step did not run the requested callback")
	}
	if m.Step() {
		t.Fatal("callback ran twice for one request")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestManualSchedulerKeepsLatestRequest(t *testing.T) {
	m := NewManualScheduler()
	var got string
	m.RequestFrame(func() { got = "first" })
	m.RequestFrame(func() { got = "second" })
	m.Step()
	if got != "second" {
		t.Fatalf("ran %q, want second", got)
	}
}

func TestTickerSchedulerFallbackInterval(t *testing.T) {
	if got := NewTickerScheduler(0).Interval(); got != config.FallbackFrameInterval {
		t.Fatalf("Interval() = %v, want %v", got, config.FallbackFrameInterval)
	}
	if got := NewTickerScheduler(time.Second).Interval(); got != time.Second {
		t.Fatalf("Interval() = %v, want 1s", got)
	}
}

func TestTickerSchedulerStopsWhenIdle(t *testing.T) {
	ts := NewTickerScheduler(time.Millisecond)
	frames := 0
	var tick func()
	tick = func() {
		frames++
		if frames < 5 {
			ts.RequestFrame(tick)
		}
	}
	ts.RequestFrame(tick)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ts.Run(ctx); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if frames != 5 {
		t.Fatalf("frames = %d, want 5", frames)
	}
}

func TestTickerSchedulerCancel(t *testing.T) {
	ts := NewTickerScheduler(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := 0
	var tick func()
	tick = func() {
		frames++
		ts.RequestFrame(tick)
		if frames == 3 {
			cancel()
		}
	}
	ts.RequestFrame(tick)

	if err := ts.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
}
