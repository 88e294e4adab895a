package loop

import (
	"context"
	"sync"
	"time"

	"github.com/tomz197/gravship/internal/config"
)

// Scheduler runs frame callbacks. RequestFrame asks for cb to run once,
// as close to the next display refresh as the host allows. It is safe to
// call from any goroutine, including from inside a running callback.
type Scheduler interface {
	RequestFrame(cb func())
}

// frameSlot holds the callback waiting for the next frame. A newer
// request replaces an older one that has not run yet.
type frameSlot struct {
	mu      sync.Mutex
	pending func()
}

func (f *frameSlot) RequestFrame(cb func()) {
	f.mu.Lock()
	f.pending = cb
	f.mu.Unlock()
}

func (f *frameSlot) take() func() {
	f.mu.Lock()
	cb := f.pending
	f.pending = nil
	f.mu.Unlock()
	return cb
}

// TickerScheduler is the fixed-interval fallback for hosts without a
// refresh signal. Callbacks run one at a time on the goroutine calling
// Run, so frames never overlap.
type TickerScheduler struct {
	frameSlot
	interval time.Duration
}

// NewTickerScheduler creates a scheduler firing every interval, or at the
// fallback rate when interval is not positive.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = config.FallbackFrameInterval
	}
	return &TickerScheduler{interval: interval}
}

// Interval returns the time between frames.
func (t *TickerScheduler) Interval() time.Duration {
	return t.interval
}

// Run fires pending callbacks until ctx is done or a tick finds nothing
// requested, which happens once the loop stops rescheduling itself.
func (t *TickerScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cb := t.take()
			if cb == nil {
				return nil
			}
			cb()
		}
	}
}

// ManualScheduler runs pending callbacks only when Step is called. Hosts
// with their own refresh callback (such as a window toolkit's update
// hook) call Step from it.
type ManualScheduler struct {
	frameSlot
}

// NewManualScheduler creates a scheduler driven by Step.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Step runs the pending callback, if any, and reports whether one ran.
func (m *ManualScheduler) Step() bool {
	cb := m.take()
	if cb == nil {
		return false
	}
	cb()
	return true
}
