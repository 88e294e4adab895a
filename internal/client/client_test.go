package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/gravship/internal/asset"
	"github.com/tomz197/gravship/internal/loop"
)

// syncBuffer is a bytes.Buffer safe for the scheduler goroutine and the
// test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func loadedStore(t *testing.T) *asset.Store {
	t.Helper()
	store := asset.NewStore()
	if err := store.Load(context.Background(), asset.Default()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return store
}

func fixedSize(w, h int) func() (int, int, error) {
	return func() (int, int, error) { return w, h, nil }
}

func testOptions() Options {
	return Options{
		TermSizeFunc:  fixedSize(80, 24),
		FrameInterval: time.Millisecond,
		Logger:        log.New(io.Discard),
	}
}

func TestClientQuitsOnQ(t *testing.T) {
	var out syncBuffer
	c, err := New(loadedStore(t), bufio.NewReader(strings.NewReader("q")), &out, testOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if c.Session().Frame() < 1 {
		t.Fatal("no frame ran")
	}
	got := out.String()
	if !strings.HasPrefix(got, "\033[?1049h") {
		t.Errorf("output does not enter the alternate screen: %q", got[:min(len(got), 20)])
	}
	if !strings.HasSuffix(got, "\033[?25h\033[?1049l") {
		t.Errorf("output does not restore the terminal")
	}
}

func TestClientRendersUntilInputCloses(t *testing.T) {
	pr, pw := io.Pipe()
	var out syncBuffer
	c, err := New(loadedStore(t), bufio.NewReader(pr), &out, testOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for !strings.ContainsRune(out.String(), '▀') {
		if time.Now().After(deadline) {
			t.Fatal("no half-block frame rendered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	pw.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after input closed")
	}
	if !strings.Contains(out.String(), "\033[38;2;") {
		t.Error("frame has no 24-bit colours")
	}
}

func TestClientCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	c, err := New(loadedStore(t), bufio.NewReader(pr), io.Discard, testOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run() = %v, want nil on cancel", err)
	}
}

func TestClientFollowsResize(t *testing.T) {
	width, height := 80, 24
	opts := testOptions()
	opts.TermSizeFunc = func() (int, int, error) { return width, height, nil }

	pr, pw := io.Pipe()
	defer pw.Close()
	c, err := New(loadedStore(t), bufio.NewReader(pr), io.Discard, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.canvas.TerminalWidth() != 80 || c.canvas.TerminalHeight() != 22 {
		t.Fatalf("canvas %dx%d, want 80x22", c.canvas.TerminalWidth(), c.canvas.TerminalHeight())
	}

	width, height = 160, 100
	c.updateScreen()
	if c.canvas.TerminalWidth() != 160 || c.canvas.TerminalHeight() != 45 {
		t.Fatalf("canvas %dx%d after resize, want 160x45", c.canvas.TerminalWidth(), c.canvas.TerminalHeight())
	}
	if c.chunkWriter.Buffered() == 0 {
		t.Error("resize did not clear the screen")
	}
}

func TestClientNeedsLoadedSprites(t *testing.T) {
	_, err := New(asset.NewStore(), bufio.NewReader(strings.NewReader("")), io.Discard, testOptions())
	if !errors.Is(err, loop.ErrAssetsNotLoaded) {
		t.Fatalf("New() error = %v, want ErrAssetsNotLoaded", err)
	}
}
