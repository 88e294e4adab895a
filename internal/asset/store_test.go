package asset

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io/fs"
	"testing"
	"testing/fstest"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func testFS(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		BackgroundFile: {Data: encodePNG(t, 32, 18)},
		ShipFile:       {Data: encodePNG(t, 4, 3)},
		TopWallFile:    {Data: encodePNG(t, 5, 10)},
		BottomWallFile: {Data: encodePNG(t, 6, 11)},
	}
}

func TestLoadFiresCallbacksOnce(t *testing.T) {
	s := NewStore()
	calls := 0
	s.OnAllLoaded(func() { calls++ })

	if s.Loaded() {
		t.Fatal("store loaded before Load")
	}
	if err := s.Load(context.Background(), testFS(t)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Load(context.Background(), testFS(t)); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if calls != 1 {
		t.Fatalf("callback ran %d times, want 1", calls)
	}
	if !s.Loaded() {
		t.Fatal("store not loaded after Load")
	}
}

func TestLoadSetsSprites(t *testing.T) {
	s := NewStore()
	if err := s.Load(context.Background(), testFS(t)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	tests := []struct {
		name string
		img  image.Image
		w, h int
	}{
		{"background", s.Background, 32, 18},
		{"ship", s.Ship, 4, 3},
		{"top wall", s.TopWall, 5, 10},
		{"bottom wall", s.BottomWall, 6, 11},
	}
	for _, tt := range tests {
		if tt.img == nil {
			t.Errorf("%s not loaded", tt.name)
			continue
		}
		if b := tt.img.Bounds(); b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("%s is %dx%d, want %dx%d", tt.name, b.Dx(), b.Dy(), tt.w, tt.h)
		}
	}
}

func TestOnAllLoadedAfterLoadRunsImmediately(t *testing.T) {
	s := NewStore()
	if err := s.Load(context.Background(), testFS(t)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ran := false
	s.OnAllLoaded(func() { ran = true })
	if !ran {
		t.Fatal("late callback did not run")
	}
}

func TestLoadMissingSprite(t *testing.T) {
	fsys := testFS(t)
	delete(fsys, ShipFile)

	s := NewStore()
	called := false
	s.OnAllLoaded(func() { called = true })

	err := s.Load(context.Background(), fsys)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Load error = %v, want fs.ErrNotExist", err)
	}
	if called || s.Loaded() {
		t.Fatal("store reported loaded after a failed Load")
	}
}

func TestLoadCorruptSprite(t *testing.T) {
	fsys := testFS(t)
	fsys[TopWallFile] = &fstest.MapFile{Data: []byte("not a png")}
	if err := NewStore().Load(context.Background(), fsys); err == nil {
		t.Fatal("Load accepted a corrupt sprite")
	}
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewStore().Load(ctx, testFS(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Load error = %v, want context.Canceled", err)
	}
}

func TestDefaultSprites(t *testing.T) {
	s := NewStore()
	if err := s.Load(context.Background(), Default()); err != nil {
		t.Fatalf("Load(Default()): %v", err)
	}
	if b := s.Background.Bounds(); b.Dx() != 320 || b.Dy() != 180 {
		t.Fatalf("background is %dx%d, want 320x180", b.Dx(), b.Dy())
	}
}
