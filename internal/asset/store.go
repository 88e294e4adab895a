// Package asset loads and holds the decoded sprites the game draws.
package asset

import (
	"context"
	"embed"
	"fmt"
	"image"
	_ "image/png" // Register PNG format
	"io/fs"
	"sync"

	"golang.org/x/sync/errgroup"
)

//go:embed images/*.png
var embedded embed.FS

// Default returns the sprites bundled with the binary.
func Default() fs.FS {
	sub, err := fs.Sub(embedded, "images")
	if err != nil {
		panic(err)
	}
	return sub
}

// Sprite file names, relative to the loaded file system.
const (
	BackgroundFile = "bg.png"
	ShipFile       = "ship.png"
	TopWallFile    = "wall_top.png"
	BottomWallFile = "wall_bot.png"
)

// Store holds one decoded copy of every sprite. Entities read sprite
// dimensions when they spawn, so nothing may be built before the store
// reports that everything has loaded.
type Store struct {
	Background image.Image
	Ship       image.Image
	TopWall    image.Image
	BottomWall image.Image

	mu        sync.Mutex
	loaded    bool
	callbacks []func()
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// OnAllLoaded registers fn to run once every sprite has decoded. If the
// store is already loaded fn runs immediately.
func (s *Store) OnAllLoaded(fn func()) {
	s.mu.Lock()
	if !s.loaded {
		s.callbacks = append(s.callbacks, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// Loaded reports whether every sprite has decoded.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Load decodes all sprites from fsys in parallel. On success the
// readiness callbacks fire exactly once, on the calling goroutine.
// Loading an already loaded store is a no-op.
func (s *Store) Load(ctx context.Context, fsys fs.FS) error {
	if s.Loaded() {
		return nil
	}

	targets := []struct {
		name string
		dst  *image.Image
	}{
		{BackgroundFile, &s.Background},
		{ShipFile, &s.Ship},
		{TopWallFile, &s.TopWall},
		{BottomWallFile, &s.BottomWall},
	}
	decoded := make([]image.Image, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			img, err := decode(ctx, fsys, t.name)
			if err != nil {
				return err
			}
			decoded[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return nil
	}
	for i, t := range targets {
		*t.dst = decoded[i]
	}
	s.loaded = true
	callbacks := s.callbacks
	s.callbacks = nil
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return nil
}

func decode(ctx context.Context, fsys fs.FS, name string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return img, nil
}
