// Package pool provides a fixed-capacity recycling pool for entities that
// are spawned and retired every few frames.
package pool

// Recyclable is implemented by entities that live in a Pool.
type Recyclable interface {
	// Alive reports whether the entity is in use.
	Alive() bool
	// Spawn marks the entity alive and places it.
	Spawn(x, y, speed float64)
	// Draw advances and draws the entity. Returns true once it has left
	// the visible surface.
	Draw() (offscreen bool)
	// Clear erases the entity and marks it dead.
	Clear()
}

// Pool holds a fixed set of entities created up front. Live entities
// always occupy a contiguous run starting at index 0; dead ones sit behind
// them. Nothing is allocated after New.
type Pool[T Recyclable] struct {
	items []T
}

// New fills a pool with capacity entities built by factory, all dead.
func New[T Recyclable](capacity int, factory func() T) *Pool[T] {
	if capacity < 1 {
		panic("pool: capacity must be positive")
	}
	items := make([]T, capacity)
	for i := range items {
		items[i] = factory()
	}
	return &Pool[T]{items: items}
}

// Acquire spawns the entity at the tail and moves it to the head.
// When the tail entity is alive the pool is full and the request is
// dropped. Returns whether an entity was spawned.
func (p *Pool[T]) Acquire(x, y, speed float64) bool {
	last := len(p.items) - 1
	if p.items[last].Alive() {
		return false
	}
	p.items[last].Spawn(x, y, speed)
	p.toHead(last)
	return true
}

// AcquireTwo spawns two entities only if the last two slots are both
// dead; otherwise neither request is honoured.
func (p *Pool[T]) AcquireTwo(x1, y1, speed1, x2, y2, speed2 float64) bool {
	n := len(p.items)
	if n < 2 || p.items[n-1].Alive() || p.items[n-2].Alive() {
		return false
	}
	p.Acquire(x1, y1, speed1)
	p.Acquire(x2, y2, speed2)
	return true
}

// Animate draws every live entity. Entities reporting that they left the
// surface are cleared and moved to the tail. The walk stops at the first
// dead entity.
func (p *Pool[T]) Animate() {
	i := 0
	for steps := 0; steps < len(p.items) && i < len(p.items); steps++ {
		e := p.items[i]
		if !e.Alive() {
			return
		}
		if e.Draw() {
			e.Clear()
			// The next entity slides into slot i, so i stays put.
			p.toTail(i)
			continue
		}
		i++
	}
}

// Live returns the number of live entities.
func (p *Pool[T]) Live() int {
	n := 0
	for _, e := range p.items {
		if !e.Alive() {
			break
		}
		n++
	}
	return n
}

// Cap returns the pool capacity.
func (p *Pool[T]) Cap() int {
	return len(p.items)
}

// At returns the entity in slot i.
func (p *Pool[T]) At(i int) T {
	return p.items[i]
}

// toHead rotates the entity at i to index 0, shifting the ones before it
// back by one.
func (p *Pool[T]) toHead(i int) {
	e := p.items[i]
	copy(p.items[1:i+1], p.items[:i])
	p.items[0] = e
}

// toTail rotates the entity at i to the last index, shifting the ones
// after it forward by one.
func (p *Pool[T]) toTail(i int) {
	e := p.items[i]
	copy(p.items[i:], p.items[i+1:])
	p.items[len(p.items)-1] = e
}
