// Package broadcast provides a single-writer, many-reader value cell that
// replays its most recent value to every new subscriber.
package broadcast

import "sync"

// Cell holds the latest published value of type T and fans every published
// value out to its subscribers. Publish never blocks on a slow subscriber.
// Each subscriber observes values in publication order.
type Cell[T any] struct {
	mu     sync.Mutex
	value  T
	set    bool
	closed bool
	subs   map[*Subscription[T]]struct{}
}

// NewCell returns a Cell with no value. Subscribers of a Cell that has never
// been published to receive nothing until the first Publish.
func NewCell[T any]() *Cell[T] {
	return &Cell[T]{
		subs: map[*Subscription[T]]struct{}{},
	}
}

// NewCellWithValue returns a Cell whose current value is initial.
func NewCellWithValue[T any](initial T) *Cell[T] {
	c := NewCell[T]()
	c.value = initial
	c.set = true
	return c
}

// Publish makes v the current value and delivers it to every subscriber.
// Publishing to a closed Cell is a no-op.
func (c *Cell[T]) Publish(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.value = v
	c.set = true
	for sub := range c.subs {
		sub.push(v)
	}
}

// Value returns the current value and whether one has ever been published.
func (c *Cell[T]) Value() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.set
}

// Subscribe returns a Subscription that first receives the current value, if
// there is one, followed by every subsequently published value.
func (c *Cell[T]) Subscribe() *Subscription[T] {
	sub := newSubscription(c)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		sub.push(c.value)
	}
	if c.closed {
		sub.finish()
		return sub
	}
	c.subs[sub] = struct{}{}
	return sub
}

// Close ends every subscription. Values already queued for a subscriber are
// still delivered before its channel is closed.
func (c *Cell[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for sub := range c.subs {
		sub.finish()
		delete(c.subs, sub)
	}
}

func (c *Cell[T]) remove(sub *Subscription[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, sub)
}
