package broadcast

import "sync"

// Subscription is one reader's view of a Cell.
type Subscription[T any] struct {
	cell *Cell[T]
	ch   chan T

	mu       sync.Mutex
	queue    []T
	finished bool
	wake     chan struct{}

	done     chan struct{}
	stopOnce sync.Once
}

func newSubscription[T any](cell *Cell[T]) *Subscription[T] {
	s := &Subscription[T]{
		cell: cell,
		ch:   make(chan T),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.pump()
	return s
}

// C returns the channel on which values are delivered. It is closed once the
// subscription ends.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Unsubscribe ends the subscription immediately, discarding any values not
// yet received. It is safe to call more than once.
func (s *Subscription[T]) Unsubscribe() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.cell.remove(s)
}

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()
	s.signal()
}

// finish ends the subscription once its queue drains.
func (s *Subscription[T]) finish() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription[T]) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) pump() {
	defer close(s.ch)
	var zero T
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			finished := s.finished
			s.mu.Unlock()
			if finished {
				return
			}
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		next := s.queue[0]
		s.queue[0] = zero
		s.queue = s.queue[1:]
		s.mu.Unlock()
		select {
		case s.ch <- next:
		case <-s.done:
			return
		}
	}
}
