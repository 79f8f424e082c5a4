package pubsub

import (
	"errors"
	"sync"
)

var (
	ErrQueueFull   = errors.New("subscriber queue full")
	ErrQueueClosed = errors.New("subscriber queue closed")
)

// QueueSubscriber buffers frames in a bounded channel drained by the owning
// transport's write pump. A full buffer means the consumer is not keeping up;
// Deliver fails instead of blocking and the publisher evicts the handle.
type QueueSubscriber struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

func NewQueueSubscriber(capacity int) *QueueSubscriber {
	if capacity <= 0 {
		capacity = 1
	}
	return &QueueSubscriber{ch: make(chan []byte, capacity)}
}

// Deliver enqueues a frame without blocking. Deliver and Close may race when
// the tick fan-out and an order-event broadcast overlap, hence the lock
// rather than a bare closed flag.
func (q *QueueSubscriber) Deliver(frame []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- frame:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the queue from accepting new frames and releases the drain
// channel. Safe to call more than once.
func (q *QueueSubscriber) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

// Frames is the drain side of the queue; it is closed by Close.
func (q *QueueSubscriber) Frames() <-chan []byte {
	return q.ch
}
