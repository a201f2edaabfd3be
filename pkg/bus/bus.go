// Package bus provides the bounded in-process stream that connects channel
// adapters to the dispatcher, and the dispatcher to observers. One primary
// consumer drains the stream; any number of named taps receive copies.
package bus

import (
	"context"
	"sync"
)

// Tap is a named observer on a stream. Taps are independent of the primary
// consumer and of each other (fan-out).
type Tap[M any] struct {
	Name string
	ch   chan M // receives copies of published messages
}

// Bus is a bounded single-stream message bus. Publishing never blocks:
// when the buffer is full the oldest message is dropped to make room, and
// Publish reports the drop so the caller can account for it.
type Bus[M any] struct {
	stream chan M

	mu        sync.RWMutex
	taps      []*Tap[M]
	closed    bool
	closeOnce sync.Once
}

// New creates a bus buffering up to size messages. A non-positive size
// falls back to a buffer of 100.
func New[M any](size int) *Bus[M] {
	if size <= 0 {
		size = 100
	}
	return &Bus[M]{stream: make(chan M, size)}
}

// Subscribe creates a named tap that receives copies of all published
// messages. The tap's channel is buffered; slow taps drop.
func (b *Bus[M]) Subscribe(name string) <-chan M {
	b.mu.Lock()
	defer b.mu.Unlock()
	tap := &Tap[M]{Name: name, ch: make(chan M, 64)}
	b.taps = append(b.taps, tap)
	return tap.ch
}

func (b *Bus[M]) fanOut(msg M) {
	for _, tap := range b.taps {
		select {
		case tap.ch <- msg:
		default: // non-blocking — drop if the tap is slow
		}
	}
}

// Publish puts msg on the stream. It returns false when the bus is closed
// or when an older message had to be dropped to make room.
func (b *Bus[M]) Publish(msg M) bool {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return false
	}
	b.fanOut(msg)
	b.mu.RUnlock()

	select {
	case b.stream <- msg:
		return true
	default:
	}
	// Buffer full — drop oldest and retry.
	select {
	case <-b.stream:
	default:
	}
	select {
	case b.stream <- msg:
	default:
	}
	return false
}

// Consume returns the next message, blocking until one is published, the
// bus is closed and drained, or ctx is done. The second return is false
// when no message was received.
func (b *Bus[M]) Consume(ctx context.Context) (M, bool) {
	var zero M
	select {
	case msg, ok := <-b.stream:
		if !ok {
			return zero, false
		}
		return msg, true
	case <-ctx.Done():
		return zero, false
	}
}

// Close shuts the bus down. Publishing after Close is a no-op; the primary
// consumer drains whatever is buffered and tap channels are closed.
func (b *Bus[M]) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		for _, tap := range b.taps {
			close(tap.ch)
		}
		b.mu.Unlock()
		close(b.stream)
	})
}
