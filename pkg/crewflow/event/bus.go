package event

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// Bus is an in-memory pub/sub fan-out for step events.
//
// Publish never blocks: when a subscriber's buffer is full the event is
// dropped for that subscriber and OnDrop (if set) is invoked. A UI feed
// that falls behind loses intermediate steps, not the engine's progress.
type Bus struct {
	buffer int
	onDrop func(evt StepEvent, subscriberID string)

	mu     sync.RWMutex
	subs   map[string]chan StepEvent
	nextID atomic.Int64
	closed bool
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBuffer sets the per-subscriber channel buffer. Default: 256.
func WithBuffer(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithOnDrop sets a callback invoked when an event is dropped for a
// subscriber whose buffer is full.
func WithOnDrop(fn func(evt StepEvent, subscriberID string)) BusOption {
	return func(b *Bus) {
		b.onDrop = fn
	}
}

// NewBus creates a new event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		buffer: 256,
		subs:   make(map[string]chan StepEvent),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers an event to every subscriber.
func (b *Bus) Publish(evt StepEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for id, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			if b.onDrop != nil {
				b.onDrop(evt, id)
			}
		}
	}
}

// Subscribe registers a new subscriber and returns its channel together
// with an unsubscribe function. The channel is closed on unsubscribe and
// when the bus closes.
func (b *Bus) Subscribe() (<-chan StepEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan StepEvent, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := "sub-" + strconv.FormatInt(b.nextID.Add(1), 10)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
