package events

import (
	"context"
	"sync"
)

// MemoryBus records published events in-process. It backs single-process
// runs without a broker and doubles as the test spy.
type MemoryBus struct {
	mu        sync.Mutex
	published []Event

	// FailNext makes the next publish fail, for exercising best-effort
	// paths.
	FailNext error
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

func (b *MemoryBus) Publish(_ context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailNext != nil {
		err := b.FailNext
		b.FailNext = nil
		return err
	}
	b.published = append(b.published, event)
	return nil
}

func (b *MemoryBus) Close() {}

// Published returns a copy of everything published, in order.
func (b *MemoryBus) Published() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event{}, b.published...)
}
