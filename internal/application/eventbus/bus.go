// Package eventbus implements the asset manager's deferred notification
// queue: producers on any goroutine call Publish, and a single consumer
// (normally the main loop) periodically calls Pump to deliver everything
// queued so far to registered handlers.
package eventbus

import (
	"sync"

	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

// Event is the marker interface for anything the bus can carry. The two
// concrete types are Loaded and FailedLoad.
type Event interface{}

// Loaded is published once a requested asset has been built successfully.
type Loaded struct {
	ID  *asset.ID
	Ref *asset.Ref
}

// FailedLoad is published once a requested asset's load has failed, either
// because its own loader failed or because a dependency did.
type FailedLoad struct {
	ID *asset.ID
}

// Bus is a mutex-guarded FIFO queue plus a list of subscribers. It does
// not deliver anything until Pump is called.
type Bus struct {
	mu       sync.Mutex
	queue    []Event
	handlers []func(Event)
}

func New() *Bus {
	return &Bus{}
}

// Subscribe registers h to receive every event delivered by future Pump
// calls, in publish order.
func (b *Bus) Subscribe(h func(Event)) {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

// Publish enqueues e. Safe to call from any goroutine, including while a
// Pump on another goroutine is draining the queue.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	b.queue = append(b.queue, e)
	b.mu.Unlock()
}

// Pump drains everything queued so far and delivers it to every subscriber,
// in publish order, on the calling goroutine. It returns the number of
// events delivered.
func (b *Bus) Pump() int {
	b.mu.Lock()
	pending := b.queue
	b.queue = nil
	handlers := make([]func(Event), len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	for _, e := range pending {
		for _, h := range handlers {
			h(e)
		}
	}
	return len(pending)
}
