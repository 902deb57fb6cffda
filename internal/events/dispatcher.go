package events

import (
	"context"
	"sync"
)

// Handler consumes a user event. Handlers run synchronously on the caller's
// goroutine; anything slow belongs behind a queue-backed handler.
type Handler func(ctx context.Context, ev UserEvent) error

// Dispatcher fans a user event out to in-process subscribers. It satisfies
// the notifier port, so it can sit between repositories and any mix of
// logging, mail and queue handlers.
type Dispatcher struct {
	mu   sync.RWMutex
	subs []Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers a handler for all subsequent events.
func (d *Dispatcher) Subscribe(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, h)
}

// Notify delivers the event to every subscriber. The first handler error is
// returned after all handlers have run.
func (d *Dispatcher) Notify(ctx context.Context, ev UserEvent) error {
	d.mu.RLock()
	subs := make([]Handler, len(d.subs))
	copy(subs, d.subs)
	d.mu.RUnlock()

	var first error
	for _, h := range subs {
		if err := h(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
