package service

import (
	"sort"
	"sync"

	"nauczsie/internal/models"
)

// AuthListener receives session transitions
type AuthListener func(models.AuthStateChange)

// authBroadcaster fans out AuthStateChange events to any number of listeners.
// Delivery is synchronous and in subscription order.
type authBroadcaster struct {
	mu        sync.Mutex
	listeners map[int]AuthListener
	nextID    int
}

func newAuthBroadcaster() *authBroadcaster {
	return &authBroadcaster{listeners: make(map[int]AuthListener)}
}

func (b *authBroadcaster) subscribe(fn AuthListener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

func (b *authBroadcaster) publish(change models.AuthStateChange) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]AuthListener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.listeners[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}
