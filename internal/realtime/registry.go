package realtime

import (
	"sync"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// Subscriber is a live connection that can receive order updates.
type Subscriber interface {
	Open() bool
	// Deliver queues msg without blocking and reports whether it was queued.
	Deliver(msg OrderUpdateMessage) bool
}

// Registry maps order ids to their watchers and keeps the reverse index
// needed to drop a connection from everything it watched.
type Registry struct {
	mu       sync.RWMutex
	watchers map[uuid.UUID]map[Subscriber]struct{}
	watching map[Subscriber]map[uuid.UUID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		watchers: make(map[uuid.UUID]map[Subscriber]struct{}),
		watching: make(map[Subscriber]map[uuid.UUID]struct{}),
	}
}

// Subscribe is idempotent.
func (r *Registry) Subscribe(orderID uuid.UUID, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.watchers[orderID]
	if !ok {
		set = make(map[Subscriber]struct{})
		r.watchers[orderID] = set
	}
	set[sub] = struct{}{}

	ids, ok := r.watching[sub]
	if !ok {
		ids = make(map[uuid.UUID]struct{})
		r.watching[sub] = ids
	}
	ids[orderID] = struct{}{}
}

func (r *Registry) Unsubscribe(orderID uuid.UUID, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(orderID, sub)
}

// Disconnect removes sub from every order id it watched.
func (r *Registry) Disconnect(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for orderID := range r.watching[sub] {
		r.remove(orderID, sub)
	}
	delete(r.watching, sub)
}

// remove must be called with mu held.
func (r *Registry) remove(orderID uuid.UUID, sub Subscriber) {
	if set, ok := r.watchers[orderID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(r.watchers, orderID)
		}
	}
	if ids, ok := r.watching[sub]; ok {
		delete(ids, orderID)
		if len(ids) == 0 {
			delete(r.watching, sub)
		}
	}
}

// Broadcast hands msg to every open watcher of orderID and returns how many
// accepted it. Closed watchers are skipped.
func (r *Registry) Broadcast(orderID uuid.UUID, msg OrderUpdateMessage) int {
	r.mu.RLock()
	subs := make([]Subscriber, 0, len(r.watchers[orderID]))
	for sub := range r.watchers[orderID] {
		subs = append(subs, sub)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if !sub.Open() {
			continue
		}
		if !sub.Deliver(msg) {
			log.Warn().Stringer("order_id", orderID).Msg("realtime: subscriber queue full, update dropped")
			continue
		}
		delivered++
	}
	return delivered
}

// Watchers returns the number of subscribers of orderID.
func (r *Registry) Watchers(orderID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.watchers[orderID])
}

// Len returns the number of order ids with at least one subscriber.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.watchers)
}

// Watching returns the number of order ids sub is subscribed to.
func (r *Registry) Watching(sub Subscriber) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.watching[sub])
}
