// v2
// hub.go

package telemetry

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/pratikpanchal22/multi-source-energy-meter/internal/metrics"
)

// Hub fans out events to all connected subscribers. Publishing never blocks:
// when a subscriber's bounded buffer is full, its oldest queued event is
// dropped so the slow consumer loses only its own events and the producers
// and other subscribers are unaffected.
type Hub struct {
	log    *slog.Logger
	buffer int

	mu     sync.RWMutex
	subs   map[string]*Subscriber
	closed bool
}

// Subscriber is one bounded outbound channel, owned by the hub from Subscribe
// until Unsubscribe (or hub close).
type Subscriber struct {
	id string
	ch chan Event

	mu     sync.Mutex // serializes push against close
	closed bool
	drops  uint64
}

// ID returns the subscriber's identifier.
func (s *Subscriber) ID() string { return s.id }

// Events is the receive side of the subscriber's buffer.
func (s *Subscriber) Events() <-chan Event { return s.ch }

// Dropped returns how many events this subscriber has lost to overflow.
func (s *Subscriber) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drops
}

// push enqueues without blocking, evicting the oldest queued event on
// overflow. Holding s.mu keeps per-subscriber delivery order equal to
// production order.
func (s *Subscriber) push(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	for {
		select {
		case s.ch <- ev:
			return true
		default:
		}
		select {
		case <-s.ch:
			s.drops++
			metrics.IncEventDropped()
		default:
		}
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// NewHub creates a hub whose subscribers buffer up to bufferSize events.
func NewHub(log *slog.Logger, bufferSize int) *Hub {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Hub{
		log:    log.With(slog.String("component", "hub")),
		buffer: bufferSize,
		subs:   make(map[string]*Subscriber),
	}
}

// Subscribe registers a new subscriber and returns its handle. SubscribeWith
// allows a custom buffer size for one subscriber.
func (h *Hub) Subscribe() *Subscriber {
	return h.SubscribeWith(h.buffer)
}

func (h *Hub) SubscribeWith(bufferSize int) *Subscriber {
	if bufferSize < 1 {
		bufferSize = 1
	}
	sub := &Subscriber{
		id: uuid.NewString(),
		ch: make(chan Event, bufferSize),
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.close()
		return sub
	}
	h.subs[sub.id] = sub
	n := len(h.subs)
	h.mu.Unlock()

	metrics.AddSubscribers(1)
	h.log.Info("subscriber connected", "id", sub.id, "subscribers", n)
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Safe to call
// concurrently with an in-flight Publish and safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	_, ok := h.subs[sub.id]
	delete(h.subs, sub.id)
	n := len(h.subs)
	h.mu.Unlock()

	sub.close()
	if ok {
		metrics.AddSubscribers(-1)
		h.log.Info("subscriber disconnected", "id", sub.id, "dropped", sub.Dropped(), "subscribers", n)
	}
}

// Publish pushes the event to every subscriber without blocking the caller.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	subs := make([]*Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		s.push(ev)
	}
	metrics.IncEventPublished()
}

// Close disconnects all subscribers and rejects further publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.subs = make(map[string]*Subscriber)
	h.mu.Unlock()

	for _, s := range subs {
		s.close()
		metrics.AddSubscribers(-1)
	}
	h.log.Info("hub closed", "disconnected", len(subs))
}
