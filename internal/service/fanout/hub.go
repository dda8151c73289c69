package fanout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/logger"
)

// DefaultBuffer is the per-subscriber buffer size.
const DefaultBuffer = 8

var (
	// ErrSubscriberExists is returned when Subscribe is called with a duplicate id.
	ErrSubscriberExists = errors.New("subscriber id already exists")
	// ErrHubClosed is returned when subscribing after the source closed.
	ErrHubClosed = errors.New("hub is closed")
)

// Stats is a snapshot of the hub counters.
type Stats struct {
	// Subscribers holds per-subscriber counters.
	Subscribers map[string]SubscriberStats
	// Published is the number of events read from the source.
	Published uint64
}

// SubscriberStats tracks one subscriber.
type SubscriberStats struct {
	// Sent is the number of events queued for the subscriber.
	Sent uint64
	// Dropped is the number of old events discarded to make room.
	Dropped uint64
}

type subscriber struct {
	ch      chan alert.RenderEvent
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Hub copies render events to subscribers.
type Hub struct {
	subscribers map[string]*subscriber
	published   atomic.Uint64
	mu          sync.RWMutex
	closed      bool
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		subscribers: make(map[string]*subscriber),
	}
}

// Subscribe registers id with a buffer of the given size and returns its channel.
func (h *Hub) Subscribe(id string, buffer int) (<-chan alert.RenderEvent, error) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	if _, exists := h.subscribers[id]; exists {
		return nil, ErrSubscriberExists
	}

	s := &subscriber{ch: make(chan alert.RenderEvent, buffer)}
	h.subscribers[id] = s

	return s.ch, nil
}

// Publish copies event to every subscriber without blocking.
func (h *Hub) Publish(event alert.RenderEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	h.published.Add(1)

	for _, s := range h.subscribers {
		s.offer(event)
	}
}

// Run publishes events until the source is closed or ctx is done, then closes every subscriber.
func (h *Hub) Run(ctx context.Context, events <-chan alert.RenderEvent) error {
	ctx = logger.WithName(ctx, "fanout")

	defer h.close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				logger.DebugKV(ctx, "Render source closed", "published", h.published.Load())
				return nil
			}

			h.Publish(event)
		}
	}
}

// Stats returns the current counters.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := Stats{
		Published:   h.published.Load(),
		Subscribers: make(map[string]SubscriberStats, len(h.subscribers)),
	}

	for id, s := range h.subscribers {
		stats.Subscribers[id] = SubscriberStats{
			Sent:    s.sent.Load(),
			Dropped: s.dropped.Load(),
		}
	}

	return stats
}

func (h *Hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true

	for _, s := range h.subscribers {
		close(s.ch)
	}
}

// offer queues event, discarding the oldest queued event when the buffer is full.
func (s *subscriber) offer(event alert.RenderEvent) {
	for {
		select {
		case s.ch <- event:
			s.sent.Add(1)
			return
		default:
		}

		select {
		case <-s.ch:
			s.dropped.Add(1)
		default:
			// The reader drained it in between.
		}
	}
}
