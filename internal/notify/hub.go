package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Hub is an in-process Channel. Slow subscribers miss notifications rather
// than block publishers; a missed notification only delays a refresh.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Change
	next   int
	buffer int
	logger *slog.Logger
}

// NewHub creates a hub whose subscriptions buffer up to buffer changes.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{subs: make(map[int]chan Change), buffer: buffer, logger: logger}
}

// Publish delivers change to every current subscriber.
func (h *Hub) Publish(ctx context.Context, change Change) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- change:
		default:
			h.logger.WarnContext(ctx, "dropping change notification for slow subscriber",
				"subscriber", id, "kind", string(change.Kind))
		}
	}
	return nil
}

// Subscribe registers a subscriber. The returned channel is closed once ctx
// is done.
func (h *Hub) Subscribe(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, h.buffer)
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()
	return ch, nil
}
