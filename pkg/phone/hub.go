package phone

import (
	"sync"

	"github.com/monkedh/monkedh/pkg/models"
)

// Hub fans bridge status updates out to WebSocket subscribers. Sends are
// non-blocking; a subscriber that stops draining misses updates instead of
// stalling the monitor.
type Hub struct {
	mu   sync.Mutex
	subs map[chan models.PhoneStatus]struct{}
}

// NewHub creates an empty subscriber hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan models.PhoneStatus]struct{})}
}

// Subscribe registers a new status channel. The caller must Unsubscribe it.
func (h *Hub) Subscribe() chan models.PhoneStatus {
	ch := make(chan models.PhoneStatus, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a status channel.
func (h *Hub) Unsubscribe(ch chan models.PhoneStatus) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// Broadcast delivers a status snapshot to every subscriber with room.
func (h *Hub) Broadcast(status models.PhoneStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- status:
		default:
		}
	}
}
