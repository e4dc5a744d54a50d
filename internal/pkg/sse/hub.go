package sse

import (
	"sync"

	"github.com/cmlabs-hris/leave-engine/internal/domain/notification"
)

// subscriberBuffer is the per-connection backlog; deliveries beyond it are dropped.
const subscriberBuffer = 16

// Hub fans in-app deliveries out to the open streams of each user.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan notification.Delivery]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan notification.Delivery]struct{}),
	}
}

// Subscribe registers a stream for userID and returns it with its cleanup function.
func (h *Hub) Subscribe(userID string) (<-chan notification.Delivery, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan notification.Delivery, subscriberBuffer)
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan notification.Delivery]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[userID], ch)
			close(ch)
			if len(h.subscribers[userID]) == 0 {
				delete(h.subscribers, userID)
			}
		})
	}

	return ch, cleanup
}

// Publish sends d to every stream of its recipient and reports how many accepted it.
// Full streams are skipped so a slow reader never blocks the dispatcher.
func (h *Hub) Publish(d notification.Delivery) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for ch := range h.subscribers[d.RecipientID] {
		select {
		case ch <- d:
			sent++
		default:
		}
	}
	return sent
}

// SubscriberCount returns the number of active streams for a user
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
