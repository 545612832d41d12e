package services

import (
	"sync"
	"time"
)

// EventType says what happened to an entity
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// Entity names carried by change events
const (
	EntityPlan    = "actionPlan"
	EntityTask    = "task"
	EntityComment = "comment"
)

// ChangeEvent notifies listeners that a document changed
type ChangeEvent struct {
	Type         EventType `json:"type"`
	Entity       string    `json:"entity"`
	ID           string    `json:"id"`
	ActionPlanID string    `json:"actionPlanId,omitempty"`
	TaskID       string    `json:"taskId,omitempty"`
	At           time.Time `json:"at"`
}

// EventHub fans change events out to subscribers.
// A subscriber whose buffer is full misses the event; publishers never block.
type EventHub struct {
	subscribers map[int]chan ChangeEvent
	next        int
	buffer      int
	mutex       sync.RWMutex
}

// NewEventHub creates a hub whose subscriber channels hold buffer events
func NewEventHub(buffer int) *EventHub {
	if buffer < 1 {
		buffer = 1
	}
	return &EventHub{
		subscribers: make(map[int]chan ChangeEvent),
		buffer:      buffer,
	}
}

// Subscribe registers a listener. Call the returned function to unsubscribe; it closes the channel.
func (h *EventHub) Subscribe() (<-chan ChangeEvent, func()) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	id := h.next
	h.next++
	ch := make(chan ChangeEvent, h.buffer)
	h.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mutex.Lock()
			defer h.mutex.Unlock()
			delete(h.subscribers, id)
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber with room for it. A nil hub drops the event.
func (h *EventHub) Publish(ev ChangeEvent) {
	if h == nil {
		return
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (h *EventHub) SubscriberCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.subscribers)
}
