package telemetry

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType identifies the kind of telemetry event.
type EventType string

const (
	EventSessionStarted   EventType = "session.started"
	EventSessionStopped   EventType = "session.stopped"
	EventEngineExited     EventType = "engine.exited"
	EventSurfaceAttached  EventType = "surface.attached"
	EventSurfaceDetached  EventType = "surface.detached"
	EventRebuildCompleted EventType = "rebuild.completed"
	EventRebuildCoalesced EventType = "rebuild.coalesced"
	EventMessagePosted    EventType = "message.posted"
	EventMessageDelivered EventType = "message.delivered"
	EventInputDropped     EventType = "input.dropped"
	EventMenuAction       EventType = "menu.action"
	EventPrefsChanged     EventType = "prefs.changed"
)

// Event describes session telemetry that spectators, the bus mirror and
// the journal consume.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"sessionId,omitempty"`
	SurfaceID string         `json:"surfaceId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

const subscriberBuffer = 64

// Hub fan-outs telemetry events to any number of subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	closed      bool
}

// NewHub constructs a telemetry hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]chan Event)}
}

// Publish notifies all subscribers of an event. Non-blocking; drops if
// a subscriber's buffer is full. A nil hub discards the event.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			eventsDropped.Inc()
		}
	}
}

// Subscribe returns a channel that will receive future events and a cleanup func.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch, id := h.SubscribeWithID()
	return ch, func() { h.Unsubscribe(id) }
}

// SubscribeWithID subscribes and returns an id usable with Unsubscribe.
func (h *Hub) SubscribeWithID() (<-chan Event, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		empty := make(chan Event)
		close(empty)
		return empty, ""
	}
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	ch := make(chan Event, subscriberBuffer)
	h.subscribers[id] = ch
	return ch, id
}

// Unsubscribe closes and removes the subscriber. Unknown ids are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close unsubscribes all listeners and prevents future publications.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}
