// Package ipc serves the optional debug endpoint: health, Prometheus
// metrics, the session journal, and a websocket stream that lets
// spectators watch a game live.
package ipc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/odvcencio/crawlterm/pkg/telemetry"
)

// Event is one frame sent to spectators.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	spectatorBuffer = 256
	writeTimeout    = 10 * time.Second
	pingInterval    = 20 * time.Second
	pingTimeout     = 5 * time.Second
)

// Hub fans events out to connected spectators. A spectator that falls
// a full buffer behind is dropped rather than slowing the game.
type Hub struct {
	mu         sync.RWMutex
	spectators map[*spectator]struct{}
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{spectators: make(map[*spectator]struct{})}
}

// Broadcast queues event for every spectator following its session.
func (h *Hub) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	var slow []*spectator
	h.mu.RLock()
	for s := range h.spectators {
		if !s.wants(event) {
			continue
		}
		select {
		case s.send <- event:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		if h.leave(s) {
			telemetry.RecordSpectatorDropped()
		}
	}
}

// Spectators returns the number of connected spectators.
func (h *Hub) Spectators() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.spectators)
}

// Watching returns how many spectators receive sessionID's events,
// counting those that follow every session.
func (h *Hub) Watching(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for s := range h.spectators {
		if s.session == "" || s.session == sessionID {
			n++
		}
	}
	return n
}

// join adds a spectator. An empty session follows every session.
func (h *Hub) join(conn wsConn, session string) *spectator {
	s := &spectator{
		conn:    conn,
		session: session,
		send:    make(chan Event, spectatorBuffer),
	}
	h.mu.Lock()
	h.spectators[s] = struct{}{}
	n := len(h.spectators)
	h.mu.Unlock()
	telemetry.SetSpectators(n)
	return s
}

// leave removes s and closes its queue. It reports whether s was
// still present.
func (h *Hub) leave(s *spectator) bool {
	h.mu.Lock()
	_, ok := h.spectators[s]
	if ok {
		delete(h.spectators, s)
		close(s.send)
	}
	n := len(h.spectators)
	h.mu.Unlock()
	telemetry.SetSpectators(n)
	return ok
}

type wsConn interface {
	Write(ctx context.Context, msgType websocket.MessageType, data []byte) error
	Ping(ctx context.Context) error
	Close(status websocket.StatusCode, reason string) error
}

type spectator struct {
	conn    wsConn
	session string
	send    chan Event
}

func (s *spectator) wants(ev Event) bool {
	return s.session == "" || s.session == ev.SessionID
}

// stream writes queued events, pinging while idle so proxies keep the
// connection open. It returns nil once the hub drops the spectator.
func (s *spectator) stream(ctx context.Context, ping time.Duration) error {
	ticker := time.NewTicker(ping)
	defer ticker.Stop()
	for {
		select {
		case event, ok := <-s.send:
			if !ok {
				return nil
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if err := s.write(ctx, data); err != nil {
				return err
			}
			ticker.Reset(ping)
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *spectator) write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return s.conn.Write(ctx, websocket.MessageText, data)
}
