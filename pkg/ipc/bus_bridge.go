package ipc

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/odvcencio/crawlterm/pkg/bus"
)

// BusBridge subscribes to every session's mirrored subjects and
// rebroadcasts them to websocket spectators. Spectators therefore see
// any process publishing on the same bus, not only this one.
type BusBridge struct {
	bus    bus.MessageBus
	hub    *Hub
	prefix string
	subs   []bus.Subscription
	mu     sync.Mutex
}

// NewBusBridge creates a bridge between b and h for subjects under prefix.
func NewBusBridge(b bus.MessageBus, h *Hub, prefix string) *BusBridge {
	return &BusBridge{bus: b, hub: h, prefix: prefix}
}

// Start subscribes to the session subjects.
func (br *BusBridge) Start(ctx context.Context) error {
	for _, kind := range []string{bus.KindTelemetry, bus.KindMessages, bus.KindOutput} {
		sub, err := br.bus.Subscribe(ctx, bus.SessionSubject(br.prefix, "", kind), br.forward(kind))
		if err != nil {
			br.Stop()
			return err
		}
		br.mu.Lock()
		br.subs = append(br.subs, sub)
		br.mu.Unlock()
	}
	return nil
}

// Stop unsubscribes from all subjects.
func (br *BusBridge) Stop() {
	br.mu.Lock()
	defer br.mu.Unlock()
	for _, sub := range br.subs {
		_ = sub.Unsubscribe()
	}
	br.subs = nil
}

func (br *BusBridge) forward(kind string) bus.MessageHandler {
	return func(msg *bus.Message) []byte {
		event := Event{Type: kind, SessionID: sessionFromSubject(br.prefix, msg.Subject)}
		if kind == bus.KindOutput {
			event.Payload = string(msg.Data)
		} else {
			var payload map[string]any
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				payload = map[string]any{"raw": string(msg.Data)}
			}
			if t, ok := payload["type"].(string); ok {
				event.Type = kind + "." + t
			} else if k, ok := payload["kind"].(string); ok {
				event.Type = kind + "." + k
			}
			event.Payload = payload
		}
		br.hub.Broadcast(event)
		return nil
	}
}

// sessionFromSubject extracts <id> from <prefix>.session.<id>.<kind>.
func sessionFromSubject(prefix, subject string) string {
	rest, ok := strings.CutPrefix(subject, prefix+".session.")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, ".")
	return id
}
