package bus

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/message"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
)

// Subject kinds published under <prefix>.session.<id>.
const (
	KindTelemetry = "telemetry"
	KindMessages  = "messages"
	KindOutput    = "output"
)

// SessionSubject returns the subject a session publishes kind on. An
// empty id yields the single-token wildcard.
func SessionSubject(prefix, sessionID, kind string) string {
	if sessionID == "" {
		sessionID = "*"
	}
	return strings.Join([]string{prefix, "session", sessionID, kind}, ".")
}

// StatusSubject is the request subject a running instance answers.
func StatusSubject(prefix string) string { return prefix + ".status" }

// ReplayStreamName names the JetStream stream retaining session subjects.
func ReplayStreamName(prefix string) string {
	return strings.ToUpper(strings.ReplaceAll(prefix, ".", "_")) + "_SESSIONS"
}

// Status is the reply to a status request.
type Status struct {
	SessionID  string    `json:"sessionId"`
	SurfaceID  string    `json:"surfaceId,omitempty"`
	State      string    `json:"state"`
	Running    bool      `json:"running"`
	Generation uint64    `json:"generation"`
	Pending    int       `json:"pending"`
	StartedAt  time.Time `json:"startedAt"`
	// Spectators is filled in by the debug endpoint.
	Spectators int `json:"spectators,omitempty"`
}

// Envelope is the JSON form of a bridge message on the messages subject.
type Envelope struct {
	Seq     uint64         `json:"seq"`
	Kind    string         `json:"kind"`
	Summary map[string]any `json:"summary,omitempty"`
}

// Mirror publishes one session's activity onto a bus.
type Mirror struct {
	bus       MessageBus
	prefix    string
	sessionID string
	log       *logging.Logger
}

// NewMirror creates a mirror for sessionID. prefix defaults to the
// default client name.
func NewMirror(b MessageBus, prefix, sessionID string, log *logging.Logger) *Mirror {
	if prefix == "" {
		prefix = DefaultConfig().Name
	}
	return &Mirror{bus: b, prefix: prefix, sessionID: sessionID, log: log}
}

// Subject returns the subject this mirror publishes kind on.
func (m *Mirror) Subject(kind string) string {
	return SessionSubject(m.prefix, m.sessionID, kind)
}

// Observe publishes a bridge envelope. Output payloads are also
// published raw so spectators can feed them to a terminal emulator.
// It has the shape of a bridge observer.
func (m *Mirror) Observe(env message.Envelope) {
	ctx := context.Background()
	data, err := json.Marshal(Envelope{
		Seq:     env.Seq,
		Kind:    string(env.Msg.Kind()),
		Summary: message.Summary(env.Msg),
	})
	if err == nil {
		m.publish(ctx, KindMessages, data)
	}
	if out, ok := env.Msg.(message.Output); ok {
		m.publish(ctx, KindOutput, out.Data)
	}
}

// Run forwards hub events until ctx ends or the hub closes.
func (m *Mirror) Run(ctx context.Context, hub *telemetry.Hub) {
	if hub == nil {
		return
	}
	events, cancel := hub.Subscribe()
	defer cancel()
	m.Follow(ctx, events)
}

// Follow forwards events from an existing subscription until ctx ends
// or events is closed. Events from other sessions are skipped.
func (m *Mirror) Follow(ctx context.Context, events <-chan telemetry.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.SessionID != "" && ev.SessionID != m.sessionID {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			m.publish(ctx, KindTelemetry, data)
		}
	}
}

// ServeStatus answers status requests with the result of status.
func (m *Mirror) ServeStatus(ctx context.Context, status func() Status) (Subscription, error) {
	return m.bus.Subscribe(ctx, StatusSubject(m.prefix), func(*Message) []byte {
		data, err := json.Marshal(status())
		if err != nil {
			return nil
		}
		return data
	})
}

// QueryStatus asks a running instance for its status.
func QueryStatus(ctx context.Context, b MessageBus, prefix string, timeout time.Duration) (Status, error) {
	var st Status
	data, err := b.Request(ctx, StatusSubject(prefix), nil, timeout)
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

func (m *Mirror) publish(ctx context.Context, kind string, data []byte) {
	if err := m.bus.Publish(ctx, m.Subject(kind), data); err != nil {
		m.log.Debug(logging.CategoryNetwork, "bus_publish_failed", err.Error(), map[string]any{"kind": kind})
	}
}
