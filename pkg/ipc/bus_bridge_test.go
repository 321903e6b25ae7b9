package ipc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/crawlterm/pkg/bus"
	"github.com/odvcencio/crawlterm/pkg/message"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
)

func TestBusBridgeForwardsMirroredSession(t *testing.T) {
	b := bus.NewMemoryBus()
	defer b.Close()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	br := NewBusBridge(b, hub, "crawlterm")
	require.NoError(t, br.Start(ctx))
	defer br.Stop()

	conn := &fakeConn{}
	sp := hub.join(conn, "")
	go func() { _ = sp.stream(ctx, time.Minute) }()

	m := bus.NewMirror(b, "crawlterm", "s1", nil)
	m.Observe(message.Envelope{Seq: 1, Msg: message.Output{Data: []byte("\x1b[2J@")}})

	hubT := telemetry.NewHub()
	go m.Run(ctx, hubT)
	require.Eventually(t, func() bool { return hubT.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	hubT.Publish(telemetry.Event{Type: telemetry.EventSurfaceAttached, SessionID: "s1"})

	require.Eventually(t, func() bool { return len(conn.types()) == 3 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"messages.output", "output", "telemetry.surface.attached"}, conn.types())

	conn.mu.Lock()
	defer conn.mu.Unlock()
	for _, ev := range conn.frames {
		assert.Equal(t, "s1", ev.SessionID)
		if ev.Type == "output" {
			assert.Equal(t, "\x1b[2J@", ev.Payload)
		}
	}
}

func TestSessionFromSubject(t *testing.T) {
	assert.Equal(t, "01J", sessionFromSubject("crawlterm", "crawlterm.session.01J.output"))
	assert.Equal(t, "", sessionFromSubject("crawlterm", "other.session.01J.output"))
}
