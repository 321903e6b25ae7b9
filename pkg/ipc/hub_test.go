package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	crerrors "github.com/odvcencio/crawlterm/pkg/errors"
)

type fakeConn struct {
	mu      sync.Mutex
	frames  []Event
	pings   int
	pingErr error
}

func (f *fakeConn) Write(ctx context.Context, _ websocket.MessageType, data []byte) error {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	f.mu.Lock()
	f.frames = append(f.frames, ev)
	f.mu.Unlock()
	return ctx.Err()
}

func (f *fakeConn) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeConn) Close(websocket.StatusCode, string) error { return nil }

func (f *fakeConn) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.frames))
	for i, ev := range f.frames {
		out[i] = ev.Type
	}
	return out
}

func (f *fakeConn) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

func TestHubBroadcastFollowsSessionAndDropsSlowSpectators(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	all := &fakeConn{}
	one := &fakeConn{}
	go func() { _ = hub.join(all, "").stream(ctx, time.Minute) }()
	go func() { _ = hub.join(one, "s1").stream(ctx, time.Minute) }()

	slow := &spectator{conn: &fakeConn{}, send: make(chan Event, 1)}
	hub.mu.Lock()
	hub.spectators[slow] = struct{}{}
	hub.mu.Unlock()

	require.Eventually(t, func() bool { return hub.Spectators() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, hub.Watching("s1"))
	assert.Equal(t, 2, hub.Watching("s2"))

	hub.Broadcast(Event{Type: "output", SessionID: "s1"})
	hub.Broadcast(Event{Type: "output", SessionID: "s2"})

	assert.Eventually(t, func() bool { return len(all.types()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(one.types()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, hub.Spectators())

	_, open := <-slow.send
	require.True(t, open, "buffered event still readable")
	_, open = <-slow.send
	assert.False(t, open, "slow spectator queue closed on removal")
}

func TestStreamEndsWhenDropped(t *testing.T) {
	hub := NewHub()
	sp := hub.join(&fakeConn{}, "")

	done := make(chan error, 1)
	go func() { done <- sp.stream(context.Background(), time.Minute) }()
	assert.True(t, hub.leave(sp))
	assert.False(t, hub.leave(sp), "second leave is a no-op")

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not return")
	}
}

func TestStreamPingsWhileIdle(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	sp := hub.join(conn, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = sp.stream(ctx, 5*time.Millisecond) }()
	assert.Eventually(t, func() bool { return conn.pingCount() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestStreamReturnsPingError(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{pingErr: errors.New("gone")}
	sp := hub.join(conn, "")

	err := sp.stream(context.Background(), time.Millisecond)
	assert.EqualError(t, err, "gone")
}

func TestQueryLimit(t *testing.T) {
	tests := map[string]int{
		"":            20,
		"?limit=5":    5,
		"?limit=0":    20,
		"?limit=abc":  20,
		"?limit=9999": maxListLimit,
	}
	for query, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/sessions"+query, nil)
		assert.Equal(t, want, queryLimit(r, 20), query)
	}
}

func TestWriteErrorIncludesCode(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, crerrors.New(crerrors.ErrCodeConfigInvalid, "bad limit"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(crerrors.ErrCodeConfigInvalid), body.Code)
	assert.Contains(t, body.Error, "bad limit")
}
