package main

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/crawlterm/pkg/bus"
	"github.com/odvcencio/crawlterm/pkg/config"
	"github.com/odvcencio/crawlterm/pkg/dialog"
	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/message"
	"github.com/odvcencio/crawlterm/pkg/prefs"
	"github.com/odvcencio/crawlterm/pkg/presentation"
	"github.com/odvcencio/crawlterm/pkg/storage"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
	"github.com/odvcencio/crawlterm/pkg/ui/terminal"
)

type launchHarness struct {
	launcher *launcher
	platform *termPlatform
	store    *storage.Store
	bus      *bus.MemoryBus
	events   chan terminal.Event
}

func newLaunchHarness(t *testing.T) *launchHarness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Logging.Dir = t.TempDir()

	store := newHistoryStore(t)
	b := bus.NewMemoryBus()
	t.Cleanup(func() { _ = b.Close() })
	hub := telemetry.NewHub()
	t.Cleanup(hub.Close)

	transcript, err := logging.NewTranscript(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = transcript.Close() })

	p, _, _ := newTestPlatform(t, 120, 40)
	events := make(chan terminal.Event, 8)
	h := &launchHarness{
		platform: p,
		store:    store,
		bus:      b,
		events:   events,
	}
	h.launcher = &launcher{
		cfg:      cfg,
		prefs:    p.prefs,
		store:    store,
		bus:      b,
		hub:      hub,
		platform: p,
		events:   events,
		live:     &liveSession{},
		override: prefs.Game{Command: engineDemo},
		newLogger: func(string) (*logging.Logger, error) {
			return nil, nil
		},
		transcript: transcript,
	}
	return h
}

func TestLaunchJournalsAndMirrorsSession(t *testing.T) {
	h := newLaunchHarness(t)

	var mu sync.Mutex
	var mirrored []string
	subject := bus.SessionSubject(h.launcher.cfg.Bus.SubjectPrefix, "", bus.KindTelemetry)
	_, err := h.bus.Subscribe(context.Background(), subject, func(msg *bus.Message) []byte {
		mu.Lock()
		mirrored = append(mirrored, msg.Subject)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	ctrl, release, err := h.launcher.launch(context.Background(), 0)
	require.NoError(t, err)

	st, ok := h.launcher.live.Status()
	require.True(t, ok)
	assert.Equal(t, ctrl.Session().ID(), st.SessionID)

	h.events <- terminal.KeyEvent{Key: terminal.KeyF5}
	require.NoError(t, ctrl.Run(context.Background()))
	release()

	_, ok = h.launcher.live.Status()
	assert.False(t, ok, "released launch no longer reports status")

	sess, err := h.store.GetSession(ctrl.Session().ID())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, storage.SessionStatusCompleted, sess.Status)
	assert.Equal(t, "demo", sess.Engine)
	assert.Equal(t, 1, sess.Launch)

	events, err := h.store.ListEvents(sess.ID, 100)
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, string(telemetry.EventSessionStarted))
	assert.Contains(t, types, string(telemetry.EventRebuildCompleted))

	data, err := os.ReadFile(h.launcher.transcript.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "session="+sess.ID+" game=crawlterm demo")
	assert.Contains(t, string(data), "session completed")

	want := bus.SessionSubject(h.launcher.cfg.Bus.SubjectPrefix, sess.ID, bus.KindTelemetry)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(mirrored) > 0 && mirrored[0] == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLauncherRelaunchesAfterGameEdit(t *testing.T) {
	h := newLaunchHarness(t)
	h.launcher.override = prefs.Game{}
	h.platform.run = editTo("game:\n  command: demo\n  profile: second run\n")

	h.events <- terminal.KeyEvent{Key: terminal.KeyF2}
	h.events <- terminal.KeyEvent{Key: terminal.KeyF5}

	runner := presentation.NewLauncher(h.launcher.launch, nil)
	require.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, 2, runner.Launches())

	sessions, err := h.store.ListSessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	byLaunch := map[int]storage.Session{}
	for _, s := range sessions {
		byLaunch[s.Launch] = s
	}
	assert.Equal(t, storage.SessionStatusRelaunched, byLaunch[1].Status)
	assert.Equal(t, "crawlterm demo", byLaunch[1].Game)
	assert.Equal(t, storage.SessionStatusCompleted, byLaunch[2].Status)
	assert.Equal(t, "second run", byLaunch[2].Game)
}

func TestTranscriberWritesDialogsAndExits(t *testing.T) {
	transcript, err := logging.NewTranscript(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = transcript.Close() })

	tr := newTranscriber(transcript, nil)
	tr.Observe(message.Envelope{Seq: 1, Msg: message.DialogShow{Dialog: dialog.New("Really quit?", []string{"Unsaved progress."}, dialog.Option{Key: 'y', Label: "Yes"})}})
	tr.Observe(message.Envelope{Seq: 2, Msg: message.Redraw{}})
	tr.Observe(message.Envelope{Seq: 3, Msg: message.EngineExited{Err: errors.New("status 1")}})
	tr.Close()
	tr.Observe(message.Envelope{Seq: 4, Msg: message.EngineExited{}})

	data, err := os.ReadFile(transcript.Path())
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Really quit?")
	assert.Contains(t, text, "y) Yes")
	assert.Contains(t, text, "engine exited: status 1")
	assert.NotContains(t, text, "engine exited\n")
}

func TestTranscriberDropsWhenWriterIsBehind(t *testing.T) {
	// No writer goroutine: the one-slot buffer fills and the rest drop.
	tr := &transcriber{lines: make(chan string, 1), done: make(chan struct{})}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			tr.Observe(message.Envelope{Seq: uint64(i), Msg: message.EngineExited{}})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Observe blocked")
	}
	assert.Len(t, tr.lines, 1)
}

func TestJournalStatus(t *testing.T) {
	assert.Equal(t, storage.SessionStatusCompleted, journalStatus(presentation.OutcomeQuit, nil))
	assert.Equal(t, storage.SessionStatusRelaunched, journalStatus(presentation.OutcomeRelaunch, nil))
	assert.Equal(t, storage.SessionStatusFailed, journalStatus(presentation.OutcomeQuit, assert.AnError))
}

func TestGameLabel(t *testing.T) {
	assert.Equal(t, "crawlterm demo", gameLabel(prefs.Game{Command: engineDemo}))
	assert.Equal(t, "nethack -u hero", gameLabel(prefs.Game{Command: "nethack", Args: []string{"-u", "hero"}}))
	assert.Equal(t, "Angband", gameLabel(prefs.Game{Command: "angband", Profile: "Angband"}))
	assert.Equal(t, "pty", engineName(prefs.Game{Command: "angband"}))
}
