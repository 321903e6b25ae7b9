package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/crawlterm/pkg/telemetry"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNew_CreatesPrivateSQLiteFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file mode bits are not stable on Windows")
	}
	dbPath := filepath.Join(t.TempDir(), "nested", "journal.db")
	store, err := New(dbPath)
	require.NoError(t, err)
	_ = store.Close()

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
	assert.Zero(t, dirInfo.Mode().Perm()&0o077)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := New(path)
	require.NoError(t, err)
	v, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, migrations[len(migrations)-1].Version, v)
	require.NoError(t, store.Close())

	store, err = New(path)
	require.NoError(t, err)
	defer store.Close()
	v2, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, v, v2)
}

func TestSqliteFilePathFromDSN(t *testing.T) {
	cases := []struct {
		dsn    string
		path   string
		onDisk bool
	}{
		{":memory:", "", false},
		{"", "", false},
		{"/tmp/a.db", "/tmp/a.db", true},
		{"file:/tmp/b.db?cache=shared", "/tmp/b.db", true},
		{"file::memory:", "", false},
		{"http://x/y", "", false},
	}
	for _, tc := range cases {
		path, onDisk := sqliteFilePathFromDSN(tc.dsn)
		assert.Equal(t, tc.onDisk, onDisk, tc.dsn)
		assert.Equal(t, tc.path, path, tc.dsn)
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := newStore(t)
	start := time.Now().Add(-time.Minute).Truncate(time.Second)

	sess := &Session{ID: "s1", Game: "demo", Engine: "demo", StartedAt: start}
	require.NoError(t, store.CreateSession(sess))
	assert.Equal(t, 1, sess.Launch)
	assert.Error(t, store.CreateSession(&Session{}))

	got, err := store.GetSession("s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, SessionStatusActive, got.Status)
	assert.Nil(t, got.EndedAt)
	assert.True(t, got.StartedAt.Equal(start))

	require.NoError(t, store.EndSession("s1", SessionStatusFailed, errors.New("engine crashed")))
	got, err = store.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, SessionStatusFailed, got.Status)
	assert.Equal(t, "engine crashed", got.ExitError)
	require.NotNil(t, got.EndedAt)
	assert.Greater(t, got.Duration(time.Now()), time.Duration(0))

	assert.Error(t, store.EndSession("s1", "exploded", nil))
	assert.Error(t, store.EndSession("missing", SessionStatusCompleted, nil))

	missing, err := store.GetSession("missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListAndPruneSessions(t *testing.T) {
	store := newStore(t)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.CreateSession(&Session{ID: "old", StartedAt: old}))
	require.NoError(t, store.EndSession("old", SessionStatusCompleted, nil))
	require.NoError(t, store.CreateSession(&Session{ID: "old-active", StartedAt: old.Add(time.Second)}))
	require.NoError(t, store.CreateSession(&Session{ID: "new", Launch: 2}))

	list, err := store.ListSessions(10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, 2, list[0].Launch)

	n, err := store.PruneSessions(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = store.ListSessions(1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEventsBatch(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.CreateSession(&Session{ID: "s1"}))

	events := []*SessionEvent{
		{SessionID: "s1", Type: "session.started"},
		{SessionID: "s1", Type: "surface.attached", SurfaceID: "surf"},
		{SessionID: "s1", Type: "rebuild.completed", Data: map[string]any{"generation": 2}},
	}
	require.NoError(t, store.SaveEventsBatch(context.Background(), events))
	assert.NotZero(t, events[2].ID)

	got, err := store.ListEvents("s1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "surface.attached", got[0].Type)
	assert.Equal(t, "surf", got[0].SurfaceID)
	assert.Equal(t, float64(2), got[1].Data["generation"])

	sess, err := store.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, 3, sess.EventCount)
}

func TestBatchWriterFlushesOnSizeAndTime(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.CreateSession(&Session{ID: "s1"}))

	bw := store.NewBatchWriter(2, 20*time.Millisecond, nil)
	require.NoError(t, bw.Add(&SessionEvent{SessionID: "s1", Type: "a"}))
	assert.Equal(t, 1, bw.Pending())
	require.NoError(t, bw.Add(&SessionEvent{SessionID: "s1", Type: "b"}))
	assert.Zero(t, bw.Pending())
	assert.Equal(t, 2, bw.Written())

	require.NoError(t, bw.Add(&SessionEvent{SessionID: "s1", Type: "c"}))
	assert.Eventually(t, func() bool { return bw.Written() == 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, bw.Add(&SessionEvent{SessionID: "s1", Type: "d"}))
	require.NoError(t, bw.Close())
	assert.Equal(t, 4, bw.Written())
	assert.ErrorIs(t, bw.Add(&SessionEvent{SessionID: "s1", Type: "e"}), ErrStoreClosed)
}

func TestJournalRecordsOwnSession(t *testing.T) {
	store := newStore(t)
	hub := telemetry.NewHub()
	j, err := OpenJournal(store, Session{ID: "s1", Game: "demo"}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx, hub)
		close(done)
	}()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(telemetry.Event{Type: telemetry.EventSessionStarted, SessionID: "s1"})
	hub.Publish(telemetry.Event{Type: telemetry.EventSessionStarted, SessionID: "s2"})
	hub.Publish(telemetry.Event{Type: telemetry.EventMenuAction, SessionID: "s1", Data: map[string]any{"action": "help"}})
	require.Eventually(t, func() bool { return j.writer.Pending()+j.writer.Written() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	require.NoError(t, j.Close(SessionStatusRelaunched, nil))

	sess, err := store.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, SessionStatusRelaunched, sess.Status)
	assert.Equal(t, 2, sess.EventCount)

	events, err := store.ListEvents("s1", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "menu.action", events[1].Type)
	assert.Equal(t, "help", events[1].Data["action"])
}
