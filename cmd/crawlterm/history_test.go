package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/crawlterm/pkg/storage"
	"github.com/odvcencio/crawlterm/pkg/terminal"
)

func newHistoryStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestHistoryListEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runHistoryList(terminal.NewWithOutput(&buf), newHistoryStore(t), nil))
	assert.Contains(t, buf.String(), "No sessions recorded yet.")
}

func TestHistoryListAndShow(t *testing.T) {
	store := newHistoryStore(t)
	require.NoError(t, store.CreateSession(&storage.Session{ID: "01JSESSION", Game: "crawlterm demo", Engine: "demo"}))
	require.NoError(t, store.SaveEventsBatch(context.Background(), []*storage.SessionEvent{
		{SessionID: "01JSESSION", Type: "rebuild.completed", SurfaceID: "surf", Data: map[string]any{"reason": "attach", "class": "landscape"}},
	}))

	var buf bytes.Buffer
	out := terminal.NewWithOutput(&buf)
	require.NoError(t, runHistoryList(out, store, []string{"--limit", "5"}))
	assert.Contains(t, buf.String(), "01JSESSION")
	assert.Contains(t, buf.String(), "crawlterm demo")

	buf.Reset()
	require.NoError(t, runHistoryShow(out, store, []string{"01JSESSION"}))
	text := buf.String()
	assert.Contains(t, text, "Session 01JSESSION")
	assert.Contains(t, text, "rebuild.completed")
	assert.Contains(t, text, "class=landscape reason=attach")

	err := runHistoryShow(out, store, []string{"missing"})
	assert.ErrorContains(t, err, "session not found")

	err = runHistoryShow(out, store, nil)
	assert.Equal(t, exitConfig, exitCodeForError(err))
}

func TestHistoryPrune(t *testing.T) {
	store := newHistoryStore(t)
	old := time.Now().Add(-72 * time.Hour)
	require.NoError(t, store.CreateSession(&storage.Session{ID: "old", Game: "demo", StartedAt: old}))
	require.NoError(t, store.EndSession("old", storage.SessionStatusCompleted, nil))

	var buf bytes.Buffer
	out := terminal.NewWithOutput(&buf)
	out.SetInput(strings.NewReader("n\n"))
	require.NoError(t, runHistoryPrune(out, store, []string{"--older-than", "24h"}, 0))
	assert.Contains(t, buf.String(), "Nothing deleted.")

	require.NoError(t, runHistoryPrune(out, store, []string{"--older-than", "24h", "--yes"}, 0))
	assert.Contains(t, buf.String(), "Deleted 1 session(s)")

	sess, err := store.GetSession("old")
	require.NoError(t, err)
	assert.Nil(t, sess)

	err = runHistoryPrune(out, store, nil, 0)
	assert.Equal(t, exitConfig, exitCodeForError(err))
}

func TestFormatEventData(t *testing.T) {
	assert.Equal(t, "", formatEventData(nil))
	assert.Equal(t, "a=1 b=x", formatEventData(map[string]any{"b": "x", "a": 1}))
}
