package prefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestRead_MissingFileUsesDefaults(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "prefs.yaml"))
	snap, errs := Read(s)
	assert.Equal(t, Defaults(), snap)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrUnset)
	}
}

func TestRead_InvalidValuesFallBackPerField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	writeFile(t, path, `
orientation: diagonal
keyboard:
  portrait: custom
  landscape: maybe
haptics: false
full_screen: true
`)
	snap, errs := Read(NewStore(path))

	assert.Equal(t, OrientationSensor, snap.Orientation)
	assert.Equal(t, KeyboardCustom, snap.KeyboardPortrait)
	assert.Equal(t, KeyboardOff, snap.KeyboardLandscape)
	assert.False(t, snap.Haptics)
	assert.True(t, snap.FullScreen)

	var fields []string
	for _, err := range errs {
		var fe FieldError
		require.ErrorAs(t, err, &fe)
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "orientation")
	assert.Contains(t, fields, "keyboard.landscape")
}

func TestRead_UnparseableFileFallsBackEntirely(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	writeFile(t, path, "orientation: [unclosed")
	snap, errs := Read(NewStore(path))
	assert.Equal(t, Defaults(), snap)
	assert.NotEmpty(t, errs)
}

func TestStore_SettersPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	s := NewStore(path)

	require.NoError(t, s.SetKeyboardMode(ClassLandscape, KeyboardSystem))
	require.NoError(t, s.SetLockPositioning(true))
	require.NoError(t, s.SetOrientation(OrientationPortrait))
	require.NoError(t, s.SetFullScreen(true))
	require.NoError(t, s.SetHaptics(false))
	assert.Error(t, s.SetKeyboardMode(ClassPortrait, "sideways"))

	snap, _ := Read(NewStore(path))
	assert.Equal(t, KeyboardSystem, snap.KeyboardLandscape)
	assert.Equal(t, KeyboardOff, snap.KeyboardPortrait)
	assert.True(t, snap.LockPositioning)
	assert.Equal(t, OrientationPortrait, snap.Orientation)
	assert.True(t, snap.FullScreen)
	assert.False(t, snap.Haptics)
}

func TestDiff(t *testing.T) {
	base := Defaults()
	assert.Equal(t, ChangeNone, Diff(base, base))
	assert.Equal(t, ChangeRebuild, Diff(base, base.WithKeyboard(ClassPortrait, KeyboardCustom)))

	reload := base
	reload.Game = Game{Command: "crawl", Args: []string{"-name", "x"}}
	assert.Equal(t, ChangeReload, Diff(base, reload))

	both := reload
	both.FullScreen = true
	assert.Equal(t, ChangeReload, Diff(base, both))

	sameGame := reload
	sameGame.Game = Game{Command: "crawl", Args: []string{"-name", "x"}}
	assert.Equal(t, ChangeNone, Diff(reload, sameGame))

	for name, mutate := range map[string]func(*Snapshot){
		"orientation": func(s *Snapshot) { s.Orientation = OrientationLandscape },
		"landscape":   func(s *Snapshot) { s.KeyboardLandscape = KeyboardSystem },
		"haptics":     func(s *Snapshot) { s.Haptics = !s.Haptics },
		"lock":        func(s *Snapshot) { s.LockPositioning = true },
	} {
		next := sameGame
		mutate(&next)
		assert.Equal(t, ChangeRebuild, Diff(reload, next), name)
	}
}

func TestStore_ReconcileIgnoresOwnWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	s := NewStore(path)
	require.NoError(t, s.SetKeyboardMode(ClassPortrait, KeyboardCustom))

	change, _ := s.Reconcile()
	assert.Equal(t, ChangeNone, change)

	writeFile(t, path, "keyboard:\n  portrait: custom\ngame:\n  command: crawl\n")
	change, snap := s.Reconcile()
	assert.Equal(t, ChangeReload, change)
	assert.Equal(t, "crawl", snap.Game.Command)
}

func TestWatcher_ReportsExternalEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.yaml")
	s := NewStore(path)
	require.NoError(t, s.SetFullScreen(false))

	w, err := NewWatcher(s, nil)
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	writeFile(t, filepath.Join(dir, "unrelated.txt"), "x")
	writeFile(t, path, "full_screen: true\n")

	select {
	case c := <-w.Changes():
		assert.Equal(t, ChangeRebuild, c)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcher_EmitMergesPending(t *testing.T) {
	w := &Watcher{changes: make(chan Change, 1)}
	w.emit(ChangeRebuild)
	w.emit(ChangeReload)
	w.emit(ChangeRebuild)
	assert.Equal(t, ChangeReload, <-w.Changes())
}
