package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/crawlterm/pkg/ui/backend"
	"github.com/odvcencio/crawlterm/pkg/ui/terminal"
)

func newInit(t *testing.T, w, h int) *Backend {
	t.Helper()
	s := New(w, h)
	require.NoError(t, s.Init())
	t.Cleanup(s.Fini)
	return s
}

func pollWithTimeout(t *testing.T, s *Backend) terminal.Event {
	t.Helper()
	ch := make(chan terminal.Event, 1)
	go func() { ch <- s.PollEvent() }()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("PollEvent blocked")
		return nil
	}
}

func TestBackend_SizeAfterInit(t *testing.T) {
	s := newInit(t, 40, 12)
	w, h := s.Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 12, h)
}

func TestBackend_RenderAndFind(t *testing.T) {
	s := newInit(t, 40, 10)
	for i, r := range "target" {
		s.SetContent(5+i, 3, r, nil, backend.DefaultStyle())
	}
	s.Show()

	x, y := s.FindText("target")
	assert.Equal(t, 5, x)
	assert.Equal(t, 3, y)
	assert.True(t, s.ContainsText("target"))
	assert.False(t, s.ContainsText("missing"))
	assert.Equal(t, "     target", s.Line(3))
}

func TestBackend_CaptureRegion(t *testing.T) {
	s := newInit(t, 20, 10)
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			s.SetContent(x, y, 'X', nil, backend.DefaultStyle())
		}
	}
	s.Show()
	assert.Equal(t, "XXXXX\nXXXXX\nXXXXX", s.CaptureRegion(0, 0, 5, 3))
}

func TestBackend_StyleRoundTrip(t *testing.T) {
	s := newInit(t, 20, 10)
	style := backend.DefaultStyle().Foreground(backend.ColorRed).Reverse(true)
	s.SetContent(0, 0, 'S', nil, style)
	s.Show()

	r, got := s.CaptureCell(0, 0)
	assert.Equal(t, 'S', r)
	_, _, attrs := got.Decompose()
	assert.NotZero(t, attrs&backend.AttrReverse)
}

func TestBackend_InjectRune(t *testing.T) {
	s := newInit(t, 20, 10)
	require.NoError(t, s.InjectKey(terminal.KeyRune, 'a'))

	ev := pollWithTimeout(t, s)
	key, ok := ev.(terminal.KeyEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, terminal.KeyRune, key.Key)
	assert.Equal(t, 'a', key.Rune)
	assert.False(t, key.Ctrl)
}

func TestBackend_InjectCtrlChord(t *testing.T) {
	s := newInit(t, 20, 10)
	require.NoError(t, s.InjectCtrl('f'))

	ev := pollWithTimeout(t, s)
	key, ok := ev.(terminal.KeyEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, terminal.KeyRune, key.Key)
	assert.Equal(t, 'f', key.Rune)
	assert.True(t, key.Ctrl)
}

func TestBackend_InjectFunctionKey(t *testing.T) {
	s := newInit(t, 20, 10)
	require.NoError(t, s.InjectKey(terminal.KeyF3, 0))

	ev := pollWithTimeout(t, s)
	assert.Equal(t, terminal.KeyEvent{Key: terminal.KeyF3}, ev)
}

func TestBackend_Wake(t *testing.T) {
	s := newInit(t, 20, 10)
	require.NoError(t, s.PostEvent(terminal.WakeEvent{}))
	assert.Equal(t, terminal.WakeEvent{}, pollWithTimeout(t, s))
}

func TestBackend_InjectResize(t *testing.T) {
	s := newInit(t, 80, 24)
	require.NoError(t, s.InjectResize(30, 8))

	ev := pollWithTimeout(t, s)
	assert.Equal(t, terminal.ResizeEvent{Width: 30, Height: 8}, ev)
	w, h := s.Size()
	assert.Equal(t, 30, w)
	assert.Equal(t, 8, h)
}

func TestBackend_MousePressThenRelease(t *testing.T) {
	s := newInit(t, 20, 10)
	require.NoError(t, s.InjectMouse(3, 4, terminal.MouseLeft))
	require.NoError(t, s.PostEvent(terminal.MouseEvent{X: 3, Y: 4, Button: terminal.MouseLeft, Action: terminal.MouseRelease}))

	press := pollWithTimeout(t, s).(terminal.MouseEvent)
	assert.Equal(t, terminal.MousePress, press.Action)
	assert.Equal(t, terminal.MouseLeft, press.Button)

	release := pollWithTimeout(t, s).(terminal.MouseEvent)
	assert.Equal(t, terminal.MouseRelease, release.Action)
	assert.Equal(t, terminal.MouseLeft, release.Button)
}

func TestBackend_BeepCounted(t *testing.T) {
	s := newInit(t, 20, 10)
	s.Beep()
	s.Beep()
	assert.Equal(t, 2, s.Beeps())
}
