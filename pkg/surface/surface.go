// Package surface is the presentation target the controller builds on
// every rebuild: the terminal view over the shared grid, the optional
// custom keyboard and directional overlay, the status line and any
// open dialog.
//
// A Surface is created fully formed by New and is only mutated on the
// presentation goroutine. Once detached it ignores input.
package surface

import (
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/odvcencio/crawlterm/pkg/dialog"
	"github.com/odvcencio/crawlterm/pkg/input"
	"github.com/odvcencio/crawlterm/pkg/message"
	"github.com/odvcencio/crawlterm/pkg/prefs"
	"github.com/odvcencio/crawlterm/pkg/termbuf"
	"github.com/odvcencio/crawlterm/pkg/ui/terminal"
)

// KeySink receives input on behalf of a surface. The session router
// implements it.
type KeySink interface {
	OnKeyFrom(from string, code input.Code, phase input.Phase) bool
	OnTerminalKey(from string, ev terminal.KeyEvent) bool
}

// Beeper produces haptic feedback.
type Beeper interface {
	Beep()
}

// Action is a presentation-level action requested from a dialog.
type Action string

const (
	ActionNone    Action = ""
	ActionQuit    Action = "quit"
	ActionRestart Action = "restart"
)

// Result reports how the surface handled an event.
type Result struct {
	Consumed bool
	Action   Action
}

// hapticInterval bounds how often feedback fires during rapid presses.
const hapticInterval = 40 * time.Millisecond

// Config describes the surface to build.
type Config struct {
	ID         string
	Width      int
	Height     int
	Class      prefs.Class
	Keyboard   prefs.KeyboardMode
	Locked     bool
	FullScreen bool
	Haptics    bool
	Pan        termbuf.Viewport
	Title      string

	Grid    *termbuf.Grid
	Dialogs *dialog.Manager
	Keys    KeySink
	Beeper  Beeper
}

type rect struct{ x, y, w, h int }

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

func (r rect) empty() bool { return r.w <= 0 || r.h <= 0 }

type drag struct {
	x, y int
	pan  termbuf.Viewport
}

// Surface is one generation of the presentation target.
type Surface struct {
	cfg Config

	term     rect
	kbd      rect
	dpadRect rect
	status   rect

	keyboard *Keyboard
	dpad     *DPad
	haptic   *rate.Limiter

	pan  termbuf.Viewport
	drag *drag

	attached  atomic.Bool
	dirty     bool
	delivered int
	lastSeq   uint64
}

// New builds a surface. Exactly one of no keyboard, the custom keyboard
// with the directional overlay, or the system input method is active,
// chosen by cfg.Keyboard.
func New(cfg Config) *Surface {
	if cfg.Dialogs == nil {
		cfg.Dialogs = dialog.NewManager()
	}
	if cfg.Grid == nil {
		cfg.Grid = termbuf.New(24, 80)
	}
	s := &Surface{
		cfg:    cfg,
		haptic: rate.NewLimiter(rate.Every(hapticInterval), 1),
		dirty:  true,
	}
	s.layout()
	s.pan = s.clampPan(cfg.Pan)
	return s
}

func (s *Surface) layout() {
	w, h := max(s.cfg.Width, 1), max(s.cfg.Height, 1)
	avail := rect{0, 0, w, h}
	if !s.cfg.FullScreen && h > 1 {
		s.status = rect{0, h - 1, w, 1}
		avail.h--
	}
	s.term = avail

	if s.cfg.Keyboard != prefs.KeyboardCustom {
		return
	}
	if s.cfg.Class == prefs.ClassLandscape {
		pw := min(max(w/3, 16), w-8)
		if pw > 0 {
			s.keyboard = NewKeyboard(DefaultKeys(), pw)
			s.kbd = rect{w - pw, 0, pw, min(s.keyboard.Rows(), avail.h)}
			s.term.w = w - pw
		}
	} else {
		s.keyboard = NewKeyboard(DefaultKeys(), w)
		kh := min(s.keyboard.Rows(), max(avail.h-3, 0))
		s.kbd = rect{0, avail.h - kh, w, kh}
		s.term.h = avail.h - kh
	}
	if s.term.w >= dpadW && s.term.h >= dpadH {
		s.dpad = &DPad{}
		s.dpadRect = rect{s.term.x + s.term.w - dpadW, s.term.y + s.term.h - dpadH, dpadW, dpadH}
	}
}

// ID returns the surface id.
func (s *Surface) ID() string { return s.cfg.ID }

// Class returns the orientation class the surface was built for.
func (s *Surface) Class() prefs.Class { return s.cfg.Class }

// KeyboardMode returns the keyboard mode the surface was built with.
func (s *Surface) KeyboardMode() prefs.KeyboardMode { return s.cfg.Keyboard }

// HasCustomKeyboard reports whether the custom keyboard view exists.
func (s *Surface) HasCustomKeyboard() bool { return s.keyboard != nil }

// HasDirectionalOverlay reports whether the directional overlay exists.
func (s *Surface) HasDirectionalOverlay() bool { return s.dpad != nil }

// Locked reports whether panning is locked.
func (s *Surface) Locked() bool { return s.cfg.Locked }

// FullScreen reports whether the status line is hidden.
func (s *Surface) FullScreen() bool { return s.cfg.FullScreen }

// Pan returns the terminal viewport origin.
func (s *Surface) Pan() termbuf.Viewport { return s.pan }

// MarkAttached records whether the surface is the attached one.
func (s *Surface) MarkAttached(on bool) {
	s.attached.Store(on)
	if on {
		s.dirty = true
	}
}

// Attached reports whether the surface is the attached one.
func (s *Surface) Attached() bool { return s.attached.Load() }

// Invalidate forces a redraw on the next Draw check.
func (s *Surface) Invalidate() { s.dirty = true }

// Dialog returns the dialog this surface shows and answers.
func (s *Surface) Dialog() (dialog.Dialog, bool) { return s.cfg.Dialogs.Current() }

// Dirty reports whether the surface needs drawing.
func (s *Surface) Dirty() bool { return s.dirty }

// Delivered returns how many messages this surface received and the
// sequence number of the last one.
func (s *Surface) Delivered() (int, uint64) { return s.delivered, s.lastSeq }

// Deliver applies an engine message. It implements bridge.Sink.
func (s *Surface) Deliver(env message.Envelope) {
	s.delivered++
	s.lastSeq = env.Seq
	s.dirty = true

	switch m := env.Msg.(type) {
	case message.Output:
		s.cfg.Grid.Write(m.Data)
	case message.DialogShow:
		s.cfg.Dialogs.Show(m.Dialog)
	case message.DialogDismiss:
		s.cfg.Dialogs.Dismiss(m.ID)
	case message.EngineExited:
		lines := []string{"The game has ended."}
		if m.Err != nil {
			lines = append(lines, fmt.Sprintf("Error: %v", m.Err))
		}
		s.cfg.Dialogs.Show(dialog.New("Game over", lines,
			dialog.Option{Key: 'r', Label: "Restart", Action: string(ActionRestart)},
			dialog.Option{Key: 'q', Label: "Quit", Action: string(ActionQuit)},
		))
	}
}

// ResetPosition returns the terminal view to the origin.
func (s *Surface) ResetPosition() {
	s.pan = termbuf.Viewport{}
	s.dirty = true
}

// SetLocked changes the lock-positioning flag.
func (s *Surface) SetLocked(locked bool) {
	s.cfg.Locked = locked
	s.drag = nil
	s.dirty = true
}

func (s *Surface) clampPan(vp termbuf.Viewport) termbuf.Viewport {
	rows, cols := s.cfg.Grid.Size()
	vp.X = max(0, min(vp.X, cols-s.term.w))
	vp.Y = max(0, min(vp.Y, rows-s.term.h))
	return vp
}

func (s *Surface) panBy(dx, dy int) bool {
	if s.cfg.Locked {
		return false
	}
	next := s.clampPan(termbuf.Viewport{X: s.pan.X + dx, Y: s.pan.Y + dy})
	if next == s.pan {
		return false
	}
	s.pan = next
	s.dirty = true
	return true
}

func (s *Surface) feedback() {
	if s.cfg.Haptics && s.cfg.Beeper != nil && s.haptic.Allow() {
		s.cfg.Beeper.Beep()
	}
}
