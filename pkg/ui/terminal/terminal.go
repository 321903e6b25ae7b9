// Package terminal provides the backend-neutral terminal event types.
package terminal

import "fmt"

// Event represents a terminal input event.
type Event interface {
	eventMarker()
}

// KeyEvent is a key press. Control chords arrive as KeyRune with Ctrl
// set and Rune holding the lower-case letter.
type KeyEvent struct {
	Key   Key
	Rune  rune
	Alt   bool
	Ctrl  bool
	Shift bool
}

// Plain reports whether no modifier is held.
func (e KeyEvent) Plain() bool { return !e.Alt && !e.Ctrl && !e.Shift }

// Chord reports whether e is Ctrl plus the letter r.
func (e KeyEvent) Chord(r rune) bool {
	return e.Key == KeyRune && e.Ctrl && !e.Alt && e.Rune == r
}

// ResizeEvent reports the new window size in cells.
type ResizeEvent struct {
	Width  int
	Height int
}

// MouseEvent is a mouse or touch input at a cell.
type MouseEvent struct {
	X, Y   int
	Button MouseButton
	Action MouseAction
	Alt    bool
	Ctrl   bool
	Shift  bool
}

// PasteEvent carries bracketed paste content.
type PasteEvent struct {
	Text string
}

// WakeEvent is posted to unblock a pending poll without input.
type WakeEvent struct{}

func (KeyEvent) eventMarker()    {}
func (ResizeEvent) eventMarker() {}
func (MouseEvent) eventMarker()  {}
func (PasteEvent) eventMarker()  {}
func (WakeEvent) eventMarker()   {}

// MouseButton identifies which mouse button was involved.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

// MouseAction identifies what happened with the mouse.
type MouseAction int

const (
	MousePress MouseAction = iota
	MouseRelease
	MouseMove
)

// Key identifies a special key. Printable input is KeyRune.
type Key int

const (
	KeyNone Key = iota
	KeyRune
	KeyEnter
	KeyBackspace
	KeyTab
	KeyBacktab
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyDelete
	KeyInsert
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var keyNames = [...]string{
	KeyNone:      "none",
	KeyRune:      "rune",
	KeyEnter:     "enter",
	KeyBackspace: "backspace",
	KeyTab:       "tab",
	KeyBacktab:   "backtab",
	KeyEscape:    "escape",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyPageUp:    "pgup",
	KeyPageDown:  "pgdn",
	KeyDelete:    "delete",
	KeyInsert:    "insert",
}

// Function returns n for the function key Fn, or 0.
func (k Key) Function() int {
	if k >= KeyF1 && k <= KeyF12 {
		return int(k-KeyF1) + 1
	}
	return 0
}

func (k Key) String() string {
	if n := k.Function(); n > 0 {
		return fmt.Sprintf("f%d", n)
	}
	if k >= 0 && int(k) < len(keyNames) {
		return keyNames[k]
	}
	return fmt.Sprintf("key(%d)", int(k))
}
