// Package tcell provides a Backend implementation using tcell.
package tcell

import (
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/odvcencio/crawlterm/pkg/ui/backend"
	"github.com/odvcencio/crawlterm/pkg/ui/terminal"
)

// Backend implements backend.Backend using tcell.
type Backend struct {
	screen tcell.Screen

	// Bracketed paste state
	inPaste     bool
	pasteBuffer strings.Builder

	// Last reported button mask, used to derive press/move/release.
	mouseMu   sync.Mutex
	lastMouse tcell.ButtonMask
}

// New creates a new tcell backend.
func New() (*Backend, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Backend{screen: screen}, nil
}

// NewWithScreen creates a backend with an existing tcell screen (for testing).
func NewWithScreen(screen tcell.Screen) *Backend {
	return &Backend{screen: screen}
}

// Screen exposes the underlying tcell screen.
func (b *Backend) Screen() tcell.Screen {
	return b.screen
}

// Init initializes the backend.
func (b *Backend) Init() error {
	if err := b.screen.Init(); err != nil {
		return err
	}
	b.screen.EnableMouse()
	b.screen.EnablePaste()
	b.screen.HideCursor()
	return nil
}

// Fini cleans up the backend.
func (b *Backend) Fini() {
	b.screen.Fini()
}

// Suspend hands the terminal back to the shell, for running an editor
// or pager. Events are not delivered until Resume.
func (b *Backend) Suspend() error { return b.screen.Suspend() }

// Resume takes the terminal back after Suspend.
func (b *Backend) Resume() error { return b.screen.Resume() }

// Size returns the terminal dimensions.
func (b *Backend) Size() (width, height int) {
	return b.screen.Size()
}

// SetContent sets a cell at position (x, y).
func (b *Backend) SetContent(x, y int, mainc rune, comb []rune, style backend.Style) {
	b.screen.SetContent(x, y, mainc, comb, convertStyle(style))
}

// Show synchronizes the buffer to the terminal.
func (b *Backend) Show() { b.screen.Show() }

// Clear clears the screen.
func (b *Backend) Clear() { b.screen.Clear() }

// HideCursor hides the cursor.
func (b *Backend) HideCursor() { b.screen.HideCursor() }

// SetCursorPos shows the cursor at the given position.
func (b *Backend) SetCursorPos(x, y int) { b.screen.ShowCursor(x, y) }

// Beep emits an audible bell.
func (b *Backend) Beep() { _ = b.screen.Beep() }

// Sync forces a full redraw.
func (b *Backend) Sync() { b.screen.Sync() }

// PollEvent blocks until an event is available.
func (b *Backend) PollEvent() terminal.Event {
	for {
		ev := b.screen.PollEvent()
		if ev == nil {
			return nil
		}

		switch e := ev.(type) {
		case *tcell.EventPaste:
			if e.Start() {
				b.inPaste = true
				b.pasteBuffer.Reset()
				continue
			}
			if e.End() {
				b.inPaste = false
				text := b.pasteBuffer.String()
				b.pasteBuffer.Reset()
				if text != "" {
					return terminal.PasteEvent{Text: text}
				}
				continue
			}

		case *tcell.EventKey:
			if b.inPaste {
				switch e.Key() {
				case tcell.KeyRune:
					b.pasteBuffer.WriteRune(e.Rune())
				case tcell.KeyEnter:
					b.pasteBuffer.WriteRune('\n')
				case tcell.KeyTab:
					b.pasteBuffer.WriteRune('\t')
				}
				continue
			}
			return convertKeyEvent(e)

		case *tcell.EventResize:
			w, h := e.Size()
			return terminal.ResizeEvent{Width: w, Height: h}

		case *tcell.EventMouse:
			return b.convertMouse(e)

		case *tcell.EventInterrupt:
			return terminal.WakeEvent{}
		}
	}
}

// convertMouse derives the action from the transition between the previous
// and current button masks; tcell only reports the current state.
func (b *Backend) convertMouse(e *tcell.EventMouse) terminal.MouseEvent {
	x, y := e.Position()
	mods := e.Modifiers()
	buttons := e.Buttons()

	b.mouseMu.Lock()
	prev := b.lastMouse
	if buttons&(tcell.WheelUp|tcell.WheelDown) == 0 {
		b.lastMouse = buttons
	}
	b.mouseMu.Unlock()

	ev := terminal.MouseEvent{
		X:      x,
		Y:      y,
		Button: convertMouseButton(buttons),
		Action: terminal.MousePress,
		Alt:    mods&tcell.ModAlt != 0,
		Ctrl:   mods&tcell.ModCtrl != 0,
		Shift:  mods&tcell.ModShift != 0,
	}
	switch {
	case buttons&(tcell.WheelUp|tcell.WheelDown) != 0:
	case buttons == tcell.ButtonNone && prev != tcell.ButtonNone:
		ev.Action = terminal.MouseRelease
		ev.Button = convertMouseButton(prev)
	case buttons == tcell.ButtonNone:
		ev.Action = terminal.MouseMove
	case buttons == prev:
		ev.Action = terminal.MouseMove
	}
	return ev
}

// PostEvent injects an event into the queue.
func (b *Backend) PostEvent(ev terminal.Event) error {
	if tev := reverseConvertEvent(ev); tev != nil {
		return b.screen.PostEvent(tev)
	}
	return nil
}

var _ backend.Backend = (*Backend)(nil)
