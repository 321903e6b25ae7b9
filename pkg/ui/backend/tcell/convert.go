package tcell

import (
	"github.com/gdamore/tcell/v2"

	"github.com/odvcencio/crawlterm/pkg/ui/backend"
	"github.com/odvcencio/crawlterm/pkg/ui/terminal"
)

// specialKeys maps tcell key codes that have a direct terminal.Key
// counterpart. Control letters are handled separately.
var specialKeys = map[tcell.Key]terminal.Key{
	tcell.KeyUp:         terminal.KeyUp,
	tcell.KeyDown:       terminal.KeyDown,
	tcell.KeyRight:      terminal.KeyRight,
	tcell.KeyLeft:       terminal.KeyLeft,
	tcell.KeyPgUp:       terminal.KeyPageUp,
	tcell.KeyPgDn:       terminal.KeyPageDown,
	tcell.KeyHome:       terminal.KeyHome,
	tcell.KeyEnd:        terminal.KeyEnd,
	tcell.KeyInsert:     terminal.KeyInsert,
	tcell.KeyDelete:     terminal.KeyDelete,
	tcell.KeyBackspace:  terminal.KeyBackspace,
	tcell.KeyBackspace2: terminal.KeyBackspace,
	tcell.KeyTab:        terminal.KeyTab,
	tcell.KeyBacktab:    terminal.KeyBacktab,
	tcell.KeyEnter:      terminal.KeyEnter,
	tcell.KeyEscape:     terminal.KeyEscape,
	tcell.KeyF1:         terminal.KeyF1,
	tcell.KeyF2:         terminal.KeyF2,
	tcell.KeyF3:         terminal.KeyF3,
	tcell.KeyF4:         terminal.KeyF4,
	tcell.KeyF5:         terminal.KeyF5,
	tcell.KeyF6:         terminal.KeyF6,
	tcell.KeyF7:         terminal.KeyF7,
	tcell.KeyF8:         terminal.KeyF8,
	tcell.KeyF9:         terminal.KeyF9,
	tcell.KeyF10:        terminal.KeyF10,
	tcell.KeyF11:        terminal.KeyF11,
	tcell.KeyF12:        terminal.KeyF12,
}

// tcellKeys is the reverse of specialKeys, used when posting synthetic events.
var tcellKeys = func() map[terminal.Key]tcell.Key {
	out := make(map[terminal.Key]tcell.Key, len(specialKeys))
	for tk, k := range specialKeys {
		if tk == tcell.KeyBackspace2 {
			continue
		}
		out[k] = tk
	}
	return out
}()

// convertKeyEvent converts a tcell key event. Control letters become
// KeyRune with Ctrl set so that callers see a single chord representation.
func convertKeyEvent(e *tcell.EventKey) terminal.KeyEvent {
	mods := e.Modifiers()
	ev := terminal.KeyEvent{
		Key:   terminal.KeyNone,
		Rune:  e.Rune(),
		Alt:   mods&tcell.ModAlt != 0,
		Ctrl:  mods&tcell.ModCtrl != 0,
		Shift: mods&tcell.ModShift != 0,
	}

	k := e.Key()
	if k == tcell.KeyRune {
		ev.Key = terminal.KeyRune
		return ev
	}
	if mapped, ok := specialKeys[k]; ok {
		ev.Key = mapped
		ev.Rune = 0
		return ev
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		ev.Key = terminal.KeyRune
		ev.Rune = 'a' + rune(k-tcell.KeyCtrlA)
		ev.Ctrl = true
	}
	return ev
}

func modMask(alt, ctrl, shift bool) tcell.ModMask {
	var m tcell.ModMask
	if alt {
		m |= tcell.ModAlt
	}
	if ctrl {
		m |= tcell.ModCtrl
	}
	if shift {
		m |= tcell.ModShift
	}
	return m
}

// convertStyle converts backend.Style to tcell.Style.
func convertStyle(s backend.Style) tcell.Style {
	fg, bg, attrs := s.Decompose()
	return tcell.StyleDefault.
		Foreground(convertColor(fg)).
		Background(convertColor(bg)).
		Bold(attrs&backend.AttrBold != 0).
		Reverse(attrs&backend.AttrReverse != 0).
		Underline(attrs&backend.AttrUnderline != 0).
		Dim(attrs&backend.AttrDim != 0)
}

// convertColor converts backend.Color to tcell.Color.
func convertColor(c backend.Color) tcell.Color {
	if c == backend.ColorDefault {
		return tcell.ColorDefault
	}
	if c.IsRGB() {
		r, g, b := c.RGB()
		return tcell.NewRGBColor(int32(r), int32(g), int32(b))
	}
	return tcell.PaletteColor(int(c))
}

// StyleFromTcell converts a tcell style back to backend.Style.
func StyleFromTcell(ts tcell.Style) backend.Style {
	fg, bg, attrs := ts.Decompose()
	return backend.DefaultStyle().
		Foreground(colorFromTcell(fg)).
		Background(colorFromTcell(bg)).
		Bold(attrs&tcell.AttrBold != 0).
		Reverse(attrs&tcell.AttrReverse != 0).
		Underline(attrs&tcell.AttrUnderline != 0).
		Dim(attrs&tcell.AttrDim != 0)
}

func colorFromTcell(tc tcell.Color) backend.Color {
	if tc == tcell.ColorDefault {
		return backend.ColorDefault
	}
	if tc&tcell.ColorIsRGB != 0 {
		r, g, b := tc.RGB()
		return backend.ColorRGB(uint8(r), uint8(g), uint8(b))
	}
	return backend.Color(tc & 0xFF)
}

func convertMouseButton(buttons tcell.ButtonMask) terminal.MouseButton {
	switch {
	case buttons&tcell.WheelUp != 0:
		return terminal.MouseWheelUp
	case buttons&tcell.WheelDown != 0:
		return terminal.MouseWheelDown
	case buttons&tcell.Button1 != 0:
		return terminal.MouseLeft
	case buttons&tcell.Button2 != 0:
		return terminal.MouseMiddle
	case buttons&tcell.Button3 != 0:
		return terminal.MouseRight
	default:
		return terminal.MouseNone
	}
}

func buttonMask(b terminal.MouseButton) tcell.ButtonMask {
	switch b {
	case terminal.MouseLeft:
		return tcell.Button1
	case terminal.MouseMiddle:
		return tcell.Button2
	case terminal.MouseRight:
		return tcell.Button3
	case terminal.MouseWheelUp:
		return tcell.WheelUp
	case terminal.MouseWheelDown:
		return tcell.WheelDown
	default:
		return tcell.ButtonNone
	}
}

// reverseConvertEvent converts terminal.Event to tcell.Event for PostEvent.
func reverseConvertEvent(ev terminal.Event) tcell.Event {
	switch e := ev.(type) {
	case terminal.ResizeEvent:
		return tcell.NewEventResize(e.Width, e.Height)
	case terminal.WakeEvent:
		return tcell.NewEventInterrupt(nil)
	case terminal.KeyEvent:
		mods := modMask(e.Alt, e.Ctrl, e.Shift)
		if e.Key == terminal.KeyRune {
			return tcell.NewEventKey(tcell.KeyRune, e.Rune, mods)
		}
		if tk, ok := tcellKeys[e.Key]; ok {
			return tcell.NewEventKey(tk, 0, mods)
		}
		return nil
	case terminal.MouseEvent:
		btn := buttonMask(e.Button)
		if e.Action == terminal.MouseRelease {
			btn = tcell.ButtonNone
		}
		return tcell.NewEventMouse(e.X, e.Y, btn, modMask(e.Alt, e.Ctrl, e.Shift))
	default:
		return nil
	}
}
