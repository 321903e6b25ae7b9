// Package input defines the normalized key events sent to the engine.
//
// A Code is either a Unicode code point (control characters included) or
// one of the named codes above the Unicode range for keys that have no
// character: arrows, the directional pad diagonals, paging keys and
// function keys. The Alt bit may be combined with either.
package input

import (
	"fmt"
	"unicode"

	"github.com/odvcencio/crawlterm/pkg/ui/terminal"
)

// Code is a logical key code.
type Code int32

// Phase distinguishes press from release.
type Phase uint8

const (
	Press Phase = iota
	Release
)

func (p Phase) String() string {
	if p == Release {
		return "release"
	}
	return "press"
}

const (
	namedBase Code = 0x110000

	// ModAlt marks a code typed with Alt held.
	ModAlt Code = 1 << 24
)

// Named codes.
const (
	CodeUp Code = namedBase + iota
	CodeDown
	CodeLeft
	CodeRight
	CodeUpLeft
	CodeUpRight
	CodeDownLeft
	CodeDownRight
	CodeCenter
	CodeHome
	CodeEnd
	CodePageUp
	CodePageDown
	CodeInsert
	CodeDelete
	CodeBacktab
	CodeF1
	CodeF2
	CodeF3
	CodeF4
	CodeF5
	CodeF6
	CodeF7
	CodeF8
	CodeF9
	CodeF10
	CodeF11
	CodeF12
)

// Character codes for keys that are plain control characters.
const (
	CodeTab       Code = '\t'
	CodeEnter     Code = '\r'
	CodeEscape    Code = 0x1b
	CodeBackspace Code = 0x7f
)

// Event is a normalized input event.
type Event struct {
	Code  Code
	Phase Phase
}

// Key returns a press event for c.
func Key(c Code) Event { return Event{Code: c, Phase: Press} }

// Rune returns the character for character codes.
func (c Code) Rune() (rune, bool) {
	base := c &^ ModAlt
	if base < 0 || base >= namedBase {
		return 0, false
	}
	return rune(base), true
}

// Named reports whether c is a named (non-character) code.
func (c Code) Named() bool {
	base := c &^ ModAlt
	return base >= namedBase && base <= CodeF12
}

// Alt reports whether the Alt bit is set.
func (c Code) Alt() bool { return c&ModAlt != 0 }

var namedStrings = map[Code]string{
	CodeUp: "up", CodeDown: "down", CodeLeft: "left", CodeRight: "right",
	CodeUpLeft: "up-left", CodeUpRight: "up-right",
	CodeDownLeft: "down-left", CodeDownRight: "down-right",
	CodeCenter: "center", CodeHome: "home", CodeEnd: "end",
	CodePageUp: "pgup", CodePageDown: "pgdn",
	CodeInsert: "insert", CodeDelete: "delete", CodeBacktab: "backtab",
}

func (c Code) String() string {
	prefix := ""
	if c.Alt() {
		prefix = "alt+"
	}
	base := c &^ ModAlt
	if s, ok := namedStrings[base]; ok {
		return prefix + s
	}
	if base >= CodeF1 && base <= CodeF12 {
		return fmt.Sprintf("%sf%d", prefix, base-CodeF1+1)
	}
	switch base {
	case CodeTab:
		return prefix + "tab"
	case CodeEnter:
		return prefix + "enter"
	case CodeEscape:
		return prefix + "esc"
	case CodeBackspace:
		return prefix + "backspace"
	}
	if base >= 0 && base < 0x20 {
		return fmt.Sprintf("%sctrl+%c", prefix, rune(base)+0x60)
	}
	if r, ok := base.Rune(); ok && unicode.IsPrint(r) {
		return prefix + string(r)
	}
	return fmt.Sprintf("%s%#x", prefix, int32(base))
}

var fromTerminal = map[terminal.Key]Code{
	terminal.KeyEnter:     CodeEnter,
	terminal.KeyBackspace: CodeBackspace,
	terminal.KeyTab:       CodeTab,
	terminal.KeyBacktab:   CodeBacktab,
	terminal.KeyEscape:    CodeEscape,
	terminal.KeyUp:        CodeUp,
	terminal.KeyDown:      CodeDown,
	terminal.KeyLeft:      CodeLeft,
	terminal.KeyRight:     CodeRight,
	terminal.KeyHome:      CodeHome,
	terminal.KeyEnd:       CodeEnd,
	terminal.KeyPageUp:    CodePageUp,
	terminal.KeyPageDown:  CodePageDown,
	terminal.KeyDelete:    CodeDelete,
	terminal.KeyInsert:    CodeInsert,
	terminal.KeyF1:        CodeF1,
	terminal.KeyF2:        CodeF2,
	terminal.KeyF3:        CodeF3,
	terminal.KeyF4:        CodeF4,
	terminal.KeyF5:        CodeF5,
	terminal.KeyF6:        CodeF6,
	terminal.KeyF7:        CodeF7,
	terminal.KeyF8:        CodeF8,
	terminal.KeyF9:        CodeF9,
	terminal.KeyF10:       CodeF10,
	terminal.KeyF11:       CodeF11,
	terminal.KeyF12:       CodeF12,
}

// FromKeyEvent normalizes a terminal key event. Control chords become
// their ASCII control character. Returns false for keys with no code.
func FromKeyEvent(ev terminal.KeyEvent) (Code, bool) {
	var c Code
	switch {
	case ev.Key == terminal.KeyRune && ev.Ctrl:
		r := unicode.ToLower(ev.Rune)
		if r < '@' || r > 'z' {
			return 0, false
		}
		c = Code(r & 0x1f)
	case ev.Key == terminal.KeyRune:
		if ev.Rune == 0 {
			return 0, false
		}
		c = Code(ev.Rune)
	default:
		mapped, ok := fromTerminal[ev.Key]
		if !ok {
			return 0, false
		}
		c = mapped
	}
	if ev.Alt {
		c |= ModAlt
	}
	return c, true
}
