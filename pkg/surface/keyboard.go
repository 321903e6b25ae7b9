package surface

import (
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/odvcencio/crawlterm/pkg/input"
	"github.com/odvcencio/crawlterm/pkg/ui/backend"
)

type keyKind int

const (
	keyChar keyKind = iota
	keyShift
	keyCtrl
)

// Key is one on-screen key.
type Key struct {
	Label string
	Code  input.Code
	kind  keyKind
}

func charKeys(s string) []Key {
	keys := make([]Key, 0, len(s))
	for _, r := range s {
		keys = append(keys, Key{Label: string(r), Code: input.Code(r)})
	}
	return keys
}

// DefaultKeys is the custom keyboard layout in flow order.
func DefaultKeys() []Key {
	var keys []Key
	keys = append(keys, Key{Label: "Esc", Code: input.CodeEscape})
	keys = append(keys, charKeys("1234567890")...)
	keys = append(keys, Key{Label: "Tab", Code: input.CodeTab})
	keys = append(keys, charKeys("qwertyuiop")...)
	keys = append(keys, Key{Label: "^", kind: keyCtrl})
	keys = append(keys, charKeys("asdfghjkl")...)
	keys = append(keys, Key{Label: "Sh", kind: keyShift})
	keys = append(keys, charKeys("zxcvbnm")...)
	keys = append(keys, charKeys("<>,.;:!?@#$%&*()-+=/'\"_")...)
	keys = append(keys,
		Key{Label: "Spc", Code: ' '},
		Key{Label: "Bsp", Code: input.CodeBackspace},
		Key{Label: "Ent", Code: input.CodeEnter},
	)
	return keys
}

type placedKey struct {
	Key
	x, y, w int
}

// Keyboard is the custom on-screen keyboard view. Keys flow left to
// right and wrap at the view width. Shift and Ctrl latch until the next
// character key.
type Keyboard struct {
	placed []placedKey
	width  int
	rows   int
	shift  bool
	ctrl   bool
}

func keyWidth(k Key) int {
	return runewidth.StringWidth(k.Label) + 2
}

// NewKeyboard lays keys out for a view width cells wide.
func NewKeyboard(keys []Key, width int) *Keyboard {
	kb := &Keyboard{width: width}
	x, y := 0, 0
	for _, k := range keys {
		w := keyWidth(k)
		if x > 0 && x+w > width {
			x = 0
			y++
		}
		kb.placed = append(kb.placed, placedKey{Key: k, x: x, y: y, w: w})
		x += w
	}
	if len(kb.placed) > 0 {
		kb.rows = y + 1
	}
	return kb
}

// Rows returns the number of rows the layout needs.
func (kb *Keyboard) Rows() int { return kb.rows }

// Latched reports the shift and ctrl latches.
func (kb *Keyboard) Latched() (shift, ctrl bool) { return kb.shift, kb.ctrl }

// Press resolves a press at local (x, y). It returns the code to send,
// whether a key was hit at all, and whether a code should be sent.
func (kb *Keyboard) Press(x, y int) (code input.Code, hit, send bool) {
	for _, p := range kb.placed {
		if y != p.y || x < p.x || x >= p.x+p.w {
			continue
		}
		switch p.kind {
		case keyShift:
			kb.shift = !kb.shift
			return 0, true, false
		case keyCtrl:
			kb.ctrl = !kb.ctrl
			return 0, true, false
		}
		return kb.apply(p.Code), true, true
	}
	return 0, false, false
}

func (kb *Keyboard) apply(code input.Code) input.Code {
	defer func() { kb.shift, kb.ctrl = false, false }()
	r, ok := code.Rune()
	if !ok || r < 'a' || r > 'z' {
		return code
	}
	if kb.ctrl {
		return input.Code(r & 0x1f)
	}
	if kb.shift {
		return input.Code(unicode.ToUpper(r))
	}
	return code
}

// Draw paints the keyboard onto target.
func (kb *Keyboard) Draw(target backend.RenderTarget) {
	w, h := target.Size()
	base := backend.DefaultStyle().Background(backend.ColorBrightBlack).Foreground(backend.ColorBrightWhite)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			target.SetContent(x, y, ' ', nil, base)
		}
	}
	for _, p := range kb.placed {
		style := base
		if (p.kind == keyShift && kb.shift) || (p.kind == keyCtrl && kb.ctrl) {
			style = style.Reverse(true)
		}
		label := p.Label
		if p.kind == keyChar && kb.shift {
			if r, ok := p.Code.Rune(); ok && r >= 'a' && r <= 'z' {
				label = string(unicode.ToUpper(r))
			}
		}
		drawText(target, p.x, p.y, "["+label+"]", style)
	}
}
