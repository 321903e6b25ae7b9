package input

// namedSequences are the byte sequences an xterm-compatible terminal
// sends for named keys. Diagonals and center use the vi movement keys
// most console roguelikes accept.
var namedSequences = map[Code]string{
	CodeUp:        "\x1b[A",
	CodeDown:      "\x1b[B",
	CodeRight:     "\x1b[C",
	CodeLeft:      "\x1b[D",
	CodeUpLeft:    "y",
	CodeUpRight:   "u",
	CodeDownLeft:  "b",
	CodeDownRight: "n",
	CodeCenter:    ".",
	CodeHome:      "\x1b[H",
	CodeEnd:       "\x1b[F",
	CodePageUp:    "\x1b[5~",
	CodePageDown:  "\x1b[6~",
	CodeInsert:    "\x1b[2~",
	CodeDelete:    "\x1b[3~",
	CodeBacktab:   "\x1b[Z",
	CodeF1:        "\x1bOP",
	CodeF2:        "\x1bOQ",
	CodeF3:        "\x1bOR",
	CodeF4:        "\x1bOS",
	CodeF5:        "\x1b[15~",
	CodeF6:        "\x1b[17~",
	CodeF7:        "\x1b[18~",
	CodeF8:        "\x1b[19~",
	CodeF9:        "\x1b[20~",
	CodeF10:       "\x1b[21~",
	CodeF11:       "\x1b[23~",
	CodeF12:       "\x1b[24~",
}

// Bytes encodes c as terminal input. Release events encode to nothing.
func (e Event) Bytes() []byte {
	if e.Phase != Press {
		return nil
	}
	return e.Code.Bytes()
}

// Bytes encodes c the way a terminal would send it.
func (c Code) Bytes() []byte {
	var out []byte
	if c.Alt() {
		out = append(out, 0x1b)
	}
	base := c &^ ModAlt
	if seq, ok := namedSequences[base]; ok {
		return append(out, seq...)
	}
	if r, ok := base.Rune(); ok {
		return append(out, string(r)...)
	}
	return nil
}
