// Package termbuf keeps the engine's terminal contents. Bytes written to
// a Grid run through a midterm emulator; the grid adds the locking and
// change counter the presentation loop reads through, and converts
// midterm's cells into backend styles.
package termbuf

import (
	"sync"

	"github.com/muesli/termenv"
	"github.com/vito/midterm"

	"github.com/odvcencio/crawlterm/pkg/ui/backend"
)

// Cell is one character cell.
type Cell struct {
	R     rune
	Style backend.Style
}

// Grid is a fixed-size terminal screen.
type Grid struct {
	mu         sync.RWMutex
	vt         *midterm.Terminal
	rows, cols int
	version    uint64
}

// New creates a blank grid.
func New(rows, cols int) *Grid {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	return &Grid{vt: midterm.NewTerminal(rows, cols), rows: rows, cols: cols}
}

// Write feeds terminal output to the emulator. It never fails.
func (g *Grid) Write(p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(p) == 0 {
		return 0, nil
	}
	n, err := g.vt.Write(p)
	g.version++
	return n, err
}

// WriteString is Write for strings.
func (g *Grid) WriteString(s string) (int, error) {
	return g.Write([]byte(s))
}

// Size returns rows and columns.
func (g *Grid) Size() (rows, cols int) {
	return g.rows, g.cols
}

// Version increases with every change.
func (g *Grid) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// Cursor returns the cursor position and visibility.
func (g *Grid) Cursor() (x, y int, visible bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.vt.Cursor.X, g.vt.Cursor.Y, g.vt.CursorVisible
}

// Cell returns the cell at (x, y). Out of range yields a blank.
func (g *Grid) Cell(x, y int) Cell {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cellLocked(x, y)
}

func (g *Grid) cellLocked(x, y int) Cell {
	if x < 0 || y < 0 || x >= g.cols || y >= g.rows {
		return Cell{R: ' ', Style: backend.DefaultStyle()}
	}
	return Cell{R: g.runeLocked(x, y), Style: styleOf(g.formatLocked(x, y))}
}

func (g *Grid) runeLocked(x, y int) rune {
	if y >= len(g.vt.Content) || x >= len(g.vt.Content[y]) {
		return ' '
	}
	if r := g.vt.Content[y][x]; r != 0 {
		return r
	}
	return ' '
}

// formatLocked walks the run-length regions midterm keeps per row.
func (g *Grid) formatLocked(x, y int) midterm.Format {
	rows := g.vt.Format.Rows
	if y >= len(rows) {
		return midterm.Format{}
	}
	pos := 0
	for region := rows[y]; region != nil; region = region.Next {
		if x < pos+region.Size {
			return region.F
		}
		pos += region.Size
	}
	return midterm.Format{}
}

// Line returns row y as a string.
func (g *Grid) Line(y int) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if y < 0 || y >= g.rows {
		return ""
	}
	buf := make([]rune, g.cols)
	for x := range buf {
		buf[x] = g.runeLocked(x, y)
	}
	return string(buf)
}

// Reset clears the screen and emulator state.
func (g *Grid) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vt = midterm.NewTerminal(g.rows, g.cols)
	g.version++
}

func styleOf(f midterm.Format) backend.Style {
	st := backend.DefaultStyle().
		Foreground(colorOf(f.Fg)).
		Background(colorOf(f.Bg))
	if f.IsBold() {
		st = st.With(backend.AttrBold, true)
	}
	if f.IsFaint() {
		st = st.With(backend.AttrDim, true)
	}
	if f.IsUnderline() {
		st = st.With(backend.AttrUnderline, true)
	}
	if f.IsReverse() {
		st = st.With(backend.AttrReverse, true)
	}
	return st
}

func colorOf(c termenv.Color) backend.Color {
	switch c := c.(type) {
	case termenv.ANSIColor:
		return backend.Color(c)
	case termenv.ANSI256Color:
		return backend.Color(c)
	case termenv.RGBColor:
		r, g, b := termenv.ConvertToRGB(c).RGB255()
		return backend.ColorRGB(r, g, b)
	}
	return backend.ColorDefault
}
