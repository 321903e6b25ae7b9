package termbuf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/crawlterm/pkg/ui/backend"
	"github.com/odvcencio/crawlterm/pkg/ui/backend/sim"
)

func line(g *Grid, y int) string {
	return strings.TrimRight(g.Line(y), " ")
}

func TestGrid_PlainTextAndNewlines(t *testing.T) {
	g := New(3, 10)
	g.WriteString("hello\r\nworld")
	assert.Equal(t, "hello", line(g, 0))
	assert.Equal(t, "world", line(g, 1))
	x, y, _ := g.Cursor()
	assert.Equal(t, 5, x)
	assert.Equal(t, 1, y)
}

func TestGrid_WrapAndScroll(t *testing.T) {
	g := New(2, 4)
	g.WriteString("abcdefgh")
	assert.Equal(t, "abcd", line(g, 0))
	assert.Equal(t, "efgh", line(g, 1))

	g.WriteString("ij")
	assert.Equal(t, "efgh", line(g, 0), "screen scrolls up")
	assert.Equal(t, "ij", line(g, 1))
}

func TestGrid_CursorAddressingAndErase(t *testing.T) {
	g := New(5, 20)
	g.WriteString("\x1b[3;5H@")
	assert.Equal(t, "    @", line(g, 2))

	g.WriteString("\x1b[1;1Hxxxxxx\x1b[1;3H\x1b[K")
	assert.Equal(t, "xx", line(g, 0))

	g.WriteString("\x1b[2J")
	for y := 0; y < 5; y++ {
		assert.Empty(t, line(g, y))
	}
}

func TestGrid_RelativeMoves(t *testing.T) {
	g := New(5, 10)
	g.WriteString("\x1b[3B\x1b[4C#\x1b[2A\x1b[3D*")
	assert.Equal(t, "  *", line(g, 1))
	assert.Equal(t, "    #", line(g, 3))
}

func TestGrid_SGR(t *testing.T) {
	g := New(1, 10)
	g.WriteString("\x1b[1;31mR\x1b[0mN\x1b[38;5;200mP\x1b[48;2;1;2;3mT")

	fg, _, attrs := g.Cell(0, 0).Style.Decompose()
	assert.Equal(t, backend.ColorRed, fg)
	assert.NotZero(t, attrs&backend.AttrBold)

	fg, _, attrs = g.Cell(1, 0).Style.Decompose()
	assert.Equal(t, backend.ColorDefault, fg)
	assert.Zero(t, attrs)

	fg, _, _ = g.Cell(2, 0).Style.Decompose()
	assert.Equal(t, backend.Color(200), fg)

	_, bg, _ := g.Cell(3, 0).Style.Decompose()
	assert.True(t, bg.IsRGB())
	r, gg, b := bg.RGB()
	assert.Equal(t, [3]uint8{1, 2, 3}, [3]uint8{r, gg, b})
}

func TestGrid_CursorVisibility(t *testing.T) {
	g := New(2, 5)
	g.WriteString("\x1b[?25lab")
	_, _, visible := g.Cursor()
	assert.False(t, visible)

	g.WriteString("\x1b[?25h")
	_, _, visible = g.Cursor()
	assert.True(t, visible)
}

func TestGrid_ResetClearsScreen(t *testing.T) {
	g := New(2, 5)
	g.WriteString("ab\x1b[1;31mc")

	v := g.Version()
	g.Reset()
	assert.Greater(t, g.Version(), v)
	assert.Empty(t, line(g, 0))
	fg, _, attrs := g.Cell(2, 0).Style.Decompose()
	assert.Equal(t, backend.ColorDefault, fg)
	assert.Zero(t, attrs)
	x, y, _ := g.Cursor()
	assert.Zero(t, x+y)
}

func TestGrid_EmptyWriteKeepsVersion(t *testing.T) {
	g := New(1, 5)
	v := g.Version()
	n, err := g.Write(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, v, g.Version())
}

func TestGrid_CellOutOfRange(t *testing.T) {
	g := New(2, 2)
	assert.Equal(t, ' ', g.Cell(-1, 0).R)
	assert.Equal(t, ' ', g.Cell(0, 5).R)
	assert.Empty(t, g.Line(9))
}

func TestGrid_DrawWithViewport(t *testing.T) {
	s := sim.New(4, 2)
	require.NoError(t, s.Init())
	defer s.Fini()

	g := New(3, 8)
	g.WriteString("01234567\r\nabcdefgh\r\nABCDEFGH")

	cx, cy, ok := g.Draw(s, Viewport{X: 2, Y: 1})
	s.Show()
	assert.Equal(t, "cdef", s.Line(0))
	assert.Equal(t, "CDEF", s.Line(1))
	assert.False(t, ok, "cursor at column 8 is off view")
	assert.Zero(t, cx+cy)

	g.Draw(s, Viewport{X: 6, Y: 2})
	s.Show()
	assert.Equal(t, "GH", s.Line(0))
}
