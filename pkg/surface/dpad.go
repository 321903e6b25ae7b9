package surface

import (
	"github.com/odvcencio/crawlterm/pkg/input"
	"github.com/odvcencio/crawlterm/pkg/ui/backend"
)

const (
	dpadCellW = 3
	dpadW     = 3 * dpadCellW
	dpadH     = 3
)

var dpadCodes = [3][3]input.Code{
	{input.CodeUpLeft, input.CodeUp, input.CodeUpRight},
	{input.CodeLeft, input.CodeCenter, input.CodeRight},
	{input.CodeDownLeft, input.CodeDown, input.CodeDownRight},
}

var dpadGlyphs = [3][3]rune{
	{'↖', '↑', '↗'},
	{'←', '·', '→'},
	{'↙', '↓', '↘'},
}

// DPad is the directional overlay drawn over the terminal view.
type DPad struct{}

// Hit maps a local position to a direction code.
func (DPad) Hit(x, y int) (input.Code, bool) {
	if x < 0 || y < 0 || x >= dpadW || y >= dpadH {
		return 0, false
	}
	return dpadCodes[y][x/dpadCellW], true
}

// Draw paints the overlay onto target.
func (DPad) Draw(target backend.RenderTarget) {
	style := backend.DefaultStyle().Foreground(backend.ColorYellow).Dim(true)
	for row := 0; row < dpadH; row++ {
		for col := 0; col < 3; col++ {
			x := col * dpadCellW
			target.SetContent(x, row, ' ', nil, style)
			target.SetContent(x+1, row, dpadGlyphs[row][col], nil, style)
			target.SetContent(x+2, row, ' ', nil, style)
		}
	}
}
