package termbuf

import "github.com/odvcencio/crawlterm/pkg/ui/backend"

// Viewport is the visible window onto a grid.
type Viewport struct {
	X, Y int
}

// Draw paints the grid onto target starting at the viewport origin.
// Cells outside the grid are painted blank. It returns the cursor
// position on target, or ok=false when the cursor is hidden or off view.
func (g *Grid) Draw(target backend.RenderTarget, vp Viewport) (cx, cy int, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	w, h := target.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := g.cellLocked(vp.X+x, vp.Y+y)
			target.SetContent(x, y, c.R, nil, c.Style)
		}
	}

	if !g.vt.CursorVisible {
		return 0, 0, false
	}
	cx, cy = min(g.vt.Cursor.X, g.cols-1)-vp.X, g.vt.Cursor.Y-vp.Y
	if cx < 0 || cy < 0 || cx >= w || cy >= h {
		return 0, 0, false
	}
	return cx, cy, true
}
