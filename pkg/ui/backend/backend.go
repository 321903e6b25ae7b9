// Package backend defines the terminal backend interface the presentation
// layer renders to. The tcell implementation drives real terminals; the
// sim implementation wraps tcell's simulation screen for tests.
package backend

import "github.com/odvcencio/crawlterm/pkg/ui/terminal"

// Backend is the terminal abstraction layer.
type Backend interface {
	// Init enters raw mode and the alternate screen.
	Init() error

	// Fini restores the terminal.
	Fini()

	// Size returns the current terminal dimensions.
	Size() (width, height int)

	// SetContent sets a cell at position (x, y).
	SetContent(x, y int, mainc rune, comb []rune, style Style)

	// Show synchronizes the internal buffer to the terminal.
	Show()

	// Clear clears the screen.
	Clear()

	// HideCursor hides the terminal cursor.
	HideCursor()

	// SetCursorPos shows the cursor at the given position.
	SetCursorPos(x, y int)

	// PollEvent blocks until an event is available.
	// Returns nil once the backend is finalized.
	PollEvent() terminal.Event

	// PostEvent injects an event into the event queue.
	PostEvent(ev terminal.Event) error

	// Beep emits an audible bell.
	Beep()

	// Sync forces a full redraw on next Show().
	Sync()
}

// RenderTarget is the subset of Backend used for drawing.
type RenderTarget interface {
	Size() (width, height int)
	SetContent(x, y int, mainc rune, comb []rune, style Style)
}

// SubTarget wraps a RenderTarget with an offset and clip rectangle.
type SubTarget struct {
	parent  RenderTarget
	offsetX int
	offsetY int
	width   int
	height  int
}

// NewSubTarget creates a sub-region of a RenderTarget.
func NewSubTarget(parent RenderTarget, x, y, w, h int) *SubTarget {
	return &SubTarget{
		parent:  parent,
		offsetX: x,
		offsetY: y,
		width:   w,
		height:  h,
	}
}

// Size returns the sub-target dimensions.
func (s *SubTarget) Size() (width, height int) {
	return s.width, s.height
}

// SetContent sets content relative to the sub-target, clipping outside cells.
func (s *SubTarget) SetContent(x, y int, mainc rune, comb []rune, style Style) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	s.parent.SetContent(s.offsetX+x, s.offsetY+y, mainc, comb, style)
}

// Contains reports whether the absolute point lies inside the sub-target.
func (s *SubTarget) Contains(x, y int) bool {
	return x >= s.offsetX && x < s.offsetX+s.width && y >= s.offsetY && y < s.offsetY+s.height
}

// Local converts absolute coordinates into sub-target coordinates.
func (s *SubTarget) Local(x, y int) (int, int) {
	return x - s.offsetX, y - s.offsetY
}

// Fill paints every cell of the sub-target with r.
func (s *SubTarget) Fill(r rune, style Style) {
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			s.SetContent(x, y, r, nil, style)
		}
	}
}
