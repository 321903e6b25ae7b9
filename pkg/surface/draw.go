package surface

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/odvcencio/crawlterm/pkg/dialog"
	"github.com/odvcencio/crawlterm/pkg/prefs"
	"github.com/odvcencio/crawlterm/pkg/ui/backend"
)

// drawText writes s at (x, y) and returns the column after it.
func drawText(target backend.RenderTarget, x, y int, s string, style backend.Style) int {
	w, _ := target.Size()
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if x+rw > w {
			break
		}
		target.SetContent(x, y, r, nil, style)
		x += rw
	}
	return x
}

// Draw paints the whole surface. It returns the terminal cursor
// position on target when it should be shown.
func (s *Surface) Draw(target backend.RenderTarget) (cx, cy int, cursor bool) {
	s.dirty = false

	if !s.term.empty() {
		view := backend.NewSubTarget(target, s.term.x, s.term.y, s.term.w, s.term.h)
		if x, y, ok := s.cfg.Grid.Draw(view, s.pan); ok {
			cx, cy, cursor = s.term.x+x, s.term.y+y, true
		}
	}
	if s.dpad != nil {
		s.dpad.Draw(backend.NewSubTarget(target, s.dpadRect.x, s.dpadRect.y, s.dpadRect.w, s.dpadRect.h))
	}
	if s.keyboard != nil && !s.kbd.empty() {
		s.keyboard.Draw(backend.NewSubTarget(target, s.kbd.x, s.kbd.y, s.kbd.w, s.kbd.h))
	}
	if !s.status.empty() {
		s.drawStatus(backend.NewSubTarget(target, s.status.x, s.status.y, s.status.w, s.status.h))
	}
	if d, ok := s.cfg.Dialogs.Current(); ok {
		drawDialog(target, d)
		cursor = false
	}
	return cx, cy, cursor
}

// StatusText returns the status line contents.
func (s *Surface) StatusText() string {
	title := s.cfg.Title
	if title == "" {
		title = "crawlterm"
	}
	parts := []string{title, string(s.cfg.Class), "kbd:" + string(s.cfg.Keyboard)}
	if s.cfg.Locked {
		parts = append(parts, "locked")
	} else if s.pan.X != 0 || s.pan.Y != 0 {
		parts = append(parts, fmt.Sprintf("pan %d,%d", s.pan.X, s.pan.Y))
	}
	if s.keyboard != nil {
		if shift, ctrl := s.keyboard.Latched(); shift || ctrl {
			parts = append(parts, latchText(shift, ctrl))
		}
	}
	parts = append(parts, "F1 help  F2 prefs  F6 kbd  ^F menu")
	return " " + strings.Join(parts, " | ")
}

func latchText(shift, ctrl bool) string {
	switch {
	case shift && ctrl:
		return "shift+ctrl"
	case shift:
		return "shift"
	default:
		return "ctrl"
	}
}

func (s *Surface) drawStatus(target backend.RenderTarget) {
	w, _ := target.Size()
	style := backend.DefaultStyle().Reverse(true)
	end := drawText(target, 0, 0, runewidth.Truncate(s.StatusText(), w, "…"), style)
	for x := end; x < w; x++ {
		target.SetContent(x, 0, ' ', nil, style)
	}
}

func optionText(d dialog.Dialog) string {
	var parts []string
	for _, o := range d.Options {
		key := string(o.Key)
		switch o.Key {
		case '\r':
			key = "Enter"
		case 0x1b:
			key = "Esc"
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", key, o.Label))
	}
	return strings.Join(parts, "  ")
}

func drawDialog(target backend.RenderTarget, d dialog.Dialog) {
	w, h := target.Size()
	body := append([]string{}, d.Lines...)
	if opts := optionText(d); opts != "" {
		body = append(body, "", opts)
	}

	inner := runewidth.StringWidth(d.Title) + 2
	for _, l := range body {
		inner = max(inner, runewidth.StringWidth(l))
	}
	inner = min(inner, max(w-4, 1))
	bw, bh := inner+4, min(len(body)+2, h)
	x0, y0 := max((w-bw)/2, 0), max((h-bh)/2, 0)

	frame := backend.DefaultStyle().Foreground(backend.ColorBrightWhite).Background(backend.ColorBlue)
	box := backend.NewSubTarget(target, x0, y0, bw, bh)
	box.Fill(' ', frame)
	for x := 1; x < bw-1; x++ {
		box.SetContent(x, 0, '─', nil, frame)
		box.SetContent(x, bh-1, '─', nil, frame)
	}
	for y := 1; y < bh-1; y++ {
		box.SetContent(0, y, '│', nil, frame)
		box.SetContent(bw-1, y, '│', nil, frame)
	}
	box.SetContent(0, 0, '┌', nil, frame)
	box.SetContent(bw-1, 0, '┐', nil, frame)
	box.SetContent(0, bh-1, '└', nil, frame)
	box.SetContent(bw-1, bh-1, '┘', nil, frame)

	if d.Title != "" {
		drawText(box, 2, 0, " "+runewidth.Truncate(d.Title, inner-2, "…")+" ", frame.Bold(true))
	}
	for i, l := range body {
		if i+1 >= bh-1 {
			break
		}
		drawText(box, 2, i+1, runewidth.Truncate(l, inner, "…"), frame)
	}
}

// ClassFor derives the orientation class from a requested orientation
// and the screen size. Sensor mode follows the aspect ratio, counting a
// cell as twice as tall as it is wide.
func ClassFor(o prefs.Orientation, width, height int) prefs.Class {
	switch o {
	case prefs.OrientationPortrait:
		return prefs.ClassPortrait
	case prefs.OrientationLandscape:
		return prefs.ClassLandscape
	}
	if height*2 > width {
		return prefs.ClassPortrait
	}
	return prefs.ClassLandscape
}
