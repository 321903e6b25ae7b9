package surface

import (
	"github.com/odvcencio/crawlterm/pkg/input"
	"github.com/odvcencio/crawlterm/pkg/termbuf"
	"github.com/odvcencio/crawlterm/pkg/ui/terminal"
)

// HandleEvent routes a terminal event. A detached surface consumes
// nothing.
func (s *Surface) HandleEvent(ev terminal.Event) Result {
	if !s.Attached() {
		return Result{}
	}
	switch e := ev.(type) {
	case terminal.KeyEvent:
		return s.handleKey(e)
	case terminal.MouseEvent:
		return s.handleMouse(e)
	case terminal.PasteEvent:
		return s.handlePaste(e)
	}
	return Result{}
}

func (s *Surface) send(code input.Code) bool {
	if s.cfg.Keys == nil {
		return false
	}
	if !s.cfg.Keys.OnKeyFrom(s.cfg.ID, code, input.Press) {
		return false
	}
	s.cfg.Keys.OnKeyFrom(s.cfg.ID, code, input.Release)
	return true
}

func dialogKey(ev terminal.KeyEvent) rune {
	switch ev.Key {
	case terminal.KeyRune:
		if ev.Ctrl {
			return 0
		}
		return ev.Rune
	case terminal.KeyEnter:
		return '\r'
	case terminal.KeyEscape:
		return 0x1b
	}
	return 0
}

func (s *Surface) answerDialog(r rune) Result {
	s.dirty = true
	opt, ok := s.cfg.Dialogs.Answer(r)
	if !ok {
		return Result{Consumed: true}
	}
	if opt.Action != "" {
		return Result{Consumed: true, Action: Action(opt.Action)}
	}
	s.send(input.Code(opt.Key))
	return Result{Consumed: true}
}

func (s *Surface) handleKey(ev terminal.KeyEvent) Result {
	if _, open := s.cfg.Dialogs.Current(); open {
		return s.answerDialog(dialogKey(ev))
	}
	if ev.Shift && !ev.Ctrl && !ev.Alt && !s.cfg.Locked {
		if dx, dy, ok := panDelta(ev.Key); ok {
			s.panBy(dx, dy)
			return Result{Consumed: true}
		}
	}
	if s.cfg.Keys == nil {
		return Result{}
	}
	return Result{Consumed: s.cfg.Keys.OnTerminalKey(s.cfg.ID, ev)}
}

func (s *Surface) handlePaste(ev terminal.PasteEvent) Result {
	if _, open := s.cfg.Dialogs.Current(); open {
		return Result{Consumed: true}
	}
	sent := false
	for _, r := range ev.Text {
		if r == '\n' {
			r = '\r'
		}
		sent = s.send(input.Code(r)) || sent
	}
	return Result{Consumed: sent}
}

func (s *Surface) handleMouse(ev terminal.MouseEvent) Result {
	if _, open := s.cfg.Dialogs.Current(); open {
		return Result{Consumed: true}
	}

	if ev.Action == terminal.MousePress && ev.Button == terminal.MouseLeft {
		if s.keyboard != nil && s.kbd.contains(ev.X, ev.Y) {
			code, hit, send := s.keyboard.Press(ev.X-s.kbd.x, ev.Y-s.kbd.y)
			if hit {
				s.dirty = true
				s.feedback()
			}
			if send {
				s.send(code)
			}
			return Result{Consumed: hit}
		}
		if s.dpad != nil && s.dpadRect.contains(ev.X, ev.Y) {
			if code, ok := s.dpad.Hit(ev.X-s.dpadRect.x, ev.Y-s.dpadRect.y); ok {
				s.feedback()
				s.send(code)
				return Result{Consumed: true}
			}
		}
	}

	if !s.term.contains(ev.X, ev.Y) && s.drag == nil {
		return Result{}
	}

	switch {
	case ev.Button == terminal.MouseWheelUp:
		return Result{Consumed: s.panBy(0, -1)}
	case ev.Button == terminal.MouseWheelDown:
		return Result{Consumed: s.panBy(0, 1)}
	case ev.Action == terminal.MousePress && ev.Button == terminal.MouseLeft:
		if s.cfg.Locked {
			return Result{}
		}
		s.drag = &drag{x: ev.X, y: ev.Y, pan: s.pan}
		return Result{Consumed: true}
	case ev.Action == terminal.MouseMove && s.drag != nil:
		d := s.drag
		target := s.clampPan(termbuf.Viewport{X: d.pan.X - (ev.X - d.x), Y: d.pan.Y - (ev.Y - d.y)})
		if target != s.pan {
			s.pan = target
			s.dirty = true
		}
		return Result{Consumed: true}
	case ev.Action == terminal.MouseRelease && s.drag != nil:
		s.drag = nil
		return Result{Consumed: true}
	}
	return Result{}
}

func panDelta(k terminal.Key) (dx, dy int, ok bool) {
	switch k {
	case terminal.KeyUp:
		return 0, -1, true
	case terminal.KeyDown:
		return 0, 1, true
	case terminal.KeyLeft:
		return -1, 0, true
	case terminal.KeyRight:
		return 1, 0, true
	}
	return 0, 0, false
}
