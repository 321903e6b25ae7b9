// Package sim provides a simulation backend for testing.
package sim

import (
	"strings"
	"sync"

	tcellv2 "github.com/gdamore/tcell/v2"

	"github.com/odvcencio/crawlterm/pkg/ui/backend"
	"github.com/odvcencio/crawlterm/pkg/ui/backend/tcell"
	"github.com/odvcencio/crawlterm/pkg/ui/terminal"
)

// Backend is a testable backend using tcell's simulation screen.
type Backend struct {
	*tcell.Backend
	screen tcellv2.SimulationScreen
	mu     sync.Mutex

	width, height int
	beeps         int
}

// New creates a new simulation backend with the given dimensions.
func New(width, height int) *Backend {
	screen := tcellv2.NewSimulationScreen("")
	return &Backend{
		Backend: tcell.NewWithScreen(screen),
		screen:  screen,
		width:   width,
		height:  height,
	}
}

// Init initializes the simulation screen at the configured size.
func (s *Backend) Init() error {
	if err := s.Backend.Init(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.SetSize(s.width, s.height)
	return nil
}

// Resize changes the simulation screen size without posting an event.
func (s *Backend) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.screen.SetSize(width, height)
}

// Beep records the bell instead of writing it.
func (s *Backend) Beep() {
	s.mu.Lock()
	s.beeps++
	s.mu.Unlock()
}

// Beeps returns how many times Beep was called.
func (s *Backend) Beeps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beeps
}

// InjectKey injects a key event into the simulation.
func (s *Backend) InjectKey(key terminal.Key, r rune) error {
	return s.PostEvent(terminal.KeyEvent{Key: key, Rune: r})
}

// InjectCtrl injects a control chord such as Ctrl-F.
func (s *Backend) InjectCtrl(r rune) error {
	return s.PostEvent(terminal.KeyEvent{Key: terminal.KeyRune, Rune: r, Ctrl: true})
}

// InjectKeyString injects a string as a sequence of key events.
func (s *Backend) InjectKeyString(str string) error {
	for _, r := range str {
		if err := s.InjectKey(terminal.KeyRune, r); err != nil {
			return err
		}
	}
	return nil
}

// InjectMouse injects a mouse event.
func (s *Backend) InjectMouse(x, y int, button terminal.MouseButton) error {
	return s.PostEvent(terminal.MouseEvent{X: x, Y: y, Button: button, Action: terminal.MousePress})
}

// InjectResize resizes the screen and posts the matching event.
func (s *Backend) InjectResize(width, height int) error {
	s.Resize(width, height)
	return s.PostEvent(terminal.ResizeEvent{Width: width, Height: height})
}

// Capture captures the current screen content as a string.
func (s *Backend) Capture() string {
	w, h := s.Size()
	return s.CaptureRegion(0, 0, w, h)
}

// CaptureCell returns the content and style of a single cell.
func (s *Backend) CaptureCell(x, y int) (mainc rune, style backend.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, _, tcStyle, _ := s.screen.GetContent(x, y)
	return m, tcell.StyleFromTcell(tcStyle)
}

// CaptureRegion captures a rectangular region of the screen.
func (s *Backend) CaptureRegion(x, y, w, h int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, 0, h)
	for row := y; row < y+h; row++ {
		var line strings.Builder
		for col := x; col < x+w; col++ {
			mainc, comb, _, _ := s.screen.GetContent(col, row)
			if mainc == 0 {
				mainc = ' '
			}
			line.WriteRune(mainc)
			for _, c := range comb {
				line.WriteRune(c)
			}
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// Line returns a single screen row with trailing blanks removed.
func (s *Backend) Line(row int) string {
	w, _ := s.Size()
	return strings.TrimRight(s.CaptureRegion(0, row, w, 1), " ")
}

// FindText searches for text on the screen and returns its position.
func (s *Backend) FindText(text string) (x, y int) {
	for row, line := range strings.Split(s.Capture(), "\n") {
		if col := strings.Index(line, text); col >= 0 {
			return len([]rune(line[:col])), row
		}
	}
	return -1, -1
}

// ContainsText returns true if the text appears anywhere on screen.
func (s *Backend) ContainsText(text string) bool {
	x, _ := s.FindText(text)
	return x >= 0
}

var _ backend.Backend = (*Backend)(nil)
