package terminal

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SpinnerFrames are the default spinner animation frames.
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a single status line while a blocking call runs.
type Spinner struct {
	out       io.Writer
	message   string
	frames    []string
	current   int
	interval  time.Duration
	done      chan struct{}
	stopped   sync.Once
	wg        sync.WaitGroup
	mu        sync.Mutex
	style     lipgloss.Style
	startTime time.Time
}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer, message string) *Spinner {
	return &Spinner{
		out:      out,
		message:  message,
		frames:   SpinnerFrames,
		interval: 80 * time.Millisecond,
		done:     make(chan struct{}),
		style:    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#5599FF"}),
	}
}

// SetMessage updates the spinner message.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.startTime = time.Now()
	s.wg.Add(1)
	go s.run()
}

func (s *Spinner) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			frame := s.frames[s.current%len(s.frames)]
			s.current++
			msg := s.message
			s.mu.Unlock()
			fmt.Fprintf(s.out, "\r%s %s", s.style.Render(frame), msg)
		}
	}
}

// Elapsed returns the time since Start.
func (s *Spinner) Elapsed() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// Stop ends the animation and prints final in place of the spinner line.
// An empty final just clears the line.
func (s *Spinner) Stop(final string) {
	s.stopped.Do(func() {
		close(s.done)
		s.wg.Wait()
		if final == "" {
			fmt.Fprint(s.out, "\r\033[K")
			return
		}
		fmt.Fprintf(s.out, "\r\033[K%s\n", final)
	})
}

// WithSpinner runs fn with a spinner on out.
func WithSpinner[T any](out io.Writer, message string, fn func() (T, error)) (T, error) {
	s := NewSpinner(out, message)
	s.Start()
	result, err := fn()
	elapsed := s.Elapsed().Round(time.Millisecond)
	if err != nil {
		s.Stop(fmt.Sprintf("✗ %s: %v", message, err))
	} else {
		s.Stop(fmt.Sprintf("✓ %s (%s)", message, elapsed))
	}
	return result, err
}
