package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Transcript keeps a readable account of play across sessions: one
// header per launch, then the dialogs the game showed and how each
// launch ended. Files roll over daily as transcript-YYYY-MM-DD.log.
type Transcript struct {
	dir     string
	file    *os.File
	path    string
	mu      sync.Mutex
	lastDay string
	now     func() time.Time
}

// NewTranscript opens today's transcript in dir.
func NewTranscript(dir string) (*Transcript, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	t := &Transcript{dir: dir, now: time.Now}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.rotateLocked(); err != nil {
		return nil, err
	}
	return t, nil
}

// Begin writes the header for a launch.
func (t *Transcript) Begin(sessionID, game string) error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkDayLocked(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(t.file, "\n=== [%s] session=%s game=%s ===\n", t.now().Format("15:04:05"), sessionID, game)
	return err
}

// Write appends one timestamped entry. Multi-line text is indented
// under the timestamp.
func (t *Transcript) Write(text string) error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkDayLocked(); err != nil {
		return err
	}
	text = strings.ReplaceAll(strings.TrimRight(text, "\n"), "\n", "\n           ")
	_, err := fmt.Fprintf(t.file, "[%s] %s\n", t.now().Format("15:04:05"), text)
	return err
}

// Path returns the current transcript file.
func (t *Transcript) Path() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.path
}

// Close closes the transcript file.
func (t *Transcript) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file != nil {
		err := t.file.Close()
		t.file = nil
		return err
	}
	return nil
}

func (t *Transcript) checkDayLocked() error {
	if t.now().Format("2006-01-02") != t.lastDay || t.file == nil {
		return t.rotateLocked()
	}
	return nil
}

func (t *Transcript) rotateLocked() error {
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}
	today := t.now().Format("2006-01-02")
	t.lastDay = today
	t.path = filepath.Join(t.dir, "transcript-"+today+".log")

	file, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	t.file = file
	return nil
}
