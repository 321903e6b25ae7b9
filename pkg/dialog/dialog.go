// Package dialog holds modal dialog state requested by the engine.
//
// The Manager outlives any single Surface: a dialog shown before a
// rebuild is still current afterwards and is drawn again on the new
// Surface until it is answered or dismissed.
package dialog

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Option is one selectable answer. Key is sent to the engine as input
// when the option is chosen, unless Action names a presentation action
// to run instead.
type Option struct {
	Key    rune   `json:"key"`
	Label  string `json:"label"`
	Action string `json:"action,omitempty"`
}

// Dialog is a modal prompt.
type Dialog struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Lines   []string `json:"lines,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// NewID returns a fresh dialog id.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// New builds a dialog with a generated id.
func New(title string, lines []string, options ...Option) Dialog {
	return Dialog{ID: NewID(), Title: title, Lines: lines, Options: options}
}

// Notice builds a dialog with a single acknowledge option.
func Notice(title string, lines ...string) Dialog {
	return New(title, lines, Option{Key: '\r', Label: "OK"})
}

// Option returns the option bound to key.
func (d Dialog) Option(key rune) (Option, bool) {
	for _, o := range d.Options {
		if o.Key == key {
			return o, true
		}
	}
	return Option{}, false
}

// Manager tracks the dialog currently in flight. Dialogs shown while
// another is open are queued behind it.
type Manager struct {
	mu      sync.Mutex
	current *Dialog
	queue   []Dialog
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Show makes d current, or queues it behind the open dialog.
// Returns true when d became current.
func (m *Manager) Show(d Dialog) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		m.current = &d
		return true
	}
	m.queue = append(m.queue, d)
	return false
}

// Current returns the open dialog.
func (m *Manager) Current() (Dialog, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Dialog{}, false
	}
	return *m.current, true
}

// Dismiss removes the dialog with id, whether open or queued.
func (m *Manager) Dismiss(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.ID == id {
		m.advanceLocked()
		return true
	}
	for i, d := range m.queue {
		if d.ID == id {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return true
		}
	}
	return false
}

// Answer resolves the open dialog with the option bound to key. Escape
// answers a dialog that has no escape option with nothing.
func (m *Manager) Answer(key rune) (Option, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Option{}, false
	}
	opt, ok := m.current.Option(key)
	if !ok {
		if key == 0x1b {
			m.advanceLocked()
		}
		return Option{}, false
	}
	m.advanceLocked()
	return opt, true
}

// Pending returns how many dialogs wait behind the open one.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Reset drops every dialog.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.queue = nil
}

func (m *Manager) advanceLocked() {
	if len(m.queue) == 0 {
		m.current = nil
		return
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	m.current = &next
}
