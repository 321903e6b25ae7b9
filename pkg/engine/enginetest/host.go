// Package enginetest provides an in-memory engine.Host for engine tests.
package enginetest

import (
	"bytes"
	"context"
	"sync"

	"github.com/odvcencio/crawlterm/pkg/engine"
	"github.com/odvcencio/crawlterm/pkg/fifo"
	"github.com/odvcencio/crawlterm/pkg/input"
	"github.com/odvcencio/crawlterm/pkg/message"
)

// Host records posted messages and feeds queued input.
type Host struct {
	Rows, Cols int

	inputs  *fifo.Queue[input.Event]
	stopped chan struct{}
	once    sync.Once

	mu     sync.Mutex
	posts  []message.Message
	posted chan struct{}
}

// NewHost creates a host reporting a rows x cols terminal.
func NewHost(rows, cols int) *Host {
	return &Host{
		Rows:    rows,
		Cols:    cols,
		inputs:  fifo.New[input.Event](),
		stopped: make(chan struct{}),
		posted:  make(chan struct{}, 1),
	}
}

// Press queues a press and release of each code.
func (h *Host) Press(codes ...input.Code) {
	for _, c := range codes {
		h.inputs.Push(input.Event{Code: c, Phase: input.Press})
		h.inputs.Push(input.Event{Code: c, Phase: input.Release})
	}
}

// Stop makes NextInput return engine.ErrStopped.
func (h *Host) Stop() {
	h.once.Do(func() { close(h.stopped) })
}

// NextInput implements engine.Host.
func (h *Host) NextInput(ctx context.Context) (input.Event, error) {
	for {
		select {
		case <-h.stopped:
			return input.Event{}, engine.ErrStopped
		default:
		}
		if ev, ok := h.inputs.TryPop(); ok {
			return ev, nil
		}
		select {
		case <-h.inputs.Ready():
		case <-h.stopped:
		case <-ctx.Done():
			return input.Event{}, ctx.Err()
		}
	}
}

// TryInput implements engine.Host.
func (h *Host) TryInput() (input.Event, bool) {
	return h.inputs.TryPop()
}

// Post implements engine.Host.
func (h *Host) Post(msg message.Message) {
	h.mu.Lock()
	h.posts = append(h.posts, msg)
	h.mu.Unlock()
	select {
	case h.posted <- struct{}{}:
	default:
	}
}

// Size implements engine.Host.
func (h *Host) Size() (rows, cols int) { return h.Rows, h.Cols }

// Posted wakes after each Post.
func (h *Host) Posted() <-chan struct{} { return h.posted }

// Messages returns everything posted so far.
func (h *Host) Messages() []message.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]message.Message(nil), h.posts...)
}

// Output concatenates every posted Output.
func (h *Host) Output() []byte {
	var buf bytes.Buffer
	for _, m := range h.Messages() {
		if out, ok := m.(message.Output); ok {
			buf.Write(out.Data)
		}
	}
	return buf.Bytes()
}

// Dialogs returns the posted DialogShow messages.
func (h *Host) Dialogs() []message.DialogShow {
	var out []message.DialogShow
	for _, m := range h.Messages() {
		if d, ok := m.(message.DialogShow); ok {
			out = append(out, d)
		}
	}
	return out
}

// Exited returns the EngineExited message if one was posted.
func (h *Host) Exited() (message.EngineExited, bool) {
	for _, m := range h.Messages() {
		if e, ok := m.(message.EngineExited); ok {
			return e, true
		}
	}
	return message.EngineExited{}, false
}

var _ engine.Host = (*Host)(nil)
