package session

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/odvcencio/crawlterm/pkg/input"
	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
	"github.com/odvcencio/crawlterm/pkg/ui/terminal"
)

// Router forwards key input from the attached surface to the session.
// It has no buffer: input seen while detached is dropped.
type Router struct {
	s *Session
	// dropLog keeps a key held against a stopped engine from flooding
	// the session log. Metrics still count every drop.
	dropLog rate.Sometimes
}

// NewRouter creates a router for s.
func NewRouter(s *Session) *Router {
	return &Router{s: s, dropLog: rate.Sometimes{First: 5, Interval: time.Second}}
}

// Attach binds the router to t.
func (r *Router) Attach(t Target) {
	r.s.setSurface(t)
	r.s.log.SetSurfaceID(t.ID())
	r.s.hub.Publish(telemetry.Event{Type: telemetry.EventSurfaceAttached, SessionID: r.s.id, SurfaceID: t.ID()})
}

// Detach unbinds the router.
func (r *Router) Detach() {
	prev := r.s.Surface()
	r.s.setSurface(nil)
	if prev != nil {
		r.s.hub.Publish(telemetry.Event{Type: telemetry.EventSurfaceDetached, SessionID: r.s.id, SurfaceID: prev.ID()})
	}
}

// Attached returns the id of the bound surface.
func (r *Router) Attached() (string, bool) {
	if t := r.s.Surface(); t != nil {
		return t.ID(), true
	}
	return "", false
}

// OnKey forwards an event to the engine on behalf of the attached surface.
func (r *Router) OnKey(code input.Code, phase input.Phase) bool {
	t := r.s.Surface()
	if t == nil {
		r.drop(telemetry.InputDetached, code)
		return false
	}
	return r.forward(code, phase)
}

// OnKeyFrom forwards an event raised by the surface identified by from.
// Events from any surface other than the attached one are dropped.
func (r *Router) OnKeyFrom(from string, code input.Code, phase input.Phase) bool {
	t := r.s.Surface()
	if t == nil || t.ID() != from {
		r.drop(telemetry.InputDetached, code)
		return false
	}
	return r.forward(code, phase)
}

func (r *Router) forward(code input.Code, phase input.Phase) bool {
	if !r.s.SendInput(input.Event{Code: code, Phase: phase}) {
		r.drop(telemetry.InputStopped, code)
		return false
	}
	telemetry.RecordInput(telemetry.InputRouted)
	return true
}

// OnTerminalKey normalizes a terminal key and forwards press and release.
func (r *Router) OnTerminalKey(from string, ev terminal.KeyEvent) bool {
	code, ok := input.FromKeyEvent(ev)
	if !ok {
		telemetry.RecordInput(telemetry.InputNoCode)
		return false
	}
	if !r.OnKeyFrom(from, code, input.Press) {
		return false
	}
	r.OnKeyFrom(from, code, input.Release)
	return true
}

func (r *Router) drop(outcome string, code input.Code) {
	telemetry.RecordInput(outcome)
	r.dropLog.Do(func() {
		r.s.log.Debug(logging.CategoryInput, "dropped", "input dropped", map[string]any{
			"reason": outcome,
			"code":   code.String(),
		})
	})
}
