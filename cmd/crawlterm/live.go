package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/odvcencio/crawlterm/pkg/bridge"
	"github.com/odvcencio/crawlterm/pkg/bus"
	"github.com/odvcencio/crawlterm/pkg/presentation"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
)

// liveSession answers status requests for whichever launch is current.
// Requests arrive on bus and HTTP goroutines, so it only reads state
// that is safe to read off the presentation goroutine.
type liveSession struct {
	mu      sync.Mutex
	ctrl    *presentation.Controller
	bridge  *bridge.Bridge
	started time.Time

	rebuilds atomic.Uint64
}

func (l *liveSession) set(ctrl *presentation.Controller, br *bridge.Bridge) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ctrl = ctrl
	l.bridge = br
	l.started = time.Now()
	l.rebuilds.Store(0)
}

func (l *liveSession) clear(ctrl *presentation.Controller) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctrl == ctrl {
		l.ctrl = nil
		l.bridge = nil
	}
}

// Status reports the current launch, false between launches.
func (l *liveSession) Status() (bus.Status, bool) {
	l.mu.Lock()
	ctrl, br, started := l.ctrl, l.bridge, l.started
	l.mu.Unlock()
	if ctrl == nil {
		return bus.Status{}, false
	}
	st := bus.Status{
		SessionID:  ctrl.Session().ID(),
		State:      ctrl.State().String(),
		Running:    ctrl.Session().Running(),
		Generation: l.rebuilds.Load(),
		Pending:    br.Pending(),
		StartedAt:  started,
	}
	st.SurfaceID, _ = br.Attached()
	return st, true
}

// track counts completed rebuilds of the current session.
func (l *liveSession) track(ctx context.Context, hub *telemetry.Hub) {
	events, cancel := hub.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != telemetry.EventRebuildCompleted {
				continue
			}
			l.mu.Lock()
			current := l.ctrl != nil && l.ctrl.Session().ID() == ev.SessionID
			l.mu.Unlock()
			if current {
				l.rebuilds.Add(1)
			}
		}
	}
}
