// Package session owns the single running engine instance and routes
// key input from the attached surface to it.
package session

import (
	"context"
	"crypto/rand"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/odvcencio/crawlterm/pkg/engine"
	"github.com/odvcencio/crawlterm/pkg/input"
	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
)

// Target is the presentation surface as seen by the session.
type Target interface {
	ID() string
}

type targetRef struct{ t Target }

type spanRef struct{ span trace.Span }

// Options configure a Session.
type Options struct {
	ID         string
	Rows, Cols int
	Logger     *logging.Logger
	Hub        *telemetry.Hub
	// OnEngineExit runs on the engine goroutine after each engine run.
	OnEngineExit func(err error)
}

// Session is the process's engine instance. Create one in main and pass
// it to whatever needs it.
type Session struct {
	id      string
	channel *engine.Channel
	sink    engine.Poster
	log     *logging.Logger
	hub     *telemetry.Hub

	running atomic.Bool
	surface atomic.Pointer[targetRef]
	// span covers one Start to Stop period.
	span atomic.Pointer[spanRef]
}

// NewID returns a fresh session id.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// New creates a stopped session. Messages the engine posts go to sink.
func New(eng engine.Engine, sink engine.Poster, opts Options) *Session {
	if opts.ID == "" {
		opts.ID = NewID()
	}
	s := &Session{
		id:   opts.ID,
		sink: sink,
		log:  opts.Logger,
		hub:  opts.Hub,
	}
	s.channel = engine.NewChannel(eng, sink, engine.Options{
		Rows:   opts.Rows,
		Cols:   opts.Cols,
		Logger: opts.Logger,
		OnRunEnd: func(err error) {
			data := map[string]any{}
			if err != nil {
				data["error"] = err.Error()
				if ref := s.span.Load(); ref != nil {
					ref.span.RecordError(err)
					ref.span.SetStatus(codes.Error, "engine exited")
				}
			}
			if s.channel.Exited() {
				telemetry.SetSessionRunning(false)
			}
			s.hub.Publish(telemetry.Event{Type: telemetry.EventEngineExited, SessionID: s.id, Data: data})
			if opts.OnEngineExit != nil {
				opts.OnEngineExit(err)
			}
		},
	})
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Sink returns the message sink the engine posts to.
func (s *Session) Sink() engine.Poster { return s.sink }

// Running reports whether the session has been started and its engine
// has neither been stopped nor exited on its own.
func (s *Session) Running() bool {
	return s.running.Load() && !s.channel.Exited()
}

// Start starts the engine. Returns false if it is already running. A
// session whose engine exited on its own is started again.
func (s *Session) Start() bool {
	if !s.running.CompareAndSwap(false, true) && !s.channel.Exited() {
		return false
	}
	_, span := telemetry.StartSpan(context.Background(), "session.run", telemetry.AttrSessionID.String(s.id))
	s.endSpan(&spanRef{span: span})
	s.channel.Start()
	telemetry.SetSessionRunning(true)
	s.hub.Publish(telemetry.Event{Type: telemetry.EventSessionStarted, SessionID: s.id})
	s.log.Info(logging.CategorySession, "started", "session started", nil)
	return true
}

// Stop asks the engine to stop and returns without waiting for it.
// Returns false if the session was not running.
func (s *Session) Stop() bool {
	if !s.running.CompareAndSwap(true, false) {
		return false
	}
	s.channel.Stop()
	s.endSpan(nil)
	telemetry.SetSessionRunning(false)
	s.hub.Publish(telemetry.Event{Type: telemetry.EventSessionStopped, SessionID: s.id})
	s.log.Info(logging.CategorySession, "stopped", "session stop requested", nil)
	return true
}

// endSpan replaces the run span with next and ends the old one.
func (s *Session) endSpan(next *spanRef) {
	if prev := s.span.Swap(next); prev != nil {
		prev.span.End()
	}
}

// SendInput queues ev for the engine. It is dropped when the session
// is not running.
func (s *Session) SendInput(ev input.Event) bool {
	if !s.Running() {
		return false
	}
	s.channel.Send(ev)
	return true
}

// Surface returns the attached surface, or nil.
func (s *Session) Surface() Target {
	if ref := s.surface.Load(); ref != nil {
		return ref.t
	}
	return nil
}

func (s *Session) setSurface(t Target) {
	if t == nil {
		s.surface.Store(nil)
		return
	}
	s.surface.Store(&targetRef{t: t})
}

// EngineActive reports whether an engine run is executing right now.
func (s *Session) EngineActive() bool { return s.channel.Active() }

// Close stops the session and waits for the engine goroutine to exit.
func (s *Session) Close() {
	s.Stop()
	s.channel.Close()
}
