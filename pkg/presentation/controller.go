package presentation

import (
	"context"
	"crypto/rand"
	"errors"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/odvcencio/crawlterm/pkg/bridge"
	"github.com/odvcencio/crawlterm/pkg/dialog"
	"github.com/odvcencio/crawlterm/pkg/input"
	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/prefs"
	"github.com/odvcencio/crawlterm/pkg/session"
	"github.com/odvcencio/crawlterm/pkg/surface"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
	"github.com/odvcencio/crawlterm/pkg/termbuf"
	"github.com/odvcencio/crawlterm/pkg/ui/terminal"
)

// State is the controller lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateAttached
	StateRebuilding
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAttached:
		return "attached"
	case StateRebuilding:
		return "rebuilding"
	case StateTornDown:
		return "torn_down"
	default:
		return "unknown"
	}
}

// Outcome is how a controller ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeQuit
	OutcomeRelaunch
)

// Config wires a Controller to its collaborators.
type Config struct {
	Session  *session.Session
	Router   *session.Router
	Bridge   *bridge.Bridge
	Prefs    prefs.Source
	Platform Platform

	// Grid and Dialogs outlive surfaces; every rebuild hands them to the
	// new surface.
	Grid    *termbuf.Grid
	Dialogs *dialog.Manager

	// Events feeds terminal input to Run. PrefsChanges is optional.
	Events       <-chan terminal.Event
	PrefsChanges <-chan prefs.Change

	Title  string
	Logger *logging.Logger
	Hub    *telemetry.Hub
}

// Controller owns the surface lifecycle for one session.
type Controller struct {
	cfg   Config
	lock  SessionLock
	state atomic.Int32

	surface    *surface.Surface
	snapshot   prefs.Snapshot
	generation int
	outcome    Outcome
	menuArmed  bool
	dirty      bool
}

// New creates a controller in the Uninitialized state.
func New(cfg Config) *Controller {
	if cfg.Grid == nil {
		cfg.Grid = termbuf.New(24, 80)
	}
	if cfg.Dialogs == nil {
		cfg.Dialogs = dialog.NewManager()
	}
	if cfg.Router == nil && cfg.Session != nil {
		cfg.Router = session.NewRouter(cfg.Session)
	}
	return &Controller{cfg: cfg, snapshot: prefs.Defaults()}
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return State(c.state.Load()) }

func (c *Controller) setState(s State) { c.state.Store(int32(s)) }

// Outcome reports why the controller was torn down.
func (c *Controller) Outcome() Outcome { return c.outcome }

// Surface returns the attached surface, or nil.
func (c *Controller) Surface() *surface.Surface { return c.surface }

// Snapshot returns the preferences the current surface was built from.
func (c *Controller) Snapshot() prefs.Snapshot { return c.snapshot }

// Generation counts completed rebuilds.
func (c *Controller) Generation() int { return c.generation }

// Session returns the session the controller drives.
func (c *Controller) Session() *session.Session { return c.cfg.Session }

// Attach performs the first surface creation and starts the session.
// It returns false unless the controller was Uninitialized.
func (c *Controller) Attach() bool {
	if !c.state.CompareAndSwap(int32(StateUninitialized), int32(StateAttached)) {
		return false
	}
	c.cfg.Session.Start()
	c.rebuild("attach")
	return true
}

// RequestRebuild rebuilds the surface. A request made while a rebuild is
// in progress is coalesced into one more rebuild after it. Requests are
// ignored before Attach and after teardown.
func (c *Controller) RequestRebuild() bool {
	switch c.State() {
	case StateAttached, StateRebuilding:
		c.rebuild("request")
		return true
	}
	return false
}

func (c *Controller) rebuild(reason string) {
	for {
		if !c.lock.Enter() {
			telemetry.RecordRebuildCoalesced()
			c.cfg.Hub.Publish(telemetry.Event{Type: telemetry.EventRebuildCoalesced, SessionID: c.cfg.Session.ID()})
			c.cfg.Logger.Debug(logging.CategoryRebuild, "coalesced", "rebuild already in progress", map[string]any{"reason": reason})
			return
		}
		start := time.Now()
		_, span := telemetry.StartSpan(context.Background(), "rebuild",
			telemetry.AttrSessionID.String(c.cfg.Session.ID()),
			telemetry.AttrReason.String(reason))
		c.setState(StateRebuilding)
		next, again := c.rebuildUnderLock()

		if c.State() == StateTornDown {
			span.End()
			return
		}
		span.SetAttributes(
			telemetry.AttrSurfaceID.String(next.ID()),
			telemetry.AttrClass.String(string(next.Class())),
			telemetry.AttrKeyboard.String(string(next.KeyboardMode())))
		span.End()
		c.setState(StateAttached)
		next.Invalidate()
		c.dirty = true
		c.cfg.Bridge.Drain()

		elapsed := time.Since(start)
		telemetry.RecordRebuild(elapsed)
		c.cfg.Hub.Publish(telemetry.Event{
			Type:      telemetry.EventRebuildCompleted,
			SessionID: c.cfg.Session.ID(),
			SurfaceID: next.ID(),
			Data: map[string]any{
				"reason":      reason,
				"class":       string(next.Class()),
				"keyboard":    string(next.KeyboardMode()),
				"duration_ms": elapsed.Milliseconds(),
			},
		})
		c.cfg.Logger.Info(logging.CategoryRebuild, "completed", "surface rebuilt", map[string]any{
			"reason":   reason,
			"surface":  next.ID(),
			"class":    string(next.Class()),
			"keyboard": string(next.KeyboardMode()),
		})
		if !again {
			return
		}
		reason = "coalesced"
	}
}

// rebuildUnderLock runs rebuildLocked and leaves the lock even if it
// panics. again reports a rebuild requested meanwhile.
func (c *Controller) rebuildUnderLock() (next *surface.Surface, again bool) {
	defer func() { again = c.lock.Leave() }()
	return c.rebuildLocked(), false
}

// rebuildLocked runs the detach, construct and attach steps, then
// restores the in-flight dialog. Dialogs live in the dialog.Manager
// every surface shares, so the new surface draws and answers the same
// dialog the old one had open. The caller holds the lock.
func (c *Controller) rebuildLocked() *surface.Surface {
	var pan termbuf.Viewport
	if old := c.surface; old != nil {
		c.cfg.Router.Detach()
		c.cfg.Bridge.Detach()
		old.MarkAttached(false)
		pan = old.Pan()
	}

	snap, errs := prefs.Read(c.cfg.Prefs)
	for _, err := range errs {
		if errors.Is(err, prefs.ErrUnset) {
			continue
		}
		c.cfg.Logger.Warn(logging.CategoryPrefs, "fallback", err.Error(), nil)
	}
	c.snapshot = snap

	p := c.cfg.Platform
	class := p.RequestOrientation(snap.Orientation)
	mode := snap.Keyboard(class)
	p.SetFullScreen(snap.FullScreen)
	p.SetSoftInputMode(mode == prefs.KeyboardSystem)

	w, h := p.Size()
	next := surface.New(surface.Config{
		ID:         newSurfaceID(),
		Width:      w,
		Height:     h,
		Class:      class,
		Keyboard:   mode,
		Locked:     snap.LockPositioning,
		FullScreen: snap.FullScreen,
		Haptics:    snap.Haptics,
		Pan:        pan,
		Title:      c.cfg.Title,
		Grid:       c.cfg.Grid,
		Dialogs:    c.cfg.Dialogs,
		Keys:       c.cfg.Router,
		Beeper:     p,
	})

	next.MarkAttached(true)
	c.surface = next
	c.cfg.Router.Attach(next)
	c.cfg.Bridge.Attach(next)
	c.generation++

	if d, ok := next.Dialog(); ok {
		c.cfg.Logger.Debug(logging.CategoryRebuild, "dialog_restored", "dialog carried across rebuild", map[string]any{"dialog": d.ID})
	}
	return next
}

// TerminateSession stops the engine and releases the surface. The
// controller cannot be used afterwards.
func (c *Controller) TerminateSession() {
	if c.State() == StateTornDown {
		return
	}
	c.setState(StateTornDown)
	if c.outcome == OutcomeNone {
		c.outcome = OutcomeQuit
	}
	c.cfg.Session.Stop()
	c.cfg.Router.Detach()
	c.cfg.Bridge.Detach()
	if c.surface != nil {
		c.surface.MarkAttached(false)
		c.surface = nil
	}
	c.cfg.Logger.Info(logging.CategorySession, "terminated", "session terminated", map[string]any{"relaunch": c.outcome == OutcomeRelaunch})
}

// PreferencesResult handles the return from the preferences screen.
func (c *Controller) PreferencesResult(reloadRequested bool) {
	c.cfg.Hub.Publish(telemetry.Event{
		Type:      telemetry.EventPrefsChanged,
		SessionID: c.cfg.Session.ID(),
		Data:      map[string]any{"reload": reloadRequested},
	})
	if reloadRequested {
		c.outcome = OutcomeRelaunch
		c.TerminateSession()
		return
	}
	c.RequestRebuild()
}

// OnInput forwards an input event for the attached surface.
func (c *Controller) OnInput(code input.Code, phase input.Phase) bool {
	if c.State() != StateAttached {
		return false
	}
	return c.cfg.Router.OnKey(code, phase)
}

// ToggleKeyboard switches the keyboard for the current orientation. In
// system mode only the platform input method is toggled; off and
// custom swap, are persisted, and take effect through a rebuild.
func (c *Controller) ToggleKeyboard() {
	if c.surface == nil {
		return
	}
	class := c.surface.Class()
	mode := c.surface.KeyboardMode()
	if mode == prefs.KeyboardSystem {
		c.cfg.Platform.ToggleSoftInput()
		return
	}
	next := prefs.KeyboardCustom
	if mode == prefs.KeyboardCustom {
		next = prefs.KeyboardOff
	}
	if err := c.cfg.Prefs.SetKeyboardMode(class, next); err != nil {
		c.cfg.Logger.Warn(logging.CategoryPrefs, "write_failed", err.Error(), map[string]any{"field": "keyboard"})
		return
	}
	c.RequestRebuild()
}

// ToggleLock flips and persists the lock-positioning flag.
func (c *Controller) ToggleLock() {
	if c.surface == nil {
		return
	}
	locked := !c.surface.Locked()
	if err := c.cfg.Prefs.SetLockPositioning(locked); err != nil {
		c.cfg.Logger.Warn(logging.CategoryPrefs, "write_failed", err.Error(), map[string]any{"field": "lock_positioning"})
	}
	c.surface.SetLocked(locked)
	c.dirty = true
}

// ResetPosition returns the terminal view to its origin.
func (c *Controller) ResetPosition() {
	if c.surface == nil {
		return
	}
	c.surface.ResetPosition()
	c.dirty = true
}

// RestartEngine ends the current engine run and starts a new one on the
// same session. The terminal is cleared.
func (c *Controller) RestartEngine() {
	if c.State() == StateTornDown {
		return
	}
	c.cfg.Session.Stop()
	c.cfg.Grid.Reset()
	c.cfg.Session.Start()
	c.dirty = true
}

func newSurfaceID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
