package presentation

import (
	"context"
	"errors"

	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/prefs"
	"github.com/odvcencio/crawlterm/pkg/surface"
	"github.com/odvcencio/crawlterm/pkg/ui/terminal"
)

// HandleEvent dispatches a terminal event and reports whether it was
// consumed.
func (c *Controller) HandleEvent(ev terminal.Event) bool {
	if c.State() != StateAttached {
		return false
	}
	switch e := ev.(type) {
	case terminal.ResizeEvent:
		c.RequestRebuild()
		return true
	case terminal.KeyEvent:
		if action, ok := c.menuKey(e); ok {
			c.Menu(action)
			return true
		}
	case terminal.WakeEvent:
		return false
	}
	if c.surface == nil {
		return false
	}
	res := c.surface.HandleEvent(ev)
	switch res.Action {
	case surface.ActionQuit:
		c.TerminateSession()
	case surface.ActionRestart:
		c.RestartEngine()
	}
	if res.Consumed {
		c.dirty = true
	}
	return res.Consumed
}

func (c *Controller) onPrefsChange(change prefs.Change) {
	c.cfg.Logger.Info(logging.CategoryPrefs, "changed", "preferences changed", map[string]any{"change": change.String()})
	switch change {
	case prefs.ChangeReload:
		c.PreferencesResult(true)
	case prefs.ChangeRebuild:
		c.PreferencesResult(false)
	}
}

// Run drives the controller until the session is torn down or ctx ends.
// It attaches first when the controller is still Uninitialized.
func (c *Controller) Run(ctx context.Context) error {
	if c.cfg.Events == nil {
		return errors.New("presentation: events channel is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	c.Attach()
	c.render()

	for c.State() != StateTornDown {
		select {
		case <-ctx.Done():
			c.TerminateSession()
			return ctx.Err()
		case ev, ok := <-c.cfg.Events:
			if !ok {
				c.TerminateSession()
				return nil
			}
			c.HandleEvent(ev)
		case <-c.cfg.Bridge.Ready():
			if c.cfg.Bridge.Drain() > 0 {
				c.dirty = true
			}
		case change := <-c.cfg.PrefsChanges:
			c.onPrefsChange(change)
		}
		c.render()
	}
	return nil
}

func (c *Controller) render() {
	s := c.surface
	if s == nil || (!c.dirty && !s.Dirty()) {
		return
	}
	c.dirty = false
	cx, cy, cursor := s.Draw(c.cfg.Platform.Target())
	c.cfg.Platform.Show(cx, cy, cursor)
}
