package presentation

import (
	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
	"github.com/odvcencio/crawlterm/pkg/ui/terminal"
)

// MenuAction is a host menu selection.
type MenuAction int

const (
	MenuNone MenuAction = iota
	MenuHelp
	MenuPreferences
	MenuResetPosition
	MenuToggleLock
	MenuQuit
	MenuToggleKeyboard
)

var menuNames = map[MenuAction]string{
	MenuHelp:           "help",
	MenuPreferences:    "preferences",
	MenuResetPosition:  "reset_position",
	MenuToggleLock:     "toggle_lock",
	MenuQuit:           "quit",
	MenuToggleKeyboard: "toggle_keyboard",
}

func (a MenuAction) String() string {
	if name, ok := menuNames[a]; ok {
		return name
	}
	return "none"
}

// menuPrefix arms the numeric shortcuts: Ctrl-F then 1..6.
const menuPrefix = 'f'

// menuItems is the number of menu actions; Fn and digit n pick item n.
const menuItems = int(MenuToggleKeyboard - MenuHelp + 1)

func menuItem(n int) MenuAction {
	if n < 1 || n > menuItems {
		return MenuNone
	}
	return MenuAction(n-1) + MenuHelp
}

// MenuShortcut maps a digit to its action.
func MenuShortcut(r rune) MenuAction {
	return menuItem(int(r - '0'))
}

// menuKey consumes key events that select menu actions.
func (c *Controller) menuKey(ev terminal.KeyEvent) (MenuAction, bool) {
	if c.menuArmed {
		c.menuArmed = false
		c.dirty = true
		if ev.Key == terminal.KeyRune && !ev.Ctrl && !ev.Alt {
			return MenuShortcut(ev.Rune), true
		}
		return MenuNone, true
	}
	if ev.Chord(menuPrefix) {
		c.menuArmed = true
		c.dirty = true
		return MenuNone, true
	}
	if !ev.Plain() {
		return MenuNone, false
	}
	action := menuItem(ev.Key.Function())
	return action, action != MenuNone
}

// MenuArmed reports whether the next digit selects a menu action.
func (c *Controller) MenuArmed() bool { return c.menuArmed }

// Menu runs a menu action.
func (c *Controller) Menu(action MenuAction) {
	if action == MenuNone || c.State() == StateTornDown {
		return
	}
	c.cfg.Hub.Publish(telemetry.Event{
		Type:      telemetry.EventMenuAction,
		SessionID: c.cfg.Session.ID(),
		Data:      map[string]any{"action": action.String()},
	})
	c.cfg.Logger.Debug(logging.CategorySession, "menu", "menu action", map[string]any{"action": action.String()})

	switch action {
	case MenuHelp:
		if err := c.cfg.Platform.OpenHelp(); err != nil {
			c.cfg.Logger.Warn(logging.CategorySession, "help_failed", err.Error(), nil)
		}
		c.redrawAll()
	case MenuPreferences:
		reload, err := c.cfg.Platform.OpenPreferences()
		if err != nil {
			c.cfg.Logger.Warn(logging.CategoryPrefs, "open_failed", err.Error(), nil)
			c.redrawAll()
			return
		}
		c.PreferencesResult(reload)
	case MenuResetPosition:
		c.ResetPosition()
	case MenuToggleLock:
		c.ToggleLock()
	case MenuQuit:
		c.TerminateSession()
	case MenuToggleKeyboard:
		c.ToggleKeyboard()
	}
}

func (c *Controller) redrawAll() {
	if c.surface != nil {
		c.surface.Invalidate()
	}
	c.dirty = true
}
