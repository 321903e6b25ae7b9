// Package presentation owns the visible surface's lifecycle: it builds
// the surface from the current preferences, rebuilds it whenever the
// shape changes, and tears it down when the session ends.
//
// All Controller methods run on the presentation goroutine. The engine
// goroutine only reaches this package through the bridge.
package presentation

import (
	"github.com/odvcencio/crawlterm/pkg/prefs"
	"github.com/odvcencio/crawlterm/pkg/ui/backend"
)

// Platform is the host UI runtime the controller draws on.
//
//go:generate mockgen -package=presentation -destination=mock_platform_test.go github.com/odvcencio/crawlterm/pkg/presentation Platform
type Platform interface {
	// Size returns the drawable area in cells.
	Size() (width, height int)

	// Target returns the render target for the next frame, cleared.
	Target() backend.RenderTarget

	// RequestOrientation applies the requested orientation and returns
	// the class the surface should be built for.
	RequestOrientation(o prefs.Orientation) prefs.Class

	// SetSoftInputMode shows or force-hides the platform input method.
	SetSoftInputMode(visible bool)

	// ToggleSoftInput flips the platform input method.
	ToggleSoftInput()

	// SetFullScreen applies the full-screen flag.
	SetFullScreen(on bool)

	// OpenHelp shows the help screen and returns when it is closed.
	OpenHelp() error

	// OpenPreferences shows the preferences screen and returns when it
	// is closed. reload reports whether the change requires a full
	// session restart.
	OpenPreferences() (reload bool, err error)

	// Beep produces haptic feedback.
	Beep()

	// Show flushes the frame, placing the cursor when cursor is true.
	Show(cx, cy int, cursor bool)
}
