// Package prefs stores the user-facing display preferences: orientation,
// keyboard mode per orientation class, haptics, full screen, lock
// positioning, and the game profile.
//
// Reads never fail the caller: Read falls back to the documented
// default for every value that is missing or invalid and reports what
// it replaced.
package prefs

import (
	"fmt"
	"slices"
)

// Orientation is the requested screen orientation.
type Orientation string

const (
	OrientationSensor    Orientation = "sensor"
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Valid reports whether o is a known orientation.
func (o Orientation) Valid() bool {
	switch o {
	case OrientationSensor, OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}

// Class is the orientation class a keyboard mode is stored for.
type Class string

const (
	ClassPortrait  Class = "portrait"
	ClassLandscape Class = "landscape"
)

// KeyboardMode selects the auxiliary keyboard.
type KeyboardMode string

const (
	KeyboardOff    KeyboardMode = "off"
	KeyboardCustom KeyboardMode = "custom"
	KeyboardSystem KeyboardMode = "system"
)

// Valid reports whether m is a known keyboard mode.
func (m KeyboardMode) Valid() bool {
	switch m {
	case KeyboardOff, KeyboardCustom, KeyboardSystem:
		return true
	}
	return false
}

// Game is the engine launch profile. Changing it requires a reload.
type Game struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
	Profile string   `yaml:"profile,omitempty"`
}

// Equal compares two profiles.
func (g Game) Equal(o Game) bool {
	return g.Command == o.Command && g.Profile == o.Profile && slices.Equal(g.Args, o.Args)
}

// Snapshot is the configuration read at each rebuild.
type Snapshot struct {
	Orientation       Orientation
	KeyboardPortrait  KeyboardMode
	KeyboardLandscape KeyboardMode
	Haptics           bool
	FullScreen        bool
	LockPositioning   bool
	Game              Game
}

// Defaults returns the fallback configuration: sensor orientation,
// keyboard off, haptics on.
func Defaults() Snapshot {
	return Snapshot{
		Orientation:       OrientationSensor,
		KeyboardPortrait:  KeyboardOff,
		KeyboardLandscape: KeyboardOff,
		Haptics:           true,
	}
}

// Keyboard returns the keyboard mode stored for class.
func (s Snapshot) Keyboard(class Class) KeyboardMode {
	if class == ClassLandscape {
		return s.KeyboardLandscape
	}
	return s.KeyboardPortrait
}

// WithKeyboard returns s with the keyboard mode for class replaced.
func (s Snapshot) WithKeyboard(class Class, mode KeyboardMode) Snapshot {
	if class == ClassLandscape {
		s.KeyboardLandscape = mode
	} else {
		s.KeyboardPortrait = mode
	}
	return s
}

// Source is the read side of the preferences store, plus the setters
// the presentation layer needs for keyboard and lock toggles.
type Source interface {
	OrientationMode() (Orientation, error)
	KeyboardMode(class Class) (KeyboardMode, error)
	HapticFeedbackEnabled() (bool, error)
	FullScreen() (bool, error)
	LockPositioning() (bool, error)
	Game() (Game, error)

	SetKeyboardMode(class Class, mode KeyboardMode) error
	SetLockPositioning(locked bool) error
}

// FieldError records a value replaced by its default.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("prefs %s: %v", e.Field, e.Err)
}

func (e FieldError) Unwrap() error { return e.Err }

// Read builds a snapshot from src, substituting the default for every
// value src cannot provide.
func Read(src Source) (Snapshot, []error) {
	snap := Defaults()
	var errs []error
	note := func(field string, err error) bool {
		if err != nil {
			errs = append(errs, FieldError{Field: field, Err: err})
			return false
		}
		return true
	}

	if o, err := src.OrientationMode(); note("orientation", err) {
		snap.Orientation = o
	}
	if m, err := src.KeyboardMode(ClassPortrait); note("keyboard.portrait", err) {
		snap.KeyboardPortrait = m
	}
	if m, err := src.KeyboardMode(ClassLandscape); note("keyboard.landscape", err) {
		snap.KeyboardLandscape = m
	}
	if v, err := src.HapticFeedbackEnabled(); note("haptics", err) {
		snap.Haptics = v
	}
	if v, err := src.FullScreen(); note("full_screen", err) {
		snap.FullScreen = v
	}
	if v, err := src.LockPositioning(); note("lock_positioning", err) {
		snap.LockPositioning = v
	}
	if g, err := src.Game(); note("game", err) {
		snap.Game = g
	}
	return snap, errs
}

// Change classifies the difference between two snapshots.
type Change int

const (
	ChangeNone Change = iota
	// ChangeRebuild means the surface must be rebuilt.
	ChangeRebuild
	// ChangeReload means the session must be restarted.
	ChangeReload
)

func (c Change) String() string {
	switch c {
	case ChangeRebuild:
		return "rebuild"
	case ChangeReload:
		return "reload"
	default:
		return "none"
	}
}

// Diff classifies the move from old to cur.
func Diff(old, cur Snapshot) Change {
	if !old.Game.Equal(cur.Game) {
		return ChangeReload
	}
	if old.layout() != cur.layout() {
		return ChangeRebuild
	}
	return ChangeNone
}

// layout is the comparable part of a snapshot that shapes the surface.
type layout struct {
	orientation       Orientation
	keyboardPortrait  KeyboardMode
	keyboardLandscape KeyboardMode
	haptics           bool
	fullScreen        bool
	lockPositioning   bool
}

func (s Snapshot) layout() layout {
	return layout{
		orientation:       s.Orientation,
		keyboardPortrait:  s.KeyboardPortrait,
		keyboardLandscape: s.KeyboardLandscape,
		haptics:           s.Haptics,
		fullScreen:        s.FullScreen,
		lockPositioning:   s.LockPositioning,
	}
}
