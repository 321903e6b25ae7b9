package prefs

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/odvcencio/crawlterm/pkg/errors"
)

// ErrUnset is reported for a value the file does not contain.
var ErrUnset = stderrors.New("not set")

type keyboardDoc struct {
	Portrait  string `yaml:"portrait,omitempty"`
	Landscape string `yaml:"landscape,omitempty"`
}

// document is the on-disk layout. Pointers distinguish unset from false.
type document struct {
	Orientation     string      `yaml:"orientation,omitempty"`
	Keyboard        keyboardDoc `yaml:"keyboard,omitempty"`
	Haptics         *bool       `yaml:"haptics,omitempty"`
	FullScreen      *bool       `yaml:"full_screen,omitempty"`
	LockPositioning *bool       `yaml:"lock_positioning,omitempty"`
	Game            Game        `yaml:"game,omitempty"`
}

// Store is a YAML file backed Source.
type Store struct {
	path string

	mu    sync.Mutex
	known Snapshot
}

// NewStore opens the preferences file at path. The file need not exist.
func NewStore(path string) *Store {
	s := &Store{path: path}
	s.known, _ = Read(s)
	return s
}

// Path returns the preferences file path.
func (s *Store) Path() string { return s.path }

func (s *Store) load() (document, error) {
	var doc document
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, errors.Wrap(err, errors.ErrCodePrefsRead, "read preferences").WithContext("path", s.path)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, errors.Wrap(err, errors.ErrCodePrefsRead, "parse preferences").WithContext("path", s.path)
	}
	return doc, nil
}

func (s *Store) save(doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodePrefsWrite, "encode preferences")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrCodePrefsWrite, "create preferences dir").WithContext("path", s.path)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodePrefsWrite, "write preferences").WithContext("path", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, errors.ErrCodePrefsWrite, "replace preferences").WithContext("path", s.path)
	}
	return nil
}

// OrientationMode implements Source.
func (s *Store) OrientationMode() (Orientation, error) {
	doc, err := s.load()
	if err != nil {
		return "", err
	}
	if doc.Orientation == "" {
		return "", ErrUnset
	}
	o := Orientation(doc.Orientation)
	if !o.Valid() {
		return "", fmt.Errorf("invalid orientation %q", doc.Orientation)
	}
	return o, nil
}

// KeyboardMode implements Source.
func (s *Store) KeyboardMode(class Class) (KeyboardMode, error) {
	doc, err := s.load()
	if err != nil {
		return "", err
	}
	raw := doc.Keyboard.Portrait
	if class == ClassLandscape {
		raw = doc.Keyboard.Landscape
	}
	if raw == "" {
		return "", ErrUnset
	}
	m := KeyboardMode(raw)
	if !m.Valid() {
		return "", fmt.Errorf("invalid keyboard mode %q", raw)
	}
	return m, nil
}

func (s *Store) flag(get func(document) *bool) (bool, error) {
	doc, err := s.load()
	if err != nil {
		return false, err
	}
	v := get(doc)
	if v == nil {
		return false, ErrUnset
	}
	return *v, nil
}

// HapticFeedbackEnabled implements Source.
func (s *Store) HapticFeedbackEnabled() (bool, error) {
	return s.flag(func(d document) *bool { return d.Haptics })
}

// FullScreen implements Source.
func (s *Store) FullScreen() (bool, error) {
	return s.flag(func(d document) *bool { return d.FullScreen })
}

// LockPositioning implements Source.
func (s *Store) LockPositioning() (bool, error) {
	return s.flag(func(d document) *bool { return d.LockPositioning })
}

// Game implements Source. A missing section is an empty profile.
func (s *Store) Game() (Game, error) {
	doc, err := s.load()
	if err != nil {
		return Game{}, err
	}
	return doc.Game, nil
}

func (s *Store) update(fn func(*document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		// An unreadable file is replaced rather than blocking the toggle.
		doc = document{}
	}
	fn(&doc)
	if err := s.save(doc); err != nil {
		return err
	}
	s.known, _ = Read(s)
	return nil
}

// SetKeyboardMode implements Source.
func (s *Store) SetKeyboardMode(class Class, mode KeyboardMode) error {
	if !mode.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("invalid keyboard mode %q", mode))
	}
	return s.update(func(d *document) {
		if class == ClassLandscape {
			d.Keyboard.Landscape = string(mode)
		} else {
			d.Keyboard.Portrait = string(mode)
		}
	})
}

// SetLockPositioning implements Source.
func (s *Store) SetLockPositioning(locked bool) error {
	return s.update(func(d *document) { d.LockPositioning = &locked })
}

// SetOrientation stores the orientation mode.
func (s *Store) SetOrientation(o Orientation) error {
	if !o.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("invalid orientation %q", o))
	}
	return s.update(func(d *document) { d.Orientation = string(o) })
}

// SetFullScreen stores the full screen flag.
func (s *Store) SetFullScreen(on bool) error {
	return s.update(func(d *document) { d.FullScreen = &on })
}

// SetHaptics stores the haptic feedback flag.
func (s *Store) SetHaptics(on bool) error {
	return s.update(func(d *document) { d.Haptics = &on })
}

// WriteSnapshot stores every field of snap.
func (s *Store) WriteSnapshot(snap Snapshot) error {
	return s.update(func(d *document) {
		*d = document{
			Orientation:     string(snap.Orientation),
			Keyboard:        keyboardDoc{Portrait: string(snap.KeyboardPortrait), Landscape: string(snap.KeyboardLandscape)},
			Haptics:         &snap.Haptics,
			FullScreen:      &snap.FullScreen,
			LockPositioning: &snap.LockPositioning,
			Game:            snap.Game,
		}
	})
}

// Reconcile reads the file, classifies the change against the last
// snapshot this process wrote or reconciled, and remembers the new one.
func (s *Store) Reconcile() (Change, Snapshot) {
	cur, _ := Read(s)
	s.mu.Lock()
	defer s.mu.Unlock()
	change := Diff(s.known, cur)
	s.known = cur
	return change, cur
}
