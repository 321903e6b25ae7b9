package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/odvcencio/crawlterm/pkg/errors"
	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/prefs"
	"github.com/odvcencio/crawlterm/pkg/presentation"
	"github.com/odvcencio/crawlterm/pkg/terminal"
	"github.com/odvcencio/crawlterm/pkg/ui/backend"
)

// screen is a backend that can hand the terminal to another program.
type screen interface {
	backend.Backend
	Suspend() error
	Resume() error
}

// termPlatform runs the presentation layer on a terminal. A terminal
// cannot rotate and has no input method to show, so orientation comes
// from the window shape and the soft input flag is only recorded.
type termPlatform struct {
	screen screen
	prefs  *prefs.Store
	log    *logging.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	// run executes the editor and pager; replaced in tests.
	run func(*exec.Cmd) error

	mu         sync.Mutex
	softInput  bool
	fullScreen bool
}

func newTermPlatform(s screen, store *prefs.Store, log *logging.Logger) *termPlatform {
	return &termPlatform{
		screen: s,
		prefs:  store,
		log:    log,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		run:    (*exec.Cmd).Run,
	}
}

func (p *termPlatform) Size() (int, int) { return p.screen.Size() }

func (p *termPlatform) Target() backend.RenderTarget {
	p.screen.Clear()
	return p.screen
}

// RequestOrientation keeps an explicit orientation. For sensor mode a
// window at least twice as many columns wide as rows tall is landscape,
// since cells are about twice as tall as they are wide.
func (p *termPlatform) RequestOrientation(o prefs.Orientation) prefs.Class {
	switch o {
	case prefs.OrientationPortrait:
		return prefs.ClassPortrait
	case prefs.OrientationLandscape:
		return prefs.ClassLandscape
	}
	w, h := p.screen.Size()
	if w >= 2*h {
		return prefs.ClassLandscape
	}
	return prefs.ClassPortrait
}

func (p *termPlatform) SetSoftInputMode(visible bool) {
	p.mu.Lock()
	p.softInput = visible
	p.mu.Unlock()
}

func (p *termPlatform) ToggleSoftInput() {
	p.mu.Lock()
	p.softInput = !p.softInput
	p.mu.Unlock()
}

// SoftInputVisible reports the last requested input method state.
func (p *termPlatform) SoftInputVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.softInput
}

func (p *termPlatform) SetFullScreen(on bool) {
	p.mu.Lock()
	p.fullScreen = on
	p.mu.Unlock()
}

// FullScreen reports the last applied full screen flag.
func (p *termPlatform) FullScreen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fullScreen
}

func (p *termPlatform) Beep() { p.screen.Beep() }

func (p *termPlatform) Show(cx, cy int, cursor bool) {
	if cursor {
		p.screen.SetCursorPos(cx, cy)
	} else {
		p.screen.HideCursor()
	}
	p.screen.Show()
}

// OpenHelp pages the rendered help text. Without a pager it prints the
// text and waits for Enter.
func (p *termPlatform) OpenHelp() error {
	return p.suspended(func() error {
		rendered := terminal.NewWithOutput(p.stdout).RenderMarkdown(helpMarkdown)
		if pager := pagerCommand(); pager != nil {
			pager.Stdin = strings.NewReader(rendered)
			pager.Stdout = p.stdout
			pager.Stderr = p.stderr
			if err := p.run(pager); err == nil {
				return nil
			}
		}
		fmt.Fprint(p.stdout, rendered)
		fmt.Fprint(p.stdout, "\nPress Enter to return to the game.")
		_, _ = bufio.NewReader(p.stdin).ReadString('\n')
		return nil
	})
}

// OpenPreferences edits the preferences file and reports whether the
// edit needs a new session. The file is seeded with the current values
// so the player edits something complete.
func (p *termPlatform) OpenPreferences() (bool, error) {
	path := p.prefs.Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		snap, _ := prefs.Read(p.prefs)
		if err := p.prefs.WriteSnapshot(snap); err != nil {
			return false, err
		}
	}

	err := p.suspended(func() error {
		cmd := editorCommand(path)
		cmd.Stdin = p.stdin
		cmd.Stdout = p.stdout
		cmd.Stderr = p.stderr
		if err := p.run(cmd); err != nil {
			return errors.Wrap(err, errors.ErrCodePrefsWrite, "run editor").WithContext("editor", cmd.Path)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	change, _ := p.prefs.Reconcile()
	p.log.Info(logging.CategoryPrefs, "edited", "preferences edited", map[string]any{"change": change.String()})
	return change == prefs.ChangeReload, nil
}

// suspended runs fn with the terminal released and takes it back after,
// forcing a full redraw.
func (p *termPlatform) suspended(fn func() error) error {
	if err := p.screen.Suspend(); err != nil {
		return errors.Wrap(err, errors.ErrCodeBackendInit, "suspend terminal")
	}
	runErr := fn()
	if err := p.screen.Resume(); err != nil {
		return errors.Wrap(err, errors.ErrCodeBackendInit, "resume terminal")
	}
	p.screen.Sync()
	return runErr
}

func editorCommand(path string) *exec.Cmd {
	editor := firstNonEmpty(os.Getenv("VISUAL"), os.Getenv("EDITOR"), "vi")
	fields := strings.Fields(editor)
	return exec.Command(fields[0], append(fields[1:], path)...)
}

func pagerCommand() *exec.Cmd {
	pager := firstNonEmpty(os.Getenv("PAGER"), "less -R")
	fields := strings.Fields(pager)
	if _, err := exec.LookPath(fields[0]); err != nil {
		return nil
	}
	return exec.Command(fields[0], fields[1:]...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var _ presentation.Platform = (*termPlatform)(nil)
