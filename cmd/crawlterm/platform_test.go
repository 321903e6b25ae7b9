package main

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	crerrors "github.com/odvcencio/crawlterm/pkg/errors"
	"github.com/odvcencio/crawlterm/pkg/prefs"
	"github.com/odvcencio/crawlterm/pkg/ui/backend"
	"github.com/odvcencio/crawlterm/pkg/ui/backend/sim"
)

func newTestPlatform(t *testing.T, w, h int) (*termPlatform, *sim.Backend, *bytes.Buffer) {
	t.Helper()
	scr := sim.New(w, h)
	require.NoError(t, scr.Init())
	t.Cleanup(scr.Fini)

	store := prefs.NewStore(filepath.Join(t.TempDir(), "prefs.yaml"))
	p := newTermPlatform(scr, store, nil)
	var out bytes.Buffer
	p.stdout = &out
	p.stderr = &out
	p.stdin = strings.NewReader("\n")
	p.run = func(*exec.Cmd) error { return nil }
	return p, scr, &out
}

// editTo returns a run func that replaces the file named by the last
// argument, the way an editor would.
func editTo(content string) func(*exec.Cmd) error {
	return func(cmd *exec.Cmd) error {
		return os.WriteFile(cmd.Args[len(cmd.Args)-1], []byte(content), 0o644)
	}
}

func TestRequestOrientation(t *testing.T) {
	p, scr, _ := newTestPlatform(t, 80, 24)
	assert.Equal(t, prefs.ClassLandscape, p.RequestOrientation(prefs.OrientationSensor))
	assert.Equal(t, prefs.ClassPortrait, p.RequestOrientation(prefs.OrientationPortrait))

	scr.Resize(40, 30)
	assert.Equal(t, prefs.ClassPortrait, p.RequestOrientation(prefs.OrientationSensor))
	assert.Equal(t, prefs.ClassLandscape, p.RequestOrientation(prefs.OrientationLandscape))
}

func TestSoftInputAndFullScreenAreRecorded(t *testing.T) {
	p, _, _ := newTestPlatform(t, 80, 24)
	p.SetSoftInputMode(true)
	assert.True(t, p.SoftInputVisible())
	p.ToggleSoftInput()
	assert.False(t, p.SoftInputVisible())

	p.SetFullScreen(true)
	assert.True(t, p.FullScreen())
}

func TestTargetClearsAndShowDraws(t *testing.T) {
	p, scr, _ := newTestPlatform(t, 20, 5)
	target := p.Target()
	target.SetContent(0, 0, '@', nil, backend.DefaultStyle())
	p.Show(0, 0, false)
	assert.Equal(t, "@", scr.Line(0))

	p.Target()
	p.Show(0, 0, true)
	assert.Equal(t, "", scr.Line(0))

	p.Beep()
	assert.Equal(t, 1, scr.Beeps())
}

func TestOpenPreferencesSeedsFileAndReportsReload(t *testing.T) {
	p, _, _ := newTestPlatform(t, 80, 24)
	var seeded string
	p.run = func(cmd *exec.Cmd) error {
		data, err := os.ReadFile(cmd.Args[len(cmd.Args)-1])
		seeded = string(data)
		if err != nil {
			return err
		}
		return editTo("game:\n  command: nethack\n")(cmd)
	}

	reload, err := p.OpenPreferences()
	require.NoError(t, err)
	assert.True(t, reload, "changing the game needs a new session")
	assert.Contains(t, seeded, "orientation: sensor")
}

func TestOpenPreferencesRebuildOnly(t *testing.T) {
	p, _, _ := newTestPlatform(t, 80, 24)
	p.run = editTo("orientation: portrait\n")

	reload, err := p.OpenPreferences()
	require.NoError(t, err)
	assert.False(t, reload)

	snap, _ := prefs.Read(p.prefs)
	assert.Equal(t, prefs.OrientationPortrait, snap.Orientation)
}

func TestOpenPreferencesEditorFailure(t *testing.T) {
	p, _, _ := newTestPlatform(t, 80, 24)
	p.run = func(*exec.Cmd) error { return errors.New("editor crashed") }

	reload, err := p.OpenPreferences()
	require.Error(t, err)
	assert.False(t, reload)
	assert.True(t, crerrors.IsCode(err, crerrors.ErrCodePrefsWrite))
}

func TestOpenHelpFallsBackWithoutPager(t *testing.T) {
	t.Setenv("PAGER", "crawlterm-no-such-pager")
	p, _, out := newTestPlatform(t, 80, 24)

	require.NoError(t, p.OpenHelp())
	assert.Contains(t, out.String(), "crawlterm")
	assert.Contains(t, out.String(), "Press Enter")
}

func TestEditorCommand(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "code --wait")
	cmd := editorCommand("/tmp/prefs.yaml")
	assert.Equal(t, []string{"code", "--wait", "/tmp/prefs.yaml"}, cmd.Args)

	t.Setenv("EDITOR", "")
	assert.Equal(t, []string{"vi", "/tmp/prefs.yaml"}, editorCommand("/tmp/prefs.yaml").Args)
}
