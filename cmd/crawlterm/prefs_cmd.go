package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/odvcencio/crawlterm/pkg/prefs"
	"github.com/odvcencio/crawlterm/pkg/terminal"
)

func runPrefsCommand(opts startupOptions, args []string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	store := prefs.NewStore(cfg.Prefs.Path)
	out := terminal.New()

	sub := "show"
	if len(args) > 0 {
		sub = args[0]
		args = args[1:]
	}
	switch sub {
	case "show":
		showPrefs(out, store)
		return nil
	case "path":
		out.Println("%s", store.Path())
		return nil
	case "reset":
		return resetPrefs(out, store, args)
	default:
		return withExitCode(fmt.Errorf("unknown prefs command: %s (use show, path, or reset)", sub), exitConfig)
	}
}

// showPrefs prints the effective preferences, warning about every value
// that fell back to its default.
func showPrefs(out *terminal.Writer, store *prefs.Store) {
	snap, errs := prefs.Read(store)
	out.Header("Preferences")
	out.KeyValues([]terminal.KeyValue{
		{Key: "File", Value: store.Path()},
		{Key: "Orientation", Value: string(snap.Orientation)},
		{Key: "Keyboard (portrait)", Value: string(snap.KeyboardPortrait)},
		{Key: "Keyboard (landscape)", Value: string(snap.KeyboardLandscape)},
		{Key: "Haptics", Value: strconv.FormatBool(snap.Haptics)},
		{Key: "Full screen", Value: strconv.FormatBool(snap.FullScreen)},
		{Key: "Lock position", Value: strconv.FormatBool(snap.LockPositioning)},
		{Key: "Game", Value: describeGame(snap.Game)},
	})
	for _, err := range errs {
		if errors.Is(err, prefs.ErrUnset) {
			continue
		}
		out.Warn("%v", err)
	}
}

func resetPrefs(out *terminal.Writer, store *prefs.Store, args []string) error {
	fs := flag.NewFlagSet("prefs reset", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	keepGame := fs.Bool("keep-game", true, "Keep the configured game")
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, exitConfig)
	}
	if !*yes && !out.Confirm("Reset preferences to defaults?", false) {
		out.Dim("Preferences unchanged.")
		return nil
	}

	snap := prefs.Defaults()
	if *keepGame {
		current, _ := prefs.Read(store)
		snap.Game = current.Game
	}
	if err := store.WriteSnapshot(snap); err != nil {
		return err
	}
	out.Success("Preferences reset (%s)", store.Path())
	return nil
}

func describeGame(g prefs.Game) string {
	if g.Command == "" {
		return "built-in demo"
	}
	desc := strings.TrimSpace(g.Command + " " + strings.Join(g.Args, " "))
	if g.Profile != "" {
		desc = g.Profile + ": " + desc
	}
	return desc
}
