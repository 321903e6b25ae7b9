package main

import (
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/odvcencio/crawlterm/pkg/storage"
	"github.com/odvcencio/crawlterm/pkg/terminal"
)

func runHistoryCommand(opts startupOptions, args []string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	out := terminal.New()
	if len(args) > 0 {
		switch args[0] {
		case "show":
			return runHistoryShow(out, store, args[1:])
		case "prune":
			return runHistoryPrune(out, store, args[1:], cfg.Storage.Retention)
		}
	}
	return runHistoryList(out, store, args)
}

func runHistoryList(out *terminal.Writer, store *storage.Store, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	limit := fs.Int("limit", 20, "Number of sessions to list")
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, exitConfig)
	}

	sessions, err := store.ListSessions(*limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		out.Dim("No sessions recorded yet.")
		return nil
	}

	now := time.Now()
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.ID,
			s.Game,
			s.Status,
			terminal.Ago(s.StartedAt, now),
			s.Duration(now).Round(time.Second).String(),
			strconv.Itoa(s.EventCount),
		})
	}
	out.Table([]string{"Session", "Game", "Status", "Started", "Duration", "Events"}, rows)
	return nil
}

func runHistoryShow(out *terminal.Writer, store *storage.Store, args []string) error {
	fs := flag.NewFlagSet("history show", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	limit := fs.Int("events", 50, "Number of events to show")
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, exitConfig)
	}
	if fs.NArg() != 1 {
		return withExitCode(fmt.Errorf("usage: crawlterm history show [--events n] <session-id>"), exitConfig)
	}
	id := fs.Arg(0)

	sess, err := store.GetSession(id)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session not found: %s", id)
	}

	now := time.Now()
	out.Header("Session " + sess.ID)
	kv := []terminal.KeyValue{
		{Key: "Game", Value: sess.Game},
		{Key: "Engine", Value: sess.Engine},
		{Key: "Launch", Value: strconv.Itoa(sess.Launch)},
		{Key: "Status", Value: sess.Status},
		{Key: "Started", Value: sess.StartedAt.Local().Format(time.DateTime)},
		{Key: "Duration", Value: sess.Duration(now).Round(time.Second).String()},
	}
	if sess.ExitError != "" {
		kv = append(kv, terminal.KeyValue{Key: "Exit error", Value: sess.ExitError})
	}
	out.KeyValues(kv)

	events, err := store.ListEvents(id, *limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{
			ev.CreatedAt.Local().Format(time.TimeOnly),
			ev.Type,
			ev.SurfaceID,
			formatEventData(ev.Data),
		})
	}
	out.Println("")
	out.Table([]string{"Time", "Event", "Surface", "Data"}, rows)
	return nil
}

func runHistoryPrune(out *terminal.Writer, store *storage.Store, args []string, retention time.Duration) error {
	fs := flag.NewFlagSet("history prune", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	olderThan := fs.Duration("older-than", retention, "Delete finished sessions that started before this long ago")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, exitConfig)
	}
	if *olderThan <= 0 {
		return withExitCode(fmt.Errorf("--older-than must be positive"), exitConfig)
	}
	if !*yes && !out.Confirm(fmt.Sprintf("Delete finished sessions older than %s?", *olderThan), false) {
		out.Dim("Nothing deleted.")
		return nil
	}
	n, err := store.PruneSessions(time.Now().Add(-*olderThan))
	if err != nil {
		return err
	}
	out.Success("Deleted %d session(s)", n)
	return nil
}

func formatEventData(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, data[k])
	}
	return b.String()
}
