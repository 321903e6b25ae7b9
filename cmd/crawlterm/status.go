package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/odvcencio/crawlterm/pkg/bus"
	"github.com/odvcencio/crawlterm/pkg/config"
	"github.com/odvcencio/crawlterm/pkg/errors"
	"github.com/odvcencio/crawlterm/pkg/terminal"
)

// runStatusCommand asks a running crawlterm for its session state over
// the bus. Only a NATS bus reaches another process.
func runStatusCommand(opts startupOptions, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	timeout := fs.Duration("timeout", 2*time.Second, "How long to wait for a reply")
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, exitConfig)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if cfg.Bus.Kind != config.BusKindNATS {
		return withExitCode(fmt.Errorf("status needs bus.kind: nats (the memory bus is local to one process)"), exitConfig)
	}
	b, err := bus.Open(busConfig(cfg))
	if err != nil {
		return withExitCode(errors.Wrap(err, errors.ErrCodeBusConnect, "connect to bus").WithContext("url", cfg.Bus.URL), exitBus)
	}
	defer b.Close()

	st, err := terminal.WithSpinner(os.Stderr, "Asking for session status", func() (bus.Status, error) {
		return bus.QueryStatus(context.Background(), b, cfg.Bus.SubjectPrefix, *timeout)
	})
	if err != nil {
		return withExitCode(err, exitBus)
	}
	printStatus(terminal.New(), st, time.Now())
	return nil
}

func printStatus(out *terminal.Writer, st bus.Status, now time.Time) {
	if st.SessionID == "" {
		out.Dim("crawlterm is running between sessions.")
		return
	}
	out.Header("Session " + st.SessionID)
	rows := []terminal.KeyValue{
		{Key: "State", Value: st.State},
		{Key: "Engine running", Value: strconv.FormatBool(st.Running)},
		{Key: "Rebuilds", Value: strconv.FormatUint(st.Generation, 10)},
		{Key: "Pending messages", Value: strconv.Itoa(st.Pending)},
	}
	if st.SurfaceID != "" {
		rows = append(rows, terminal.KeyValue{Key: "Surface", Value: st.SurfaceID})
	}
	if !st.StartedAt.IsZero() {
		rows = append(rows, terminal.KeyValue{Key: "Started", Value: terminal.Ago(st.StartedAt, now)})
	}
	out.KeyValues(rows)
}
