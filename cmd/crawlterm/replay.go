package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/odvcencio/crawlterm/pkg/bus"
	"github.com/odvcencio/crawlterm/pkg/config"
	"github.com/odvcencio/crawlterm/pkg/errors"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
	"github.com/odvcencio/crawlterm/pkg/terminal"
)

type sessionReplayer interface {
	Replay(ctx context.Context, prefix, sessionID string, fn func(*bus.Message) error) (int, error)
}

// runReplayCommand reads a session back from the NATS replay stream.
// By default it prints the telemetry timeline; --raw writes the game's
// terminal output instead, which redraws the session in a terminal.
func runReplayCommand(opts startupOptions, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	raw := fs.Bool("raw", false, "Write the recorded terminal output")
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, exitConfig)
	}
	if fs.NArg() != 1 {
		return withExitCode(fmt.Errorf("usage: crawlterm replay [--raw] <session-id>"), exitConfig)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if cfg.Bus.Kind != config.BusKindNATS {
		return withExitCode(fmt.Errorf("replay needs bus.kind: nats with bus.replay enabled"), exitConfig)
	}
	b, err := bus.Open(busConfig(cfg))
	if err != nil {
		return withExitCode(errors.Wrap(err, errors.ErrCodeBusConnect, "connect to bus").WithContext("url", cfg.Bus.URL), exitBus)
	}
	defer b.Close()
	nb, ok := b.(*bus.NATSBus)
	if !ok {
		return withExitCode(fmt.Errorf("replay needs a nats bus"), exitConfig)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return replaySession(ctx, os.Stdout, nb, cfg.Bus.SubjectPrefix, fs.Arg(0), *raw)
}

func replaySession(ctx context.Context, out io.Writer, r sessionReplayer, prefix, id string, raw bool) error {
	var (
		rows        [][]string
		outputBytes int
	)
	n, err := r.Replay(ctx, prefix, id, func(msg *bus.Message) error {
		switch subjectKind(msg.Subject) {
		case bus.KindOutput:
			outputBytes += len(msg.Data)
			if raw {
				_, err := out.Write(msg.Data)
				return err
			}
		case bus.KindTelemetry:
			var ev telemetry.Event
			if raw || json.Unmarshal(msg.Data, &ev) != nil {
				return nil
			}
			rows = append(rows, []string{
				ev.Timestamp.Local().Format("15:04:05.000"),
				string(ev.Type),
				formatEventData(ev.Data),
			})
		}
		return nil
	})
	if err != nil {
		return withExitCode(errors.Wrap(err, errors.ErrCodeBusConnect, "replay session").WithContext("session", id), exitBus)
	}
	if raw {
		return nil
	}

	w := terminal.NewWithOutput(out)
	if n == 0 {
		w.Dim("Nothing retained for session %s.", id)
		return nil
	}
	w.Header("Replay " + id)
	if len(rows) > 0 {
		w.Table([]string{"Time", "Event", "Data"}, rows)
	}
	w.Dim("%d messages, %d bytes of terminal output", n, outputBytes)
	return nil
}

// subjectKind returns the last token of a session subject.
func subjectKind(subject string) string {
	return subject[strings.LastIndexByte(subject, '.')+1:]
}
