package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/crawlterm/pkg/bus"
	"github.com/odvcencio/crawlterm/pkg/config"
	"github.com/odvcencio/crawlterm/pkg/errors"
	"github.com/odvcencio/crawlterm/pkg/ipc"
	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/prefs"
	"github.com/odvcencio/crawlterm/pkg/presentation"
	"github.com/odvcencio/crawlterm/pkg/storage"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
	tcellbackend "github.com/odvcencio/crawlterm/pkg/ui/backend/tcell"
	"github.com/odvcencio/crawlterm/pkg/ui/terminal"
)

// runPlay runs sessions until the player quits. Arguments, when given,
// name a game command that replaces the one in preferences.
func runPlay(opts startupOptions, args []string) error {
	if !isInteractiveTerminal() {
		return withExitCode(errors.New(errors.ErrCodeBackendInit, "crawlterm needs an interactive terminal"), exitTerminal)
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Process-wide events go to their own log; each launch gets one too.
	procLog, err := logging.NewLogger(cfg.Logging.Dir, "crawlterm")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "open log").WithContext("dir", cfg.Logging.Dir)
	}
	defer procLog.Close()
	procLog.SetMinLevel(logging.ParseLevel(cfg.Logging.Level))

	if cfg.Debug.TraceFile != "" {
		shutdown, err := startTracing(cfg.Debug.TraceFile)
		if err != nil {
			procLog.Warn(logging.CategorySession, "tracing_unavailable", err.Error(), map[string]any{"path": cfg.Debug.TraceFile})
		} else {
			defer shutdown()
		}
	}

	store, err := openStore(cfg, procLog)
	if err != nil {
		return err
	}
	defer store.Close()

	b, err := openBus(ctx, cfg, procLog)
	if err != nil {
		return err
	}
	defer b.Close()

	hub := telemetry.NewHub()
	defer hub.Close()

	prefStore := prefs.NewStore(cfg.Prefs.Path)

	scr, err := tcellbackend.New()
	if err != nil {
		return withExitCode(errors.Wrap(err, errors.ErrCodeBackendInit, "open terminal"), exitTerminal)
	}
	if err := scr.Init(); err != nil {
		return withExitCode(errors.Wrap(err, errors.ErrCodeBackendInit, "init terminal"), exitTerminal)
	}
	defer scr.Fini()

	g, gctx := errgroup.WithContext(ctx)
	uiCtx, uiDone := context.WithCancel(gctx)
	defer uiDone()

	events := make(chan terminal.Event, cfg.UI.EventBuffer)
	go pollEvents(scr, events, uiCtx.Done())

	var changes <-chan prefs.Change
	if cfg.Prefs.Watch {
		w, err := prefs.NewWatcher(prefStore, procLog)
		if err != nil {
			procLog.Warn(logging.CategoryPrefs, "watch_unavailable", err.Error(), nil)
		} else {
			changes = w.Changes()
			g.Go(func() error { return w.Run(uiCtx) })
		}
	}

	live := &liveSession{}
	g.Go(func() error {
		live.track(uiCtx, hub)
		return nil
	})

	if cfg.Debug.Addr != "" {
		if err := startDebugServer(uiCtx, g, cfg, b, store, live, procLog); err != nil {
			return err
		}
	}

	if cfg.UI.TickRate > 0 {
		g.Go(func() error {
			tick(uiCtx, scr, cfg.UI.TickRate)
			return nil
		})
	}

	transcript, err := logging.NewTranscript(cfg.Logging.Dir)
	if err != nil {
		procLog.Warn(logging.CategorySession, "transcript_unavailable", err.Error(), nil)
	}
	defer transcript.Close()

	l := &launcher{
		cfg:      cfg,
		prefs:    prefStore,
		store:    store,
		bus:      b,
		hub:      hub,
		platform: newTermPlatform(scr, prefStore, procLog),
		events:   events,
		changes:  changes,
		live:     live,

		transcript: transcript,
	}
	if len(args) > 0 {
		l.override = prefs.Game{Command: args[0], Args: args[1:]}
	}

	g.Go(func() error {
		// The player quitting ends everything else in the group.
		defer uiDone()
		err := presentation.NewLauncher(l.launch, procLog).Run(uiCtx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
	return g.Wait()
}

// startTracing exports spans to path until the returned func runs.
func startTracing(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	tp, err := telemetry.NewTracerProvider(f, "crawlterm", version)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
		_ = f.Close()
	}, nil
}

// openStore opens the session journal and prunes finished sessions
// past the retention window.
func openStore(cfg *config.Config, log *logging.Logger) (*storage.Store, error) {
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageWrite, "open session journal").WithContext("path", cfg.Storage.Path)
	}
	if cfg.Storage.Retention > 0 {
		pruned, err := store.PruneSessions(time.Now().Add(-cfg.Storage.Retention))
		if err != nil {
			log.Warn(logging.CategoryStorage, "prune_failed", err.Error(), nil)
		} else if pruned > 0 {
			log.Info(logging.CategoryStorage, "pruned", "pruned old sessions", map[string]any{"count": pruned})
		}
	}
	return store, nil
}

// openBus connects the mirror bus. A NATS bus that cannot be reached
// falls back to the in-process bus so the game still runs.
func openBus(ctx context.Context, cfg *config.Config, log *logging.Logger) (bus.MessageBus, error) {
	bcfg := busConfig(cfg)
	b, err := bus.Open(bcfg)
	if err != nil {
		if cfg.Bus.Kind != config.BusKindNATS {
			return nil, errors.Wrap(err, errors.ErrCodeBusConnect, "open bus")
		}
		log.Warn(logging.CategoryNetwork, "bus_fallback", err.Error(), map[string]any{"url": cfg.Bus.URL})
		return bus.NewMemoryBus(), nil
	}
	if nb, ok := b.(*bus.NATSBus); ok && cfg.Bus.Replay {
		if err := nb.EnsureReplayStream(ctx, cfg.Bus.SubjectPrefix, cfg.Bus.ReplayMaxAge); err != nil {
			log.Warn(logging.CategoryNetwork, "replay_unavailable", err.Error(), map[string]any{
				"stream": bus.ReplayStreamName(cfg.Bus.SubjectPrefix),
			})
		}
	}
	return b, nil
}

func busConfig(cfg *config.Config) bus.Config {
	bcfg := bus.DefaultConfig()
	bcfg.Kind = cfg.Bus.Kind
	bcfg.URL = cfg.Bus.URL
	return bcfg
}

// startDebugServer serves the debug endpoint in g. Spectators read the
// mirrored subjects back off the bus.
func startDebugServer(ctx context.Context, g *errgroup.Group, cfg *config.Config, b bus.MessageBus, store *storage.Store, live *liveSession, log *logging.Logger) error {
	hub := ipc.NewHub()
	if cfg.Debug.Spectators {
		bridge := ipc.NewBusBridge(b, hub, cfg.Bus.SubjectPrefix)
		if err := bridge.Start(ctx); err != nil {
			return errors.Wrap(err, errors.ErrCodeBusConnect, "subscribe spectator stream")
		}
		g.Go(func() error {
			<-ctx.Done()
			bridge.Stop()
			return nil
		})
	}
	srv := ipc.NewServer(ipc.Config{
		Addr:       cfg.Debug.Addr,
		Spectators: cfg.Debug.Spectators,
	}, hub, store, live.Status, log)
	g.Go(func() error { return srv.Start(ctx) })
	return nil
}

// pollEvents forwards backend events until the backend is finalized
// or done is closed.
func pollEvents(b interface{ PollEvent() terminal.Event }, out chan<- terminal.Event, done <-chan struct{}) {
	for {
		ev := b.PollEvent()
		if ev == nil {
			return
		}
		select {
		case out <- ev:
		case <-done:
			return
		}
	}
}

// tick wakes the presentation loop at rate so time based redraws show
// up without input.
func tick(ctx context.Context, b interface{ PostEvent(terminal.Event) error }, rate time.Duration) {
	t := time.NewTicker(rate)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = b.PostEvent(terminal.WakeEvent{})
		}
	}
}
