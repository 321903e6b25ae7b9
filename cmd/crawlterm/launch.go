package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/odvcencio/crawlterm/pkg/bridge"
	"github.com/odvcencio/crawlterm/pkg/bus"
	"github.com/odvcencio/crawlterm/pkg/config"
	"github.com/odvcencio/crawlterm/pkg/dialog"
	"github.com/odvcencio/crawlterm/pkg/engine"
	"github.com/odvcencio/crawlterm/pkg/engine/demo"
	"github.com/odvcencio/crawlterm/pkg/engine/ptyengine"
	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/message"
	"github.com/odvcencio/crawlterm/pkg/prefs"
	"github.com/odvcencio/crawlterm/pkg/presentation"
	"github.com/odvcencio/crawlterm/pkg/session"
	"github.com/odvcencio/crawlterm/pkg/storage"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
	"github.com/odvcencio/crawlterm/pkg/termbuf"
	"github.com/odvcencio/crawlterm/pkg/ui/terminal"
)

const (
	engineDemo = "demo"
	// transcriptBuffer bounds the lines waiting for the transcript file.
	transcriptBuffer = 64
)

// launcher holds what outlives a single launch and builds the rest
// fresh for each one.
type launcher struct {
	cfg      *config.Config
	prefs    *prefs.Store
	store    *storage.Store
	bus      bus.MessageBus
	hub      *telemetry.Hub
	platform presentation.Platform
	events   <-chan terminal.Event
	changes  <-chan prefs.Change
	live     *liveSession

	// transcript may be nil.
	transcript *logging.Transcript

	// override replaces the game from preferences for every launch.
	override prefs.Game
	// newLogger is replaced in tests.
	newLogger func(sessionID string) (*logging.Logger, error)
}

func (l *launcher) logger(sessionID string) (*logging.Logger, error) {
	if l.newLogger != nil {
		return l.newLogger(sessionID)
	}
	log, err := logging.NewLogger(l.cfg.Logging.Dir, sessionID)
	if err != nil {
		return nil, err
	}
	log.SetMinLevel(logging.ParseLevel(l.cfg.Logging.Level))
	return log, nil
}

// game resolves the profile for this launch and builds its engine.
func (l *launcher) game(log *logging.Logger) (prefs.Game, engine.Engine) {
	snap, errs := prefs.Read(l.prefs)
	for _, err := range errs {
		if !errors.Is(err, prefs.ErrUnset) {
			log.Warn(logging.CategoryPrefs, "fallback", err.Error(), nil)
		}
	}
	game := snap.Game
	if l.override.Command != "" {
		game = l.override
	}
	if game.Command == "" || game.Command == engineDemo {
		return prefs.Game{Command: engineDemo, Profile: game.Profile}, demo.New(uint64(time.Now().UnixNano()))
	}
	return game, ptyengine.New(ptyengine.Config{
		Command: game.Command,
		Args:    game.Args,
		Logger:  log,
	})
}

// launch is the presentation.Factory. Everything it starts is stopped
// by the release func it returns.
func (l *launcher) launch(ctx context.Context, n int) (*presentation.Controller, func(), error) {
	id := session.NewID()
	log, err := l.logger(id)
	if err != nil {
		return nil, nil, err
	}

	game, eng := l.game(log)
	br := bridge.New(log)
	mirror := bus.NewMirror(l.bus, l.cfg.Bus.SubjectPrefix, id, log)
	br.Observe(mirror.Observe)
	notes := newTranscriber(l.transcript, log)
	br.Observe(notes.Observe)

	var (
		exitMu  sync.Mutex
		exitErr error
	)
	sess := session.New(eng, br, session.Options{
		ID:     id,
		Rows:   l.cfg.Engine.Rows,
		Cols:   l.cfg.Engine.Cols,
		Logger: log,
		Hub:    l.hub,
		OnEngineExit: func(err error) {
			exitMu.Lock()
			exitErr = err
			exitMu.Unlock()
		},
	})

	journal, err := storage.OpenJournal(l.store, storage.Session{
		ID:     id,
		Game:   gameLabel(game),
		Engine: engineName(game),
		Launch: n + 1,
	}, log)
	if err != nil {
		sess.Close()
		notes.Close()
		_ = log.Close()
		return nil, nil, err
	}

	ctrl := presentation.New(presentation.Config{
		Session:      sess,
		Bridge:       br,
		Prefs:        l.prefs,
		Platform:     l.platform,
		Grid:         termbuf.New(l.cfg.Engine.Rows, l.cfg.Engine.Cols),
		Dialogs:      dialog.NewManager(),
		Events:       l.events,
		PrefsChanges: l.changes,
		Title:        gameLabel(game),
		Logger:       log,
		Hub:          l.hub,
	})

	// Subscribe before the controller starts the session so the journal
	// and mirror see its first events. Closing the subscriptions in
	// release lets both drain what is buffered, so they run detached
	// from ctx.
	followCtx := context.WithoutCancel(ctx)
	journalEvents, stopJournal := l.hub.Subscribe()
	mirrorEvents, stopMirror := l.hub.Subscribe()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		journal.Follow(followCtx, journalEvents)
	}()
	go func() {
		defer wg.Done()
		mirror.Follow(followCtx, mirrorEvents)
	}()

	statusSub, err := mirror.ServeStatus(ctx, func() bus.Status {
		st, _ := l.live.Status()
		return st
	})
	if err != nil {
		log.Warn(logging.CategoryNetwork, "status_unavailable", err.Error(), nil)
	}
	l.live.set(ctrl, br)

	if err := l.transcript.Begin(id, gameLabel(game)); err != nil {
		log.Warn(logging.CategorySession, "transcript_failed", err.Error(), nil)
	}
	log.Info(logging.CategorySession, "launch", "session launched", map[string]any{
		"launch": n,
		"game":   gameLabel(game),
		"engine": engineName(game),
	})

	release := func() {
		sess.Close()
		notes.Close()
		l.live.clear(ctrl)
		if statusSub != nil {
			_ = statusSub.Unsubscribe()
		}
		stopJournal()
		stopMirror()
		wg.Wait()

		exitMu.Lock()
		err := exitErr
		exitMu.Unlock()
		status := journalStatus(ctrl.Outcome(), err)
		_ = l.transcript.Write("session " + status)
		if cerr := journal.Close(status, err); cerr != nil {
			log.Warn(logging.CategoryStorage, "journal_close_failed", cerr.Error(), nil)
		}
		_ = log.Close()
	}
	return ctrl, release, nil
}

// transcriber writes the dialogs the game shows and engine exits to
// the transcript from its own goroutine, so posting never waits on the
// file. Lines are dropped when the writer falls behind.
type transcriber struct {
	transcript *logging.Transcript
	log        *logging.Logger
	lines      chan string
	done       chan struct{}

	mu     sync.RWMutex
	closed bool
}

func newTranscriber(t *logging.Transcript, log *logging.Logger) *transcriber {
	tr := &transcriber{
		transcript: t,
		log:        log,
		lines:      make(chan string, transcriptBuffer),
		done:       make(chan struct{}),
	}
	go tr.run()
	return tr
}

func (tr *transcriber) run() {
	defer close(tr.done)
	for line := range tr.lines {
		if err := tr.transcript.Write(line); err != nil {
			tr.log.Debug(logging.CategorySession, "transcript_write_failed", err.Error(), nil)
		}
	}
}

// Observe is a bridge.Observer.
func (tr *transcriber) Observe(env message.Envelope) {
	line, ok := transcriptLine(env.Msg)
	if !ok {
		return
	}
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	if tr.closed {
		return
	}
	select {
	case tr.lines <- line:
	default:
		tr.log.Debug(logging.CategorySession, "transcript_dropped", "transcript writer behind", map[string]any{"seq": env.Seq})
	}
}

// Close writes what is queued and stops the writer.
func (tr *transcriber) Close() {
	tr.mu.Lock()
	if !tr.closed {
		tr.closed = true
		close(tr.lines)
	}
	tr.mu.Unlock()
	<-tr.done
}

func transcriptLine(msg message.Message) (string, bool) {
	switch m := msg.(type) {
	case message.DialogShow:
		var b strings.Builder
		b.WriteString(m.Dialog.Title)
		for _, line := range m.Dialog.Lines {
			b.WriteString("\n" + line)
		}
		for _, opt := range m.Dialog.Options {
			fmt.Fprintf(&b, "\n%c) %s", opt.Key, opt.Label)
		}
		return b.String(), true
	case message.EngineExited:
		if m.Err != nil {
			return "engine exited: " + m.Err.Error(), true
		}
		return "engine exited", true
	}
	return "", false
}

func journalStatus(outcome presentation.Outcome, exitErr error) string {
	switch {
	case exitErr != nil:
		return storage.SessionStatusFailed
	case outcome == presentation.OutcomeRelaunch:
		return storage.SessionStatusRelaunched
	default:
		return storage.SessionStatusCompleted
	}
}

func engineName(game prefs.Game) string {
	if game.Command == engineDemo {
		return engineDemo
	}
	return "pty"
}

func gameLabel(game prefs.Game) string {
	if game.Profile != "" {
		return game.Profile
	}
	if game.Command == engineDemo {
		return "crawlterm demo"
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s", game.Command, strings.Join(game.Args, " ")))
}
