package storage

import (
	"context"

	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
)

// Journal records one session's telemetry into the store.
type Journal struct {
	store   *Store
	writer  *BatchWriter
	session Session
	log     *logging.Logger
}

// OpenJournal creates the session row and returns a journal for it.
func OpenJournal(store *Store, session Session, log *logging.Logger) (*Journal, error) {
	if err := store.CreateSession(&session); err != nil {
		return nil, err
	}
	j := &Journal{store: store, session: session, log: log}
	j.writer = store.NewBatchWriter(0, 0, func(err error) {
		log.Warn(logging.CategoryStorage, "journal_flush_failed", err.Error(), map[string]any{"session_id": session.ID})
	})
	return j, nil
}

// Session returns the journaled session as created.
func (j *Journal) Session() Session { return j.session }

// Run journals the session's hub events until ctx ends or the hub closes.
func (j *Journal) Run(ctx context.Context, hub *telemetry.Hub) {
	if hub == nil {
		return
	}
	events, cancel := hub.Subscribe()
	defer cancel()
	j.Follow(ctx, events)
}

// Follow journals events from an existing subscription until ctx ends
// or events is closed. Events buffered before the close are still
// recorded.
func (j *Journal) Follow(ctx context.Context, events <-chan telemetry.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.SessionID != j.session.ID {
				continue
			}
			j.Record(ev)
		}
	}
}

// Record queues a single telemetry event.
func (j *Journal) Record(ev telemetry.Event) {
	err := j.writer.Add(&SessionEvent{
		SessionID: j.session.ID,
		Type:      string(ev.Type),
		SurfaceID: ev.SurfaceID,
		Data:      ev.Data,
		CreatedAt: ev.Timestamp,
	})
	if err != nil {
		j.log.Warn(logging.CategoryStorage, "journal_write_failed", err.Error(), map[string]any{"type": string(ev.Type)})
	}
}

// Close flushes pending events and marks the session ended.
func (j *Journal) Close(status string, exitErr error) error {
	if err := j.writer.Close(); err != nil {
		j.log.Warn(logging.CategoryStorage, "journal_flush_failed", err.Error(), nil)
	}
	return j.store.EndSession(j.session.ID, status, exitErr)
}
