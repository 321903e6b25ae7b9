package prefs

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/odvcencio/crawlterm/pkg/errors"
	"github.com/odvcencio/crawlterm/pkg/logging"
)

const defaultDebounce = 150 * time.Millisecond

// Watcher turns edits of the preferences file into Change notifications.
// Writes made through the Store itself are not reported.
type Watcher struct {
	store    *Store
	fs       *fsnotify.Watcher
	changes  chan Change
	log      *logging.Logger
	debounce time.Duration
}

// NewWatcher watches the directory holding the store's file, so that
// editors replacing the file by rename are seen too.
func NewWatcher(store *Store, log *logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePrefsRead, "create preferences watcher")
	}
	dir := filepath.Dir(store.Path())
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, errors.Wrap(err, errors.ErrCodePrefsRead, "watch preferences dir").WithContext("dir", dir)
	}
	return &Watcher{
		store:    store,
		fs:       fw,
		changes:  make(chan Change, 1),
		log:      log,
		debounce: defaultDebounce,
	}, nil
}

// Changes delivers rebuild and reload notifications. Pending changes
// are merged: a reload absorbs a rebuild.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Run processes file events until ctx ends, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	name := filepath.Clean(w.store.Path())
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn(logging.CategoryPrefs, "watch_error", err.Error(), nil)
		case <-fire:
			fire = nil
			w.reconcile()
		}
	}
}

func (w *Watcher) reconcile() {
	change, snap := w.store.Reconcile()
	if change == ChangeNone {
		return
	}
	w.log.Info(logging.CategoryPrefs, "changed", "preferences file changed", map[string]any{
		"change":      change.String(),
		"orientation": string(snap.Orientation),
	})
	w.emit(change)
}

func (w *Watcher) emit(change Change) {
	for {
		select {
		case w.changes <- change:
			return
		default:
		}
		select {
		case prev := <-w.changes:
			change = max(change, prev)
		default:
		}
	}
}
