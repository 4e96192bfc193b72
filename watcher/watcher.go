// Package watcher observes a flat directory of "<tag>-snapshot.json" files
// and reflects their contents into the snapshot core, one tag per file,
// debounced against bursts of filesystem events.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/catalystgov/snapshotcore/core"
)

// snapshotSuffix is the literal, position-sensitive filename suffix a file
// must end with to participate. A file named exactly "-snapshot.json" (empty
// tag) does not participate — see tagFromFilename.
const snapshotSuffix = "-snapshot.json"

// DefaultDebounce is the minimum interval between two reloads of the same
// tag triggered by filesystem events.
const DefaultDebounce = 100 * time.Millisecond

// ErrInvalidPath indicates the watched path exists and is not a directory.
var ErrInvalidPath = errors.New("watcher: path is not a directory")

// Updater is the subset of *core.UpdateHandle the watcher needs; tests
// substitute a fake.
type Updater interface {
	Update(ctx context.Context, tag string, snapshot core.SnapshotInfoInput) error
}

// ReloadObserver receives the outcome of each watcher reload.
// internal/metrics.Metrics satisfies this.
type ReloadObserver interface {
	ObserveReload(outcome string)
}

// Watcher watches one directory and reflects changes into a single
// Updater. It applies no locking of its own around calls into updater: the
// watcher is one of potentially several entry points into the same logical
// writer (e.g. alongside an HTTP PUT handler), and *core.UpdateHandle
// serializes concurrent Update calls internally.
type Watcher struct {
	dir      string
	updater  Updater
	debounce time.Duration
	log      *zap.Logger

	lastReload  map[string]time.Time
	lastReloadM sync.Mutex

	observer ReloadObserver

	fsw *fsnotify.Watcher
}

// WithObserver attaches a ReloadObserver, returning w for chaining.
func (w *Watcher) WithObserver(o ReloadObserver) *Watcher {
	w.observer = o
	return w
}

// SetDebounce overrides the default debounce window. d <= 0 is ignored.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// New constructs a Watcher over dir. It does not start watching; call
// Start.
func New(dir string, updater Updater, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		dir:        dir,
		updater:    updater,
		debounce:   DefaultDebounce,
		log:        log,
		lastReload: make(map[string]time.Time),
	}
}

// tagFromFilename returns (tag, true) if name participates in the snapshot
// convention, i.e. ends exactly with snapshotSuffix and the remaining
// prefix is non-empty.
func tagFromFilename(name string) (string, bool) {
	if !strings.HasSuffix(name, snapshotSuffix) {
		return "", false
	}
	tag := strings.TrimSuffix(name, snapshotSuffix)
	if tag == "" {
		return "", false
	}
	return tag, true
}

// Start ensures dir exists (creating it recursively if absent), performs an
// un-debounced initial scan of every matching file, then begins watching dir
// for filesystem events on a background goroutine. Canceling ctx or calling
// Close stops the watch loop; Start itself blocks only for the initial scan.
func (w *Watcher) Start(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(w.dir, 0o755); mkErr != nil {
			return errors.Wrap(mkErr, "watcher: create watch dir")
		}
	} else if err != nil {
		return errors.Wrap(err, "watcher: stat watch dir")
	} else if !info.IsDir() {
		return errors.Wrapf(ErrInvalidPath, "%s", w.dir)
	}

	if err := w.initialScan(ctx); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "watcher: create fsnotify watcher")
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return errors.Wrap(err, "watcher: watch dir")
	}
	w.fsw = fsw

	go w.consume(ctx)

	w.log.Info("watcher started", zap.String("dir", w.dir))
	return nil
}

// Close stops the background watch goroutine.
func (w *Watcher) Close() error {
	if w.fsw == nil {
		return nil
	}
	return w.fsw.Close()
}

func (w *Watcher) initialScan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return errors.Wrap(err, "watcher: read watch dir")
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		tag, ok := tagFromFilename(e.Name())
		if !ok {
			continue
		}
		// No debounce on the initial scan.
		w.reload(ctx, tag)
	}
	return nil
}

// relevantOp reports whether op should trigger a reload: metadata
// write/any, create, remove (disappearance treated as empty content),
// close-after-write (fsnotify folds this into Write on platforms that
// support it), and any rename leg.
func relevantOp(op fsnotify.Op) bool {
	return op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Chmod) != 0
}

func (w *Watcher) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevantOp(ev.Op) {
				continue
			}
			tag, ok := tagFromFilename(filepath.Base(ev.Name))
			if !ok {
				continue
			}
			w.maybeReload(ctx, tag)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher fsnotify error", zap.Error(err))
		}
	}
}

func (w *Watcher) maybeReload(ctx context.Context, tag string) {
	w.lastReloadM.Lock()
	last, seen := w.lastReload[tag]
	now := time.Now()
	if seen && now.Sub(last) < w.debounce {
		w.lastReloadM.Unlock()
		return
	}
	w.lastReload[tag] = now
	w.lastReloadM.Unlock()

	w.reload(ctx, tag)
}

// reload reads <tag>-snapshot.json, parses it, and applies it to the
// updater. A missing file is treated as an empty snapshot (the tag now has
// zero entries) and logged as a warning, not an error. A parse failure is
// logged and does not propagate — the watcher never terminates on a bad
// file.
func (w *Watcher) reload(ctx context.Context, tag string) {
	path := filepath.Join(w.dir, tag+snapshotSuffix)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		w.log.Warn("snapshot file missing, treating as empty", zap.String("tag", tag), zap.String("path", path))
		data = []byte("[]")
	} else if err != nil {
		w.log.Error("snapshot file read failed", zap.String("tag", tag), zap.Error(err))
		return
	}

	var input core.SnapshotInfoInput
	if err := json.Unmarshal(data, &input); err != nil {
		w.log.Error("snapshot file invalid JSON, skipping reload", zap.String("tag", tag), zap.Error(err))
		if w.observer != nil {
			w.observer.ObserveReload("invalid_format")
		}
		return
	}

	if err := w.updater.Update(ctx, tag, input); err != nil {
		w.log.Error("snapshot reload failed", zap.String("tag", tag), zap.Error(err))
		if w.observer != nil {
			w.observer.ObserveReload("error")
		}
		return
	}
	if w.observer != nil {
		w.observer.ObserveReload("ok")
	}

	if len(input) == 0 {
		// An empty reload removes the debounce entry so a subsequent
		// reload (e.g. the real file landing right after a remove event)
		// fires immediately instead of waiting out the window.
		w.lastReloadM.Lock()
		delete(w.lastReload, tag)
		w.lastReloadM.Unlock()
	}

	w.log.Info("snapshot reloaded", zap.String("tag", tag), zap.Int("bytes", len(data)), zap.Int("records", len(input)))
}
