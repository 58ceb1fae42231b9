package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/postconf/internal/checksum"
	"github.com/starford/postconf/internal/storage"
)

// Change kinds passed to EventCallback.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

const (
	// reconcileDelay debounces the full pass that follows renames.
	reconcileDelay = 200 * time.Millisecond
	// settleDelay is how long a created or written file must stay quiet
	// before it is read. An O_EXCL create reports Create before any bytes
	// land, and a save through the session indexes the file itself within
	// this window, so the settled pass finds a matching checksum.
	settleDelay = 150 * time.Millisecond
)

// EventCallback is called after a watcher-driven index change.
type EventCallback func(kind string, path string)

// Watch keeps the index in step with the output directory until ctx is
// cancelled. Posts are always written at the top level, so only the root
// is watched. cb, if non-nil, runs after each index mutation.
//
// fsnotify reports a rename on the old name only; the old entry is
// dropped at once and a debounced Sync-style pass picks up the new name.
func Watch(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	root := store.Root()
	if err := fw.Add(root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root))

	w := &watcher{db: db, store: store, logger: logger, cb: cb, pending: make(map[string]struct{})}

	reconcile := time.NewTimer(reconcileDelay)
	reconcile.Stop()
	defer reconcile.Stop()

	settle := time.NewTimer(settleDelay)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case <-reconcile.C:
			w.reconcile()

		case <-settle.C:
			w.flush()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			switch w.handle(root, ev) {
			case needReconcile:
				reconcile.Reset(reconcileDelay)
			case needSettle:
				settle.Reset(settleDelay)
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

type watcher struct {
	db      *DB
	store   storage.Provider
	logger  *slog.Logger
	cb      EventCallback
	pending map[string]struct{}
}

type followUp int

const (
	noFollowUp followUp = iota
	needSettle
	needReconcile
)

func (w *watcher) notify(kind, path string) {
	w.logger.Debug("watcher: "+kind, slog.String("path", path))
	if w.cb != nil {
		w.cb(kind, path)
	}
}

// handle applies one event and reports which deferred pass it needs.
// Creates and writes are only queued; flush indexes them once quiet.
func (w *watcher) handle(root string, ev fsnotify.Event) followUp {
	name := filepath.Base(ev.Name)
	if filepath.Dir(ev.Name) != root || !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, ".") {
		return noFollowUp
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.pending[name] = struct{}{}
		return needSettle

	case ev.Op&fsnotify.Remove != 0:
		delete(w.pending, name)
		if err := w.db.DeletePost(name); err != nil {
			w.logger.Warn("watcher: delete failed", slog.String("path", name), slog.String("error", err.Error()))
			return noFollowUp
		}
		w.notify(ChangeDeleted, name)

	case ev.Op&fsnotify.Rename != 0:
		delete(w.pending, name)
		if err := w.db.DeletePost(name); err != nil {
			w.logger.Warn("watcher: rename delete failed", slog.String("path", name), slog.String("error", err.Error()))
		} else {
			w.notify(ChangeDeleted, name)
		}
		return needReconcile
	}
	return noFollowUp
}

// flush indexes every queued file whose content differs from the index.
// Files the index already holds with the same checksum produce no event.
func (w *watcher) flush() {
	for name := range w.pending {
		delete(w.pending, name)

		data, err := w.store.Read(name)
		if err != nil {
			// Removed again before we got to it; the Remove event handles it.
			w.logger.Debug("watcher: read failed", slog.String("path", name), slog.String("error", err.Error()))
			continue
		}
		prev, _ := w.db.GetChecksum(name)
		if checksum.Matches(data, prev) {
			continue
		}
		if err := IndexFile(w.db, name, data); err != nil {
			w.logger.Warn("watcher: index failed", slog.String("path", name), slog.String("error", err.Error()))
			continue
		}
		if prev == "" {
			w.notify(ChangeCreated, name)
		} else {
			w.notify(ChangeUpdated, name)
		}
	}
}

// reconcile drops index entries whose file is gone and indexes files the
// index has not seen or that changed.
func (w *watcher) reconcile() {
	checksums, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	files, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(files))
	for _, f := range files {
		disk[f.Path] = f.Checksum
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := w.db.DeletePost(p); err == nil {
			w.notify(ChangeDeleted, p)
		}
	}

	for p, cs := range disk {
		prev, known := checksums[p]
		if prev == cs {
			continue
		}
		data, err := w.store.Read(p)
		if err != nil {
			continue
		}
		if err := IndexFile(w.db, p, data); err != nil {
			continue
		}
		if known {
			w.notify(ChangeUpdated, p)
		} else {
			w.notify(ChangeCreated, p)
		}
	}
}
