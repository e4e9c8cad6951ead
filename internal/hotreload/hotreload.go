// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hotreload watches an artifact's directory for the builder's
// atomic create-then-rename publish (ngram.Builder.WriteFile) and
// swaps in the freshly built Storage without disrupting queries that
// are already in flight against the old one. Grounded on
// standardbeagle-lci's internal/indexing.FileWatcher: a single
// goroutine draining fsnotify's Events/Errors channels until a
// context is cancelled, here without the debouncer since a rename is
// already a single atomic event.
package hotreload

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mideind/icegrams/internal/ngram"
)

// entry pins one generation of the artifact. refs starts at 1,
// representing the Watcher's own hold on "the current generation";
// Acquire adds one ref per in-flight caller. The underlying Storage is
// closed only when refs reaches zero, which happens either when the
// Watcher swaps to a newer generation and every caller still using
// this one has released it, or when the Watcher itself is closed.
type entry struct {
	storage *ngram.Storage
	refs    atomic.Int64
}

func (e *entry) retain() { e.refs.Add(1) }

func (e *entry) release() {
	if e.refs.Add(-1) == 0 {
		e.storage.Close()
	}
}

// Watcher holds a live, swappable *ngram.Storage backed by one
// artifact file, reopening it whenever a new file is atomically
// published at the same path.
type Watcher struct {
	path     string
	alphabet *ngram.Alphabet
	logger   *zap.Logger

	current atomic.Pointer[entry]

	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

// New opens path and starts watching its parent directory for
// replacement. The returned Watcher owns the initial Storage; callers
// must eventually call Close.
func New(path string, alphabet *ngram.Alphabet, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	st, err := ngram.Open(path, alphabet)
	if err != nil {
		return nil, fmt.Errorf("hotreload: initial open: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("hotreload: fsnotify: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		st.Close()
		return nil, fmt.Errorf("hotreload: watch %s: %w", filepath.Dir(path), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:     path,
		alphabet: alphabet,
		logger:   logger,
		fsw:      fsw,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	first := &entry{storage: st}
	first.refs.Store(1)
	w.current.Store(first)

	go w.run(ctx)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("hotreload: watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	st, err := ngram.Open(w.path, w.alphabet)
	if err != nil {
		w.logger.Warn("hotreload: reopen failed, keeping current generation",
			zap.String("path", w.path), zap.Error(err))
		return
	}
	next := &entry{storage: st}
	next.refs.Store(1)
	old := w.current.Swap(next)
	w.logger.Info("hotreload: swapped artifact", zap.String("path", w.path))
	if old != nil {
		old.release()
	}
}

// Acquire returns the current generation's Storage along with a
// release function the caller must invoke exactly once when done. The
// Storage remains valid until release is called, even if a newer
// generation is swapped in meanwhile.
func (w *Watcher) Acquire() (*ngram.Storage, func()) {
	e := w.current.Load()
	e.retain()
	return e.storage, e.release
}

// Close stops watching and releases the Watcher's own hold on the
// current generation; the underlying Storage is closed once every
// caller that has acquired it has released it.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fsw.Close()
	<-w.done
	if e := w.current.Swap(nil); e != nil {
		e.release()
	}
	return err
}
