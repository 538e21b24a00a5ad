package indexing

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/logidx/internal/debug"
	idxerrors "github.com/standardbeagle/logidx/internal/errors"
	"github.com/standardbeagle/logidx/internal/types"
)

// DocumentWatcher watches a single file's parent directory and calls back
// into a Worker whenever the file changes on disk, coalescing bursts of
// writes behind a debounce window (fsnotify on the directory, a per-path
// timer that resets on every new event, a single flush at quiet) before
// acting.
type DocumentWatcher struct {
	worker   *Worker
	debounce time.Duration

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu       sync.Mutex
	dir      string
	basename string
	timer    *time.Timer
	removed  bool
}

// NewDocumentWatcher returns a watcher that will debounce events for
// debounce before calling back into worker. Call Watch to begin.
func NewDocumentWatcher(worker *Worker, debounce time.Duration) *DocumentWatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &DocumentWatcher{
		worker:   worker,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Watch starts watching filepath.Dir(path) for events affecting path's
// basename. Only one path may be watched at a time; calling Watch again
// replaces the previous target.
func (dw *DocumentWatcher) Watch(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	dw.mu.Lock()
	dw.watcher = watcher
	dw.dir = dir
	dw.basename = filepath.Base(path)
	dw.removed = false
	dw.mu.Unlock()

	dw.wg.Add(1)
	go dw.run()

	debug.LogWatch("watching %s for changes to %s", dir, dw.basename)
	return nil
}

// Close stops the watcher and any pending debounce timer, and waits for
// the event loop to exit. A check whose timer has already fired is not
// waited for; it runs against a cancelled context.
func (dw *DocumentWatcher) Close() error {
	dw.cancel()

	dw.mu.Lock()
	if dw.timer != nil {
		dw.timer.Stop()
	}
	watcher := dw.watcher
	dw.mu.Unlock()

	var err error
	if watcher != nil {
		err = watcher.Close()
	}
	dw.wg.Wait()
	return err
}

func (dw *DocumentWatcher) watchedPath() string {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return filepath.Join(dw.dir, dw.basename)
}

func (dw *DocumentWatcher) run() {
	defer dw.wg.Done()

	for {
		select {
		case <-dw.ctx.Done():
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			dw.handleEvent(event)

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			debug.Warn("%v", idxerrors.NewWatchError(dw.watchedPath(), err))
		}
	}
}

func (dw *DocumentWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != dw.basename {
		return
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		dw.mu.Lock()
		dw.removed = true
		if dw.timer != nil {
			dw.timer.Stop()
			dw.timer = nil
		}
		dw.mu.Unlock()
		debug.LogWatch("%s removed or renamed, suspending checks until recreated", event.Name)

	case event.Op&fsnotify.Create != 0:
		dw.mu.Lock()
		dw.removed = false
		dw.mu.Unlock()
		dw.scheduleCheck()

	case event.Op&fsnotify.Write != 0:
		dw.mu.Lock()
		suspended := dw.removed
		dw.mu.Unlock()
		if !suspended {
			dw.scheduleCheck()
		}
	}
}

func (dw *DocumentWatcher) scheduleCheck() {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.timer != nil {
		dw.timer.Stop()
	}
	dw.timer = time.AfterFunc(dw.debounce, dw.runCheck)
}

func (dw *DocumentWatcher) runCheck() {
	if dw.ctx.Err() != nil {
		return
	}

	switch dw.worker.CheckFileChanges(dw.ctx) {
	case types.FileDataAdded:
		dw.worker.IndexAdditionalLines(dw.ctx)
	case types.FileTruncated:
		dw.worker.IndexAll(dw.ctx, types.EncodingUnknown)
	}
}
