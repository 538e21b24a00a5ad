package indexing

import (
	"context"
	"sync"

	"github.com/standardbeagle/logidx/internal/cache"
	"github.com/standardbeagle/logidx/internal/types"
)

// EventKind discriminates the three events a Worker delivers over its
// event channel, mirroring the tagged union an IndexOperation returns.
type EventKind int

const (
	EventProgress EventKind = iota
	EventIndexingFinished
	EventCheckFileChangesFinished
)

// Event is one progress or completion notification from a Worker.
// Progress is meaningful only for EventProgress, Status only for
// EventIndexingFinished, FileStatus only for EventCheckFileChangesFinished.
type Event struct {
	Kind       EventKind
	Progress   int
	Status     types.LoadingStatus
	FileStatus types.FileStatus
}

// Worker schedules at most one indexing operation at a time against a
// single attached file path and its IndexingData, delivering progress and
// completion notifications over a buffered channel. Scheduling a second
// operation while one is in flight blocks until the first finishes.
//
// Grounded on LogDataWorker's operationRequested/operationDone handling in
// logdataworker.cpp, re-architected from Qt signals/slots onto a Go
// channel of events per this engine's decision to replace the signal bus
// with channels throughout.
type Worker struct {
	opMu sync.Mutex

	mu     sync.Mutex
	path   string
	cancel context.CancelFunc

	data          *IndexingData
	prefetchDepth int
	chunkSize     int64
	events        chan Event
	throughput    *ThroughputTracker
	hashCache     *cache.HashCache
}

// NewWorker creates a Worker with an empty index and the given prefetch
// depth, clamped to [MinPrefetchDepth, MaxPrefetchDepth] by the pipeline.
// The reader's chunk size defaults to ChunkSize; override it with
// SetChunkSize.
func NewWorker(prefetchDepth int) *Worker {
	return &Worker{
		data:          NewIndexingData(),
		prefetchDepth: prefetchDepth,
		chunkSize:     ChunkSize,
		events:        make(chan Event, 64),
		throughput:    NewThroughputTracker(),
		hashCache:     cache.NewHashCache(cache.DefaultHashCacheTTL),
	}
}

// SetChunkSize overrides the number of bytes the reader goroutine asks for
// per read. Has no effect on an operation already in flight.
func (w *Worker) SetChunkSize(bytes int64) {
	w.mu.Lock()
	w.chunkSize = bytes
	w.mu.Unlock()
}

// ChunkSize returns the reader's current chunk size.
func (w *Worker) ChunkSize() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chunkSize
}

// Throughput returns the tracker measuring the most recently run (or
// currently running) operation's bytes- and lines-per-second rate.
func (w *Worker) Throughput() *ThroughputTracker {
	return w.throughput
}

// Attach records the file path subsequent operations target. It does not
// itself read the file or touch the index.
func (w *Worker) Attach(path string) {
	w.mu.Lock()
	w.path = path
	w.mu.Unlock()
}

// Path returns the currently attached file path.
func (w *Worker) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Data returns the shared IndexingData this worker writes to. Safe to
// read concurrently with an in-flight operation; IndexingData guards
// itself.
func (w *Worker) Data() *IndexingData {
	return w.data
}

// Events returns the channel progress and completion notifications are
// delivered on. The channel is never closed by the Worker.
func (w *Worker) Events() <-chan Event {
	return w.events
}

// Interrupt requests cancellation of whatever operation is currently
// running. It returns immediately; the operation observes the request at
// its next chunk boundary and reports LoadingInterrupted. A call with no
// operation in flight is a no-op.
func (w *Worker) Interrupt() {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// IndexAll schedules a FullIndex, optionally forcing an encoding. Pass
// types.EncodingUnknown to leave the encoding to auto-detection. Returns
// true on completion, false if interrupted; the same outcome is also
// delivered as an EventIndexingFinished over Events.
func (w *Worker) IndexAll(ctx context.Context, forcedEncoding types.Encoding) bool {
	result := w.runOperation(ctx, func(opCtx context.Context) types.OperationResult {
		path := w.Path()
		return FullIndex(opCtx, w.data, path, forcedEncoding, w.prefetchDepth, w.ChunkSize(), w.throughput, w.emitProgress)
	})
	return result.Completed
}

// IndexAdditionalLines schedules a PartialIndex, resuming from the index's
// current size. Intended for a file that has only grown since the last
// pass. Returns true on completion, false if interrupted.
func (w *Worker) IndexAdditionalLines(ctx context.Context) bool {
	result := w.runOperation(ctx, func(opCtx context.Context) types.OperationResult {
		path := w.Path()
		return PartialIndex(opCtx, w.data, path, w.prefetchDepth, w.ChunkSize(), w.throughput, w.emitProgress)
	})
	return result.Completed
}

// CheckFileChanges schedules a change-detection pass against the attached
// file, without mutating the index. ctx governs only scheduling; the
// check itself is a single bounded read and is not cancelled mid-flight.
// Returns the detected status directly, in addition to delivering it as
// an EventCheckFileChangesFinished over Events.
func (w *Worker) CheckFileChanges(ctx context.Context) types.FileStatus {
	result := w.runOperation(ctx, func(_ context.Context) types.OperationResult {
		return CheckFileChanges(w.Path(), w.data, w.hashCache)
	})
	return result.FileStatus
}

// runOperation serializes access: only one operation runs at a time, and
// scheduling a new one waits for the previous to finish before clearing
// the interrupt flag (a fresh, uncancelled context) and launching.
func (w *Worker) runOperation(ctx context.Context, fn func(context.Context) types.OperationResult) types.OperationResult {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	opCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	result := fn(opCtx)

	cancel()
	w.mu.Lock()
	w.cancel = nil
	w.mu.Unlock()

	w.dispatch(result)
	return result
}

func (w *Worker) dispatch(result types.OperationResult) {
	switch result.Kind {
	case types.ResultCompletion:
		status := types.LoadingSuccessful
		if !result.Completed {
			status = types.LoadingInterrupted
		}
		w.emit(Event{Kind: EventIndexingFinished, Status: status})
	case types.ResultFileStatus:
		w.emit(Event{Kind: EventCheckFileChangesFinished, FileStatus: result.FileStatus})
	}
}

func (w *Worker) emitProgress(percent int) {
	w.emit(Event{Kind: EventProgress, Progress: percent})
}

// emit is non-blocking: a Worker with nobody draining Events() drops
// events rather than stalling the pipeline, which is an acceptable
// coalescing of duplicate or unread progress updates.
func (w *Worker) emit(e Event) {
	select {
	case w.events <- e:
	default:
	}
}
