package indexing

import (
	"context"
	"io"
	"os"

	"github.com/standardbeagle/logidx/internal/debug"
	"github.com/standardbeagle/logidx/internal/types"
	"golang.org/x/sync/errgroup"
)

// block is one reader chunk (chunkSize bytes, ChunkSize by default),
// tagged with its absolute offset in the file.
type block struct {
	beginning types.LineOffset
	data      []byte
}

// runPipeline drives one reader goroutine and one serial parser goroutine
// over file, starting at startPos, until EOF or ctx is cancelled. The
// channel between them, sized prefetchDepth, is this engine's limiter: it
// bounds how many blocks the reader can get ahead of the parser, the same
// backpressure role the source's tbb::flow::limiter_node played between
// its source_node reader and its function_node parser.
//
// Grounded on IndexOperation::doIndex's tbb::flow::graph wiring in
// logdataworker.cpp, re-architected onto goroutines and a buffered channel
// per this engine's decision to replace Intel TBB's flow graph with
// errgroup and channels.
func runPipeline(ctx context.Context, file *os.File, startPos types.LineOffset, fileSize uint64, prefetchDepth int, chunkSize int64, dest *IndexingData, throughput *ThroughputTracker, onProgress func(int)) (*IndexingState, error) {
	if throughput != nil {
		throughput.Start()
	}
	if prefetchDepth < MinPrefetchDepth {
		prefetchDepth = MinPrefetchDepth
	}
	if prefetchDepth > MaxPrefetchDepth {
		prefetchDepth = MaxPrefetchDepth
	}
	if chunkSize <= 0 {
		chunkSize = ChunkSize
	}

	if _, err := file.Seek(int64(startPos), io.SeekStart); err != nil {
		return nil, err
	}

	state := &IndexingState{Pos: startPos}
	if guess, ok := dest.EncodingGuess(); ok {
		state.blockGuess = guess
		state.hasBlockGuess = true
	}

	blocks := make(chan block, prefetchDepth)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(blocks)
		buf := make([]byte, chunkSize)
		pos := int64(startPos)
		for {
			select {
			case <-gctx.Done():
				return nil
			default:
			}

			n, readErr := file.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				select {
				case blocks <- block{beginning: types.LineOffset(pos), data: data}:
				case <-gctx.Done():
					return nil
				}
				pos += int64(n)
			}
			if readErr != nil {
				if readErr == io.EOF {
					return nil
				}
				return readErr
			}
		}
	})

	g.Go(func() error {
		for b := range blocks {
			debug.LogIndexing("block %d start", b.beginning)

			state.GuessEncoding(b.data, dest)

			if len(b.data) > 0 {
				positions := Scan(b.beginning, b.data, state)
				guess, _ := state.BlockGuess()
				dest.AddAll(b.data, state.MaxLength, positions, guess)

				if throughput != nil {
					throughput.AddBytes(int64(len(b.data)))
					throughput.AddLines(int64(positions.Len()))
				}

				if onProgress != nil {
					onProgress(progressFor(state.Pos, fileSize))
				}
			} else {
				guess, _ := state.BlockGuess()
				dest.SetEncodingGuess(guess)
			}

			debug.LogIndexing("block %d done", b.beginning)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return state, err
	}
	return state, nil
}

func progressFor(pos types.LineOffset, fileSize uint64) int {
	if fileSize == 0 {
		return 100
	}
	return int(float64(pos) * 100.0 / float64(fileSize))
}
