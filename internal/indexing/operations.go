package indexing

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"

	"github.com/standardbeagle/logidx/internal/cache"
	"github.com/standardbeagle/logidx/internal/debug"
	idxerrors "github.com/standardbeagle/logidx/internal/errors"
	"github.com/standardbeagle/logidx/internal/types"
)

// doIndex opens path, runs the reader/parser pipeline from startPos to
// EOF, and appends a synthetic trailing line if the file ends without a
// final line feed. A file that cannot be opened is treated as empty
// rather than as an error: the index is cleared, the encoding guess
// falls back to the locale default, and progress jumps straight to 100.
//
// Grounded on IndexOperation::doIndex in logdataworker.cpp, including its
// file-open-failure-as-empty-file behavior, which this engine's decision
// log preserves verbatim rather than turning into a reported error.
func doIndex(ctx context.Context, dest *IndexingData, path string, startPos types.LineOffset, prefetchDepth int, chunkSize int64, throughput *ThroughputTracker, onProgress func(int)) bool {
	file, err := os.Open(path)
	if err != nil {
		debug.Log("indexing", "%v", idxerrors.NewIndexingError("open", path, err))
		dest.Clear()
		dest.SetEncodingGuess(localeDefaultEncoding())
		if onProgress != nil {
			onProgress(100)
		}
		return false
	}
	defer file.Close()

	info, statErr := file.Stat()
	var fileSize uint64
	if statErr == nil {
		fileSize = uint64(info.Size())
	}

	state, runErr := runPipeline(ctx, file, startPos, fileSize, prefetchDepth, chunkSize, dest, throughput, onProgress)
	interrupted := ctx.Err() != nil

	if runErr != nil && !interrupted {
		debug.Log("indexing", "%v", idxerrors.NewIndexingError("read", path, runErr))
	}

	if !interrupted && state != nil && fileSize > uint64(state.Pos) {
		debug.LogIndexing("non-LF-terminated file %s, adding synthetic trailing line", path)
		tail := &FastLinePositionArray{}
		tail.Append(types.LineOffset(fileSize + 1))
		tail.SetFakeFinalLF()
		guess, _ := state.BlockGuess()
		dest.AddAll(nil, 0, tail, guess)
	}

	if _, ok := dest.EncodingGuess(); !ok {
		dest.SetEncodingGuess(localeDefaultEncoding())
	}

	return interrupted
}

// localeDefaultEncoding stands in for QTextCodec::codecForLocale(): this
// engine has no locale-aware codec table, so the default is the same
// 8-bit fallback DetectEncoding uses when a block looks neither UTF-8 nor
// UTF-16.
func localeDefaultEncoding() types.Encoding {
	return types.EncodingLocale8Bit
}

// FullIndex clears dest and indexes path from byte 0, honoring forcedEncoding
// if it is not types.EncodingUnknown. Returns a completion result whose
// Completed is true on completion, false if ctx was cancelled first.
//
// Grounded on FullIndexOperation::start in logdataworker.cpp.
func FullIndex(ctx context.Context, dest *IndexingData, path string, forcedEncoding types.Encoding, prefetchDepth int, chunkSize int64, throughput *ThroughputTracker, onProgress func(int)) types.OperationResult {
	if onProgress != nil {
		onProgress(0)
	}

	dest.Clear()
	dest.ForceEncoding(forcedEncoding)

	interrupted := doIndex(ctx, dest, path, 0, prefetchDepth, chunkSize, throughput, onProgress)
	return types.CompletionResult(!interrupted)
}

// PartialIndex resumes indexing path from dest's current size, for a file
// that has grown since the last pass. dest retains everything it already
// holds; only the new tail is scanned.
//
// Grounded on PartialIndexOperation::start in logdataworker.cpp.
func PartialIndex(ctx context.Context, dest *IndexingData, path string, prefetchDepth int, chunkSize int64, throughput *ThroughputTracker, onProgress func(int)) types.OperationResult {
	if onProgress != nil {
		onProgress(0)
	}

	initialPosition := types.LineOffset(dest.Size())
	interrupted := doIndex(ctx, dest, path, initialPosition, prefetchDepth, chunkSize, throughput, onProgress)
	return types.CompletionResult(!interrupted)
}

// CheckFileChanges compares path's on-disk content against the hash dest
// recorded over [0, hash.Size), without touching dest. It distinguishes
// three outcomes: the file is unchanged, new bytes were appended past the
// indexed range, or the indexed range itself no longer matches (rotation,
// truncation, or a rewrite that happens to keep the same length).
//
// hc is an optional fast-path cache (pass nil to always read): a prior
// verification is only trusted again when this call observes the exact
// same (size, mtime) pair it was computed against, so a cache hit never
// substitutes for a fresh comparison when the file has actually moved.
//
// Grounded on CheckFileChangesOperation::start in logdataworker.cpp,
// including the size-only short-circuit (file smaller than the indexed
// hash can only mean truncation, so the bytes are never even read) and
// treating an open failure as truncation rather than as a distinct error.
func CheckFileChanges(path string, dest *IndexingData, hc *cache.HashCache) types.OperationResult {
	indexedHash := dest.Hash()

	info, err := os.Stat(path)
	if err != nil || uint64(info.Size()) < indexedHash.Size {
		debug.Log("indexing", "file truncated: %s", path)
		return types.FileStatusResult(types.FileTruncated)
	}
	realFileSize := uint64(info.Size())

	snapshotKey := fmt.Sprintf("%s:%d:%d", path, indexedHash.Size, info.ModTime().UnixNano())

	var realHash [types.HashSize]byte
	var cacheHit bool
	if hc != nil {
		if cached, ok := hc.Get(snapshotKey); ok {
			realHash = cached.Hash
			cacheHit = true
		}
	}

	if !cacheHit {
		file, err := os.Open(path)
		if err != nil {
			debug.Log("indexing", "%v", idxerrors.NewIndexingError("open", path, err))
			return types.FileStatusResult(types.FileTruncated)
		}
		defer file.Close()

		hasher := md5.New()
		buf := make([]byte, indexedHash.Size)
		var total uint64
		for total < indexedHash.Size {
			n, readErr := file.Read(buf)
			if n > 0 {
				hasher.Write(buf[:n])
				total += uint64(n)
			}
			if readErr != nil {
				if readErr == io.EOF {
					break
				}
				debug.Log("indexing", "%v", idxerrors.NewIndexingError("hash", path, readErr))
				break
			}
			if n == 0 && readErr == nil {
				break
			}
		}
		copy(realHash[:], hasher.Sum(nil))

		if hc != nil {
			hc.Put(snapshotKey, types.IndexedHash{Hash: realHash, Size: indexedHash.Size})
		}
	}

	if realHash != indexedHash.Hash {
		debug.Log("indexing", "file changed in indexed range: %s", path)
		return types.FileStatusResult(types.FileTruncated)
	}
	if realFileSize > indexedHash.Size {
		debug.LogIndexing("new data on disk: %s", path)
		return types.FileStatusResult(types.FileDataAdded)
	}
	debug.LogIndexing("no change in file: %s", path)
	return types.FileStatusResult(types.FileUnchanged)
}
