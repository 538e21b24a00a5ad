package indexing

import (
	"crypto/md5"
	"hash"
	"sync"

	"github.com/standardbeagle/logidx/internal/types"
)

// IndexingData is the shared index a Worker writes to and any number of
// readers observe concurrently. Every accessor acquires dataMu; write
// operations (Clear, AddAll, SetEncodingGuess, ForceEncoding) are the only
// ones that mutate state, and AddAll advances size, line positions and the
// incremental hash atomically under one lock acquisition so a reader never
// observes them out of sync with each other.
//
// Grounded 1:1 on IndexingData's mutex-guarded getters/setters/addAll/clear
// in logdataworker.cpp. Methods return values, never pointers into internal
// state, so no caller can hold a reference across the critical section.
type IndexingData struct {
	dataMu sync.Mutex

	linePositions  *LinePositionArray
	maxLength      types.LineLength
	hash           types.IndexedHash
	runningHash    hash.Hash
	encodingGuess  types.Encoding
	encodingForced types.Encoding
	hasGuess       bool
	hasForced      bool
}

// NewIndexingData returns an empty, ready-to-use IndexingData.
func NewIndexingData() *IndexingData {
	return &IndexingData{
		linePositions: NewLinePositionArray(),
		runningHash:   md5.New(),
	}
}

// Size returns the number of bytes the index has consumed so far.
func (d *IndexingData) Size() uint64 {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	return d.hash.Size
}

// Hash returns the content fingerprint covering [0, Size()).
func (d *IndexingData) Hash() types.IndexedHash {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	return d.hash
}

// MaxLength returns the largest tab-expanded display width observed.
func (d *IndexingData) MaxLength() types.LineLength {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	return d.maxLength
}

// NbLines returns the number of line-start offsets recorded.
func (d *IndexingData) NbLines() types.LinesCount {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	return types.LinesCount(d.linePositions.Len())
}

// PosForLine returns the byte offset of the given line.
func (d *IndexingData) PosForLine(line types.LineNumber) types.LineOffset {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	return d.linePositions.At(line)
}

// FakeFinalLF reports whether the last recorded line is the synthetic
// non-LF-terminated-file sentinel.
func (d *IndexingData) FakeFinalLF() bool {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	return d.linePositions.FakeFinalLF()
}

// EncodingGuess returns the detector's most recent guess, if any.
func (d *IndexingData) EncodingGuess() (types.Encoding, bool) {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	return d.encodingGuess, d.hasGuess
}

// ForcedEncoding returns the user override, if any.
func (d *IndexingData) ForcedEncoding() (types.Encoding, bool) {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	return d.encodingForced, d.hasForced
}

// SetEncodingGuess records the detector's latest guess.
func (d *IndexingData) SetEncodingGuess(enc types.Encoding) {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	d.encodingGuess = enc
	d.hasGuess = true
}

// ForceEncoding records a user override that wins over future guesses.
// Passing types.EncodingUnknown clears the override.
func (d *IndexingData) ForceEncoding(enc types.Encoding) {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	if enc == types.EncodingUnknown {
		d.hasForced = false
		return
	}
	d.encodingForced = enc
	d.hasForced = true
}

// AddAll commits one block's scan results: the new maximum line length, the
// block's line-start offsets, and the block's bytes folded into the running
// MD5 and size. All three advance together under a single lock acquisition,
// which is the invariant the rest of the engine depends on: "size,
// line_positions, and hash advance atomically per block."
func (d *IndexingData) AddAll(block []byte, length types.LineLength, positions *FastLinePositionArray, encodingGuess types.Encoding) {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()

	d.maxLength = d.maxLength.Max(length)
	d.linePositions.AppendAll(positions)

	if len(block) > 0 {
		d.runningHash.Write(block)
		copy(d.hash.Hash[:], d.runningHash.Sum(nil))
		d.hash.Size += uint64(len(block))
	}

	d.encodingGuess = encodingGuess
	d.hasGuess = true
}

// Clear resets the index to empty, releasing spillover chunks back to the
// allocator. Called at the start of FullIndex and on file-open failure.
func (d *IndexingData) Clear() {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()

	d.maxLength = 0
	d.hash = types.IndexedHash{}
	d.runningHash.Reset()
	d.linePositions.Clear()
	d.hasGuess = false
	d.hasForced = false
}
