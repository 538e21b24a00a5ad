package indexing

import (
	"github.com/standardbeagle/logidx/internal/alloc"
	"github.com/standardbeagle/logidx/internal/types"
)

// FastLinePositionArray is the per-block, unshared accumulator BlockScanner
// appends to while scanning a single block. It is merged into the shared
// LinePositionArray with a single lock acquisition via IndexingData.AddAll,
// matching the source's FastLinePositionArray/append_list split between
// per-block scratch space and the shared index.
type FastLinePositionArray struct {
	positions   []types.LineOffset
	fakeFinalLF bool
}

// Append records a new line-start offset.
func (f *FastLinePositionArray) Append(offset types.LineOffset) {
	f.positions = append(f.positions, offset)
}

// SetFakeFinalLF marks the last appended entry (there must be exactly one,
// the synthetic trailing-line sentinel) as synthetic.
func (f *FastLinePositionArray) SetFakeFinalLF() {
	f.fakeFinalLF = true
}

// Len reports how many offsets this block contributed.
func (f *FastLinePositionArray) Len() int { return len(f.positions) }

// chunkSeedCapacity is the capacity of the first spillover chunk allocated
// once a LinePositionArray outgrows its inline storage; each later chunk
// requests twice the previous chunk's capacity, which the slab allocator
// may round up to its next tier.
const chunkSeedCapacity = 256

// inlineCapacity is the number of line-start offsets a LinePositionArray
// holds without touching the slab allocator at all, sized for short files
// and tail-of-log views that rarely exceed a handful of lines.
const inlineCapacity = 4

// LinePositionArray is the append-only, strictly-increasing sequence of
// line-start byte offsets backing a document's index. Physical layout is
// chunked: a small inline array plus slab-allocator-backed spillover
// chunks, so that files with hundreds of millions of lines amortize
// reallocation instead of repeatedly doubling one giant slice.
//
// Grounded on the inline+spillover split in the keystorm rope package's
// NewlineIndex, generalized from a single 256-byte chunk's newlines (at
// most 256, fits inline-or-small-slice) to an unbounded, ever-growing
// document index backed by this repository's generic SlabAllocator instead
// of a single plain slice.
type LinePositionArray struct {
	inline      [inlineCapacity]types.LineOffset
	inlineCount int

	chunks      [][]types.LineOffset
	boundaries  []int // cumulative element count after each chunk
	allocator   *alloc.SlabAllocator[types.LineOffset]
	fakeFinalLF bool
}

// NewLinePositionArray creates an empty array backed by a
// line-position-tuned slab allocator.
func NewLinePositionArray() *LinePositionArray {
	return &LinePositionArray{
		allocator: alloc.NewLinePositionSlabAllocator[types.LineOffset](),
	}
}

// Len returns the total number of line-start offsets recorded.
func (a *LinePositionArray) Len() int {
	total := a.inlineCount
	if len(a.boundaries) > 0 {
		total += a.boundaries[len(a.boundaries)-1]
	}
	return total
}

// At returns the offset for the given zero-based line number. O(1) for
// inline entries; spillover entries are found by a linear scan of the
// boundaries prefix-sum index, so O(number of chunks).
func (a *LinePositionArray) At(n types.LineNumber) types.LineOffset {
	idx := int(n)
	if idx < a.inlineCount {
		return a.inline[idx]
	}
	idx -= a.inlineCount

	chunk := 0
	base := 0
	for i, boundary := range a.boundaries {
		if idx < boundary {
			chunk = i
			if i > 0 {
				base = a.boundaries[i-1]
			}
			break
		}
	}
	return a.chunks[chunk][idx-base]
}

// AppendAll merges a block's local offsets into the shared array. Callers
// (IndexingData.AddAll) are responsible for serializing calls to this
// method; LinePositionArray itself performs no locking.
func (a *LinePositionArray) AppendAll(local *FastLinePositionArray) {
	if local.fakeFinalLF {
		a.fakeFinalLF = true
	}
	for _, offset := range local.positions {
		a.append(offset)
	}
}

func (a *LinePositionArray) append(offset types.LineOffset) {
	if a.inlineCount < inlineCapacity {
		a.inline[a.inlineCount] = offset
		a.inlineCount++
		return
	}

	if len(a.chunks) == 0 || len(a.chunks[len(a.chunks)-1]) == cap(a.chunks[len(a.chunks)-1]) {
		nextCap := chunkSeedCapacity
		if len(a.chunks) > 0 {
			nextCap = cap(a.chunks[len(a.chunks)-1]) * 2
		}
		a.chunks = append(a.chunks, a.allocator.Get(nextCap))
		a.boundaries = append(a.boundaries, a.currentTotal())
	}

	last := len(a.chunks) - 1
	a.chunks[last] = append(a.chunks[last], offset)
	a.boundaries[last]++
}

func (a *LinePositionArray) currentTotal() int {
	if len(a.boundaries) == 0 {
		return 0
	}
	return a.boundaries[len(a.boundaries)-1]
}

// FakeFinalLF reports whether the last entry is the synthetic
// non-LF-terminated-file sentinel rather than a real line terminator.
func (a *LinePositionArray) FakeFinalLF() bool { return a.fakeFinalLF }

// Clear releases all spillover chunks back to the allocator and resets the
// array to empty. Used by IndexingData.Clear at the start of a Full re-index.
func (a *LinePositionArray) Clear() {
	for _, chunk := range a.chunks {
		a.allocator.Put(chunk)
	}
	a.chunks = nil
	a.boundaries = nil
	a.inlineCount = 0
	a.fakeFinalLF = false
}
