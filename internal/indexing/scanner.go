package indexing

import (
	"bytes"

	"github.com/standardbeagle/logidx/internal/types"
)

// IndexingState is the scan cursor threaded through successive calls to
// Scan for one document pass (Full or Partial). Pos/End/AdditionalSpaces
// carry the in-progress line across block boundaries; the encoding fields
// are resolved once, lazily, on the first block and then held fixed for
// the rest of the pass.
//
// Grounded on IndexingState's field usage in logdataworker.cpp's
// parseDataBlock and guessEncoding (its own declaration lives in a header
// that is not part of this repository's retrieval pack, so the shape here
// is reconstructed from how the two methods read and write it).
type IndexingState struct {
	Pos              types.LineOffset
	End              types.LineOffset
	AdditionalSpaces int
	MaxLength        types.LineLength

	blockGuess    types.Encoding
	hasBlockGuess bool

	FileEncoding    types.Encoding
	hasFileEncoding bool
	Params          EncodingParameters
}

// GuessEncoding resolves the encoding this pass will use, exactly once.
// Priority is forced > the index's previous guess (carried over from an
// earlier pass, e.g. a prior PartialIndex) > a fresh guess taken from this
// block. Once resolved, FileEncoding and Params are fixed for the rest of
// the pass; later calls are no-ops.
//
// Grounded on IndexOperation::guessEncoding in logdataworker.cpp. The
// Open Question on forced/guess priority is decided in favor of this
// exact order.
func (s *IndexingState) GuessEncoding(block []byte, source *IndexingData) {
	if !s.hasBlockGuess {
		s.blockGuess = DetectEncoding(block)
		s.hasBlockGuess = true
	}

	if s.hasFileEncoding {
		return
	}

	resolved := s.blockGuess
	if guess, ok := source.EncodingGuess(); ok {
		resolved = guess
	}
	if forced, ok := source.ForcedEncoding(); ok {
		resolved = forced
	}

	s.FileEncoding = resolved
	s.hasFileEncoding = true
	s.Params = ParametersFor(resolved)
}

// BlockGuess returns the detector-side guess for this pass: the index's
// previous guess when runPipeline seeded the state with one (as on a
// PartialIndex), otherwise the encoding detected from the first scanned
// block. It never reflects a forced override. This is the value
// IndexingData.SetEncodingGuess should be fed with, so a later pass's
// "previous guess" reflects what the detector saw rather than a forced
// override.
func (s *IndexingState) BlockGuess() (types.Encoding, bool) {
	return s.blockGuess, s.hasBlockGuess
}

// Scan finds every line-terminated line in block, expanding tabs to
// TabStop columns as it tracks the widest line seen, and returns the
// block-local line-start offsets. state.Pos/End/AdditionalSpaces carry a
// line that started in an earlier block across the boundary; state.Params
// must already be resolved via GuessEncoding before the first call.
//
// Ported verbatim (signed-modulo arithmetic included) from
// IndexOperation::parseDataBlock in logdataworker.cpp, per this engine's
// decision to reproduce the original's tab-expansion formula exactly
// rather than reinterpret its sign handling: Go's truncating %, like
// C++11 and later's, matches bit for bit.
func Scan(blockBeginning types.LineOffset, block []byte, state *IndexingState) *FastLinePositionArray {
	state.MaxLength = 0
	positions := &FastLinePositionArray{}

	expandTabs := func(searchStart, lineSize int) {
		tabSearchStart := searchStart
		remaining := lineSize
		nextTab := indexByteBounded(block, tabSearchStart, remaining)
		for nextTab != -1 {
			posWithinBlock := nextTab - state.Params.BeforeCrOffset

			delta := (int64(blockBeginning) - int64(state.Pos)) + int64(posWithinBlock) + int64(state.AdditionalSpaces)
			state.AdditionalSpaces += TabStop - int(truncMod(delta, TabStop)) - 1

			tabSubstringSize := nextTab - tabSearchStart
			remaining -= tabSubstringSize
			tabSearchStart = nextTab + 1

			if remaining > 0 {
				nextTab = indexByteBounded(block, tabSearchStart, remaining)
			} else {
				nextTab = -1
			}
		}
	}

	posWithinBlock := 0
	for posWithinBlock != -1 {
		posWithinBlock = max(int(int64(state.Pos)-int64(blockBeginning)), 0)

		searchStart := posWithinBlock
		searchLineSize := len(block) - posWithinBlock

		if searchLineSize > 0 {
			nextLineFeed := indexLineFeed(block, searchStart, searchLineSize)
			if nextLineFeed != -1 {
				expandTabs(searchStart, nextLineFeed-searchStart)
				posWithinBlock = nextLineFeed - state.Params.BeforeCrOffset
			} else {
				expandTabs(searchStart, searchLineSize)
				posWithinBlock = -1
			}
		} else {
			posWithinBlock = -1
		}

		if posWithinBlock != -1 {
			state.End = blockBeginning + types.LineOffset(posWithinBlock)
			length := int64(state.End) - int64(state.Pos) + int64(state.AdditionalSpaces)
			if l := types.LineLength(length); l > state.MaxLength {
				state.MaxLength = l
			}

			state.Pos = state.End + types.LineOffset(state.Params.LineFeedWidth)
			state.AdditionalSpaces = 0
			positions.Append(state.Pos)
		}
	}

	return positions
}

// truncMod is C/C++'s truncating-toward-zero %, which Go's % already is
// for integer operands; kept as a named call so the sign-preservation
// decision reads as deliberate at the call site rather than incidental.
func truncMod(a, b int64) int64 {
	return a % b
}

func indexByteBounded(block []byte, start, length int) int {
	if length <= 0 || start >= len(block) {
		return -1
	}
	end := start + length
	if end > len(block) {
		end = len(block)
	}
	idx := bytes.IndexByte(block[start:end], '\t')
	if idx == -1 {
		return -1
	}
	return start + idx
}

func indexLineFeed(block []byte, start, length int) int {
	if length <= 0 || start >= len(block) {
		return -1
	}
	end := start + length
	if end > len(block) {
		end = len(block)
	}
	idx := bytes.IndexByte(block[start:end], '\n')
	if idx == -1 {
		return -1
	}
	return start + idx
}
