// Package types holds the value types shared across the indexing engine:
// byte offsets, saturating line counters, the content-hash fingerprint and
// the small set of status enums the worker emits.
package types

import "fmt"

// LineOffset is an unsigned byte offset into a file.
type LineOffset uint64

// LineNumber is a zero-based index into a LinePositionArray.
type LineNumber uint64

// LinesCount is a saturating count of lines. It is a distinct type from
// LineOffset so the two are never accidentally mixed in arithmetic.
type LinesCount uint64

// LineLength is a saturating display width (tabs expanded to TabStop).
type LineLength uint64

// AddSaturated returns n+delta, clamped to the maximum LinesCount instead
// of wrapping.
func (n LinesCount) AddSaturated(delta LinesCount) LinesCount {
	sum := n + delta
	if sum < n {
		return ^LinesCount(0)
	}
	return sum
}

// Max returns the larger of l and other.
func (l LineLength) Max(other LineLength) LineLength {
	if other > l {
		return other
	}
	return l
}

// Encoding identifies a detected or forced text encoding.
type Encoding int

const (
	EncodingUnknown Encoding = iota
	EncodingUTF8
	EncodingUTF16LE
	EncodingUTF16BE
	EncodingUTF32LE
	EncodingUTF32BE
	EncodingLocale8Bit
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "UTF-8"
	case EncodingUTF16LE:
		return "UTF-16LE"
	case EncodingUTF16BE:
		return "UTF-16BE"
	case EncodingUTF32LE:
		return "UTF-32LE"
	case EncodingUTF32BE:
		return "UTF-32BE"
	case EncodingLocale8Bit:
		return "locale-8bit"
	default:
		return "unknown"
	}
}

// HashSize is the length in bytes of an IndexedHash digest (MD5).
const HashSize = 16

// IndexedHash is a content fingerprint covering the first Size bytes of a
// file, captured at indexing time. It is used only for change detection,
// never as a security primitive.
type IndexedHash struct {
	Hash [HashSize]byte
	Size uint64
}

func (h IndexedHash) String() string {
	return fmt.Sprintf("%x(%d)", h.Hash, h.Size)
}

// LoadingStatus is the outcome of a FullIndex/PartialIndex pass.
type LoadingStatus int

const (
	LoadingSuccessful LoadingStatus = iota
	LoadingInterrupted
)

func (s LoadingStatus) String() string {
	if s == LoadingInterrupted {
		return "Interrupted"
	}
	return "Successful"
}

// FileStatus is the outcome of a CheckFileChanges pass.
type FileStatus int

const (
	FileUnchanged FileStatus = iota
	FileDataAdded
	FileTruncated
)

func (s FileStatus) String() string {
	switch s {
	case FileDataAdded:
		return "DataAdded"
	case FileTruncated:
		return "Truncated"
	default:
		return "Unchanged"
	}
}

// OperationResultKind discriminates the tagged union an IndexOperation
// returns: either a completion bool (Full/PartialIndex) or a FileStatus
// (CheckFileChanges).
type OperationResultKind int

const (
	ResultCompletion OperationResultKind = iota
	ResultFileStatus
)

// OperationResult is the sum type `bool | FileStatus` from an IndexOperation,
// modeled as a discriminated struct rather than an interface hierarchy so the
// completion handler's switch can be exhaustive and allocation-free.
type OperationResult struct {
	Kind       OperationResultKind
	Completed  bool
	FileStatus FileStatus
}

func CompletionResult(completed bool) OperationResult {
	return OperationResult{Kind: ResultCompletion, Completed: completed}
}

func FileStatusResult(status FileStatus) OperationResult {
	return OperationResult{Kind: ResultFileStatus, FileStatus: status}
}
