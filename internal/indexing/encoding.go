package indexing

import (
	"github.com/standardbeagle/logidx/internal/types"
)

// DetectEncoding is a pure, stateless classifier: BOM sniff first, then a
// statistical fallback, then the locale default. It never performs I/O and
// holds no mutable state, matching the "free function" re-architecture
// decision recorded for the encoding detector singleton.
//
// Grounded on IndexOperation::guessEncoding and EncodingDetector::detectEncoding
// in logdataworker.cpp, and on the null-byte/non-printable-ratio heuristic
// previously used by this repository's binary-file classifier to decide
// whether a sampled block "looks like text" at all.
func DetectEncoding(block []byte) types.Encoding {
	if enc, ok := detectBOM(block); ok {
		return enc
	}
	return detectStatistical(block)
}

func detectBOM(block []byte) (types.Encoding, bool) {
	switch {
	case len(block) >= 3 && block[0] == 0xEF && block[1] == 0xBB && block[2] == 0xBF:
		return types.EncodingUTF8, true
	case len(block) >= 4 && block[0] == 0xFF && block[1] == 0xFE && block[2] == 0x00 && block[3] == 0x00:
		return types.EncodingUTF32LE, true
	case len(block) >= 4 && block[0] == 0x00 && block[1] == 0x00 && block[2] == 0xFE && block[3] == 0xFF:
		return types.EncodingUTF32BE, true
	case len(block) >= 2 && block[0] == 0xFF && block[1] == 0xFE:
		return types.EncodingUTF16LE, true
	case len(block) >= 2 && block[0] == 0xFE && block[1] == 0xFF:
		return types.EncodingUTF16BE, true
	default:
		return types.EncodingUnknown, false
	}
}

// detectStatistical applies two heuristics in order: UTF-16 NUL-density
// (even vs odd byte positions), then UTF-8 validity. A sample that passes
// neither is reported as the locale default; no separate ASCII/high-byte
// ratio is computed.
func detectStatistical(block []byte) types.Encoding {
	if len(block) == 0 {
		return types.EncodingUTF8
	}

	checkLen := len(block)
	if checkLen > 512 {
		checkLen = 512
	}
	sample := block[:checkLen]

	if enc, ok := detectUTF16ByNulDensity(sample); ok {
		return enc
	}

	if isValidUTF8(sample) {
		return types.EncodingUTF8
	}

	return types.EncodingLocale8Bit
}

// detectUTF16ByNulDensity looks for the classic "every other byte is zero"
// signature of ASCII text stored as UTF-16 without a BOM: in LE form, odd
// byte positions are mostly NUL; in BE form, even positions are.
func detectUTF16ByNulDensity(sample []byte) (types.Encoding, bool) {
	if len(sample) < 4 {
		return types.EncodingUnknown, false
	}

	evenNul, oddNul := 0, 0
	evenTotal, oddTotal := 0, 0
	for i, b := range sample {
		if i%2 == 0 {
			evenTotal++
			if b == 0 {
				evenNul++
			}
		} else {
			oddTotal++
			if b == 0 {
				oddNul++
			}
		}
	}

	const nulDensityThreshold = 0.4
	if oddTotal > 0 && float64(oddNul)/float64(oddTotal) > nulDensityThreshold {
		return types.EncodingUTF16LE, true
	}
	if evenTotal > 0 && float64(evenNul)/float64(evenTotal) > nulDensityThreshold {
		return types.EncodingUTF16BE, true
	}
	return types.EncodingUnknown, false
}

// isValidUTF8 reports whether sample decodes cleanly as UTF-8 and is not
// dominated by control bytes, the same null-byte/non-printable-ratio check
// this repository's binary-content classifier used to reject binary files,
// reused here to reject a "valid UTF-8 but actually binary" false positive.
func isValidUTF8(sample []byte) bool {
	nullBytes, nonPrintable := 0, 0
	for i := 0; i < len(sample); {
		b := sample[i]
		if b == 0 {
			nullBytes++
		}
		if b < 0x20 && b != 0x09 && b != 0x0A && b != 0x0D {
			nonPrintable++
		}

		switch {
		case b < 0x80:
			i++
		case b&0xE0 == 0xC0:
			if !continuationBytesValid(sample, i, 2) {
				return false
			}
			i += 2
		case b&0xF0 == 0xE0:
			if !continuationBytesValid(sample, i, 3) {
				return false
			}
			i += 3
		case b&0xF8 == 0xF0:
			if !continuationBytesValid(sample, i, 4) {
				return false
			}
			i += 4
		default:
			return false
		}
	}

	if len(sample) == 0 {
		return true
	}
	if nullBytes > len(sample)/100 {
		return false
	}
	if nonPrintable > len(sample)*30/100 {
		return false
	}
	return true
}

func continuationBytesValid(sample []byte, start, width int) bool {
	if start+width > len(sample) {
		return false
	}
	for k := 1; k < width; k++ {
		if sample[start+k]&0xC0 != 0x80 {
			return false
		}
	}
	return true
}

// EncodingParameters are the per-encoding scan parameters BlockScanner needs
// to translate a raw 0x0A byte match back to the start of the LF code unit
// and to know how many bytes to advance past it.
type EncodingParameters struct {
	LineFeedWidth  int
	BeforeCrOffset int
}

// ParametersFor returns the scan parameters for enc. Grounded on
// EncodingParameters' constructor in logdataworker.cpp: UTF-16 LE has the
// 0x0A as the first byte of the code unit (offset 0), UTF-16 BE has it as
// the second byte, so a raw match must be walked back by one byte to reach
// the code unit's start.
func ParametersFor(enc types.Encoding) EncodingParameters {
	switch enc {
	case types.EncodingUTF16LE:
		return EncodingParameters{LineFeedWidth: 2, BeforeCrOffset: 0}
	case types.EncodingUTF16BE:
		return EncodingParameters{LineFeedWidth: 2, BeforeCrOffset: 1}
	case types.EncodingUTF32LE:
		return EncodingParameters{LineFeedWidth: 4, BeforeCrOffset: 0}
	case types.EncodingUTF32BE:
		return EncodingParameters{LineFeedWidth: 4, BeforeCrOffset: 3}
	default:
		return EncodingParameters{LineFeedWidth: 1, BeforeCrOffset: 0}
	}
}
