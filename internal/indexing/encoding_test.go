package indexing

import (
	"testing"

	"github.com/standardbeagle/logidx/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestDetectEncoding_UTF8BOM(t *testing.T) {
	block := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello\n")...)
	assert.Equal(t, types.EncodingUTF8, DetectEncoding(block))
}

func TestDetectEncoding_UTF16LE_BOM(t *testing.T) {
	block := []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}
	assert.Equal(t, types.EncodingUTF16LE, DetectEncoding(block))
}

func TestDetectEncoding_UTF16BE_BOM(t *testing.T) {
	block := []byte{0xFE, 0xFF, 0x00, 'h', 0x00, 'i'}
	assert.Equal(t, types.EncodingUTF16BE, DetectEncoding(block))
}

func TestDetectEncoding_UTF16LE_NoBOM(t *testing.T) {
	// "hi\n" as UTF-16LE without a BOM, per S4 in the acceptance scenarios.
	block := []byte{0x68, 0x00, 0x69, 0x00, 0x0A, 0x00}
	assert.Equal(t, types.EncodingUTF16LE, DetectEncoding(block))
}

func TestDetectEncoding_PlainASCII(t *testing.T) {
	block := []byte("a\nbb\nccc\n")
	assert.Equal(t, types.EncodingUTF8, DetectEncoding(block))
}

func TestDetectEncoding_Binary(t *testing.T) {
	block := make([]byte, 64)
	for i := range block {
		block[i] = byte(i % 3) // lots of control bytes, no valid structure
	}
	assert.Equal(t, types.EncodingLocale8Bit, DetectEncoding(block))
}

func TestDetectEncoding_Empty(t *testing.T) {
	assert.Equal(t, types.EncodingUTF8, DetectEncoding(nil))
}

func TestParametersFor(t *testing.T) {
	assert.Equal(t, EncodingParameters{LineFeedWidth: 1, BeforeCrOffset: 0}, ParametersFor(types.EncodingUTF8))
	assert.Equal(t, EncodingParameters{LineFeedWidth: 2, BeforeCrOffset: 0}, ParametersFor(types.EncodingUTF16LE))
	assert.Equal(t, EncodingParameters{LineFeedWidth: 2, BeforeCrOffset: 1}, ParametersFor(types.EncodingUTF16BE))
}
