package indexing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/standardbeagle/logidx/internal/cache"
	"github.com/standardbeagle/logidx/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFullIndex_BasicFile(t *testing.T) {
	path := writeTempFile(t, "a\nbb\nccc\n")
	dest := NewIndexingData()

	result := FullIndex(context.Background(), dest, path, types.EncodingUnknown, DefaultPrefetchDepth, ChunkSize, nil, nil)

	require.Equal(t, types.ResultCompletion, result.Kind)
	assert.True(t, result.Completed)
	assert.Equal(t, types.LinesCount(3), dest.NbLines())
	assert.Equal(t, uint64(9), dest.Size())
	assert.False(t, dest.FakeFinalLF())
}

func TestFullIndex_NonLFTerminatedAppendsSyntheticLine(t *testing.T) {
	path := writeTempFile(t, "a\nbb")
	dest := NewIndexingData()

	result := FullIndex(context.Background(), dest, path, types.EncodingUnknown, DefaultPrefetchDepth, ChunkSize, nil, nil)

	require.True(t, result.Completed)
	assert.Equal(t, types.LinesCount(2), dest.NbLines())
	assert.True(t, dest.FakeFinalLF())
}

func TestFullIndex_EmptyFileRemainsEmpty(t *testing.T) {
	path := writeTempFile(t, "")
	dest := NewIndexingData()

	result := FullIndex(context.Background(), dest, path, types.EncodingUnknown, DefaultPrefetchDepth, ChunkSize, nil, nil)

	require.True(t, result.Completed)
	assert.Equal(t, types.LinesCount(0), dest.NbLines())
	assert.Equal(t, uint64(0), dest.Size())
}

func TestFullIndex_MissingFileTreatedAsEmpty(t *testing.T) {
	dest := NewIndexingData()
	missing := filepath.Join(t.TempDir(), "does-not-exist.log")

	progressed := []int{}
	result := FullIndex(context.Background(), dest, missing, types.EncodingUnknown, DefaultPrefetchDepth, ChunkSize, nil, func(p int) {
		progressed = append(progressed, p)
	})

	require.True(t, result.Completed)
	assert.Equal(t, uint64(0), dest.Size())
	guess, ok := dest.EncodingGuess()
	require.True(t, ok)
	assert.Equal(t, types.EncodingLocale8Bit, guess)
	assert.Contains(t, progressed, 100)
}

func TestFullIndex_ForcedEncodingWins(t *testing.T) {
	path := writeTempFile(t, "hello\n")
	dest := NewIndexingData()

	FullIndex(context.Background(), dest, path, types.EncodingUTF16BE, DefaultPrefetchDepth, ChunkSize, nil, nil)

	forced, ok := dest.ForcedEncoding()
	require.True(t, ok)
	assert.Equal(t, types.EncodingUTF16BE, forced)
}

func TestPartialIndex_AppendsOnlyNewTail(t *testing.T) {
	path := writeTempFile(t, "a\nbb\n")
	dest := NewIndexingData()
	FullIndex(context.Background(), dest, path, types.EncodingUnknown, DefaultPrefetchDepth, ChunkSize, nil, nil)
	require.Equal(t, types.LinesCount(2), dest.NbLines())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("ccc\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	result := PartialIndex(context.Background(), dest, path, DefaultPrefetchDepth, ChunkSize, nil, nil)

	require.True(t, result.Completed)
	assert.Equal(t, types.LinesCount(3), dest.NbLines())
	assert.Equal(t, types.LineOffset(9), dest.PosForLine(2))
}

func TestFullIndex_Interrupted(t *testing.T) {
	path := writeTempFile(t, "a\nbb\nccc\n")
	dest := NewIndexingData()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := FullIndex(ctx, dest, path, types.EncodingUnknown, DefaultPrefetchDepth, ChunkSize, nil, nil)

	assert.False(t, result.Completed)
}

func TestCheckFileChanges_Unchanged(t *testing.T) {
	path := writeTempFile(t, "a\nbb\n")
	dest := NewIndexingData()
	FullIndex(context.Background(), dest, path, types.EncodingUnknown, DefaultPrefetchDepth, ChunkSize, nil, nil)

	result := CheckFileChanges(path, dest, nil)

	require.Equal(t, types.ResultFileStatus, result.Kind)
	assert.Equal(t, types.FileUnchanged, result.FileStatus)
}

func TestCheckFileChanges_NeverIndexedEmptyFileIsTruncated(t *testing.T) {
	path := writeTempFile(t, "")
	dest := NewIndexingData()

	result := CheckFileChanges(path, dest, nil)

	assert.Equal(t, types.FileTruncated, result.FileStatus)
}

func TestCheckFileChanges_NeverIndexedNonEmptyFileIsTruncated(t *testing.T) {
	path := writeTempFile(t, "a\nbb\n")
	dest := NewIndexingData()

	result := CheckFileChanges(path, dest, nil)

	assert.Equal(t, types.FileTruncated, result.FileStatus)
}

func TestCheckFileChanges_DataAdded(t *testing.T) {
	path := writeTempFile(t, "a\nbb\n")
	dest := NewIndexingData()
	FullIndex(context.Background(), dest, path, types.EncodingUnknown, DefaultPrefetchDepth, ChunkSize, nil, nil)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("ccc\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	result := CheckFileChanges(path, dest, nil)
	assert.Equal(t, types.FileDataAdded, result.FileStatus)
}

func TestCheckFileChanges_Truncated(t *testing.T) {
	path := writeTempFile(t, "a\nbb\nccc\n")
	dest := NewIndexingData()
	FullIndex(context.Background(), dest, path, types.EncodingUnknown, DefaultPrefetchDepth, ChunkSize, nil, nil)

	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	result := CheckFileChanges(path, dest, nil)
	assert.Equal(t, types.FileTruncated, result.FileStatus)
}

func TestCheckFileChanges_RewrittenSameSize(t *testing.T) {
	path := writeTempFile(t, "aaaa\n")
	dest := NewIndexingData()
	FullIndex(context.Background(), dest, path, types.EncodingUnknown, DefaultPrefetchDepth, ChunkSize, nil, nil)

	require.NoError(t, os.WriteFile(path, []byte("bbbb\n"), 0o644))

	result := CheckFileChanges(path, dest, nil)
	assert.Equal(t, types.FileTruncated, result.FileStatus)
}

func TestCheckFileChanges_CacheHitMatchesUncachedResult(t *testing.T) {
	path := writeTempFile(t, "a\nbb\n")
	dest := NewIndexingData()
	FullIndex(context.Background(), dest, path, types.EncodingUnknown, DefaultPrefetchDepth, ChunkSize, nil, nil)

	hc := cache.NewHashCache(time.Minute)

	first := CheckFileChanges(path, dest, hc)
	assert.Equal(t, types.FileUnchanged, first.FileStatus)

	second := CheckFileChanges(path, dest, hc)
	assert.Equal(t, types.FileUnchanged, second.FileStatus)
}

func TestCheckFileChanges_CacheMissAfterRealWriteDetectsChange(t *testing.T) {
	path := writeTempFile(t, "aaaa\n")
	dest := NewIndexingData()
	FullIndex(context.Background(), dest, path, types.EncodingUnknown, DefaultPrefetchDepth, ChunkSize, nil, nil)

	hc := cache.NewHashCache(time.Minute)
	require.Equal(t, types.FileUnchanged, CheckFileChanges(path, dest, hc).FileStatus)

	require.NoError(t, os.WriteFile(path, []byte("bbbb\n"), 0o644))

	result := CheckFileChanges(path, dest, hc)
	assert.Equal(t, types.FileTruncated, result.FileStatus)
}
