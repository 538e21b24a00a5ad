package indexing

// TabStop is the display-column alignment unit used when expanding tabs
// for BlockScanner's max-length tracking.
const TabStop = 8

// ChunkSize is the default number of bytes the pipeline's reader asks for
// per read call.
const ChunkSize = 1 << 20 // 1 MiB

// DefaultPrefetchDepth is the default number of in-flight blocks the
// limiter allows between reader and parser.
const DefaultPrefetchDepth = 2

// MinPrefetchDepth and MaxPrefetchDepth bound the prefetch depth that
// runPipeline clamps to; internal/config keeps its own copy of the same
// bounds for Config.Validate.
const (
	MinPrefetchDepth = 1
	MaxPrefetchDepth = 128
)
