// Package config loads and validates the engine's on-disk configuration:
// the project root to resolve relative paths against, and the handful of
// indexing knobs (chunk prefetch depth, watch debounce) exposed to an
// operator.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	configerrors "github.com/standardbeagle/logidx/internal/errors"
)

const (
	DefaultChunkSizeBytes  int64 = 1 << 20
	DefaultPrefetchDepth         = 2
	DefaultWatchMode             = true
	DefaultWatchDebounceMs       = 50

	MinPrefetchDepth = 1
	MaxPrefetchDepth = 128
)

// Config is the engine's full configuration: where the project lives and
// how its indexing pipeline is tuned.
type Config struct {
	Project Project
	Index   Index
}

type Project struct {
	Root string
}

type Index struct {
	ChunkSizeBytes  int64
	PrefetchDepth   int
	WatchMode       bool
	WatchDebounceMs int
}

func defaultConfig(root string) *Config {
	return &Config{
		Project: Project{Root: root},
		Index: Index{
			ChunkSizeBytes:  DefaultChunkSizeBytes,
			PrefetchDepth:   DefaultPrefetchDepth,
			WatchMode:       DefaultWatchMode,
			WatchDebounceMs: DefaultWatchDebounceMs,
		},
	}
}

// Load looks for a .logidx.kdl file in path and parses it, falling back to
// built-in defaults rooted at path when the file is absent. path is used
// as-is for Project.Root unless the KDL document overrides it.
func Load(path string) (*Config, error) {
	root := path
	if root == "" {
		root = "."
	}

	kdlPath := filepath.Join(root, ".logidx.kdl")
	content, err := os.ReadFile(kdlPath)
	if os.IsNotExist(err) {
		return defaultConfig(root), nil
	}
	if err != nil {
		return nil, configerrors.NewConfigError("path", kdlPath, err)
	}

	cfg, err := parseKDL(string(content), root)
	if err != nil {
		return nil, configerrors.NewConfigError("kdl", kdlPath, err)
	}
	return cfg, nil
}

// Validate enforces the bounds the pipeline depends on: a prefetch depth
// within the range the reader's channel buffer can sanely hold, and a
// positive chunk size so the reader always makes progress.
func (c *Config) Validate() error {
	if c.Index.PrefetchDepth < MinPrefetchDepth || c.Index.PrefetchDepth > MaxPrefetchDepth {
		value := fmt.Sprintf("%d", c.Index.PrefetchDepth)
		return configerrors.NewConfigError("index.prefetch_depth", value,
			fmt.Errorf("must be between %d and %d", MinPrefetchDepth, MaxPrefetchDepth))
	}
	if c.Index.ChunkSizeBytes <= 0 {
		value := fmt.Sprintf("%d", c.Index.ChunkSizeBytes)
		return configerrors.NewConfigError("index.chunk_size_bytes", value,
			fmt.Errorf("must be positive"))
	}
	return nil
}
