// Package errors provides the typed error taxonomy the indexing engine
// wraps underlying I/O and configuration failures in, so callers can branch
// on error shape with errors.As instead of parsing messages.
package errors

import (
	"fmt"
	"os"
	"time"
)

// ErrorType classifies the origin of a wrapped error.
type ErrorType string

const (
	ErrorTypeIndexing   ErrorType = "indexing"
	ErrorTypeWatch      ErrorType = "watch"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeFileOpen   ErrorType = "file_open"
	ErrorTypePermission ErrorType = "permission"
)

// IndexingError wraps a failure inside a FullIndex, PartialIndex or
// CheckFileChanges pass. Per the engine's contract, an IndexingError never
// aborts the caller directly — operations resolve transient I/O failures
// into a terminal event (Interrupted, Truncated, empty-file success)
// instead of propagating this type across the pipeline boundary. It exists
// so that boundary can log the concrete cause before discarding it into the
// coarser event.
type IndexingError struct {
	Type       ErrorType
	Op         string
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewIndexingError classifies err by what doIndex/CheckFileChanges were
// doing (op) and, for "open", by whether the underlying cause was a
// permission failure or a missing file, so a caller that cares can branch
// on Type instead of re-deriving it from the wrapped error.
func NewIndexingError(op, path string, err error) *IndexingError {
	errType := ErrorTypeIndexing
	if op == "open" {
		switch {
		case os.IsPermission(err):
			errType = ErrorTypePermission
		case os.IsNotExist(err):
			errType = ErrorTypeFileOpen
		}
	}

	return &IndexingError{
		Type:       errType,
		Op:         op,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("indexing %s failed for %s: %v", e.Op, e.Path, e.Underlying)
}

func (e *IndexingError) Unwrap() error { return e.Underlying }

// WatchError wraps an fsnotify setup or runtime failure. DocumentWatcher
// logs runtime failures as a WatchError through debug.Warn without tearing
// down the attached Worker.
type WatchError struct {
	Type       ErrorType
	Path       string
	Underlying error
	Timestamp  time.Time
}

func NewWatchError(path string, err error) *WatchError {
	return &WatchError{Type: ErrorTypeWatch, Path: path, Underlying: err, Timestamp: time.Now()}
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("watch failed for %s: %v", e.Path, e.Underlying)
}

func (e *WatchError) Unwrap() error { return e.Underlying }

// ConfigError wraps a .logidx.kdl load or validation failure.
type ConfigError struct {
	Type       ErrorType
	Field      string
	Value      string
	Underlying error
}

func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{Type: ErrorTypeConfig, Field: field, Value: value, Underlying: err}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %q): %v", e.Field, e.Value, e.Underlying)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }
